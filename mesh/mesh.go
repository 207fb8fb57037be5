package mesh

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

type (
	SubdomainID int
	BoundaryID  int
)

const (
	InvalidBoundaryID  BoundaryID  = -1
	InvalidSubdomainID SubdomainID = -1
)

var (
	ErrBoundaryNotFound = errors.New("boundary not found")
	ErrMeshTaken        = errors.New("mesh handle already taken")
)

// Mesh is a mutable collection of nodes and elements with boundary and
// subdomain metadata. Node and element IDs index directly into the storage
// slices, deleted entities leave nil holes until PrepareForUse compacts them.
type Mesh struct {
	dim            int
	nodes          []*Node
	elems          []*Elem
	boundary       *BoundaryInfo
	subdomainNames map[SubdomainID]string

	// Partition this mesh belongs to, a serial mesh is rank 0 of 1
	rank, nRanks int
	prepared     bool
}

// NewMesh creates an empty serial mesh of the given spatial dimension
func NewMesh(dim int) *Mesh {
	return &Mesh{
		dim:            dim,
		boundary:       newBoundaryInfo(),
		subdomainNames: make(map[SubdomainID]string),
		nRanks:         1,
	}
}

func (m *Mesh) Dim() int       { return m.dim }
func (m *Mesh) SetDim(dim int) { m.dim = dim }

func (m *Mesh) BoundaryInfo() *BoundaryInfo { return m.boundary }

// AddPoint appends a node and returns it
func (m *Mesh) AddPoint(p r3.Vec) *Node {
	n := &Node{ID: len(m.nodes), Vec: p}
	m.nodes = append(m.nodes, n)
	m.prepared = false
	return n
}

func (m *Mesh) addNodeWithID(id int, p r3.Vec) *Node {
	for len(m.nodes) <= id {
		m.nodes = append(m.nodes, nil)
	}
	if m.nodes[id] != nil {
		panic(fmt.Sprintf("node id %d already in use", id))
	}
	n := &Node{ID: id, Vec: p}
	m.nodes[id] = n
	return n
}

// AddElem appends an element of type t over nodes, which must belong to m
func (m *Mesh) AddElem(t ElementType, nodes ...*Node) *Elem {
	return m.addElemWithID(len(m.elems), t, nodes)
}

func (m *Mesh) addElemWithID(id int, t ElementType, nodes []*Node) *Elem {
	if len(nodes) != t.NNodes() {
		panic(fmt.Sprintf("%s element needs %d nodes, got %d", t, t.NNodes(), len(nodes)))
	}
	for len(m.elems) <= id {
		m.elems = append(m.elems, nil)
	}
	if m.elems[id] != nil {
		panic(fmt.Sprintf("element id %d already in use", id))
	}
	e := &Elem{
		ID:          id,
		Type:        t,
		Nodes:       append([]*Node(nil), nodes...),
		ProcessorID: m.rank,
		neighbors:   make([]*Elem, t.NSides()),
	}
	m.elems[id] = e
	m.prepared = false
	return e
}

// Node returns the node with id or nil
func (m *Mesh) Node(id int) *Node {
	if id < 0 || id >= len(m.nodes) {
		return nil
	}
	return m.nodes[id]
}

// Elem returns the element with id or nil
func (m *Mesh) Elem(id int) *Elem {
	if id < 0 || id >= len(m.elems) {
		return nil
	}
	return m.elems[id]
}

// Nodes iterates all nodes in ID order
func (m *Mesh) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range m.nodes {
			if n != nil && !yield(n) {
				return
			}
		}
	}
}

// Elements iterates all elements held by this mesh, including ghosts
func (m *Mesh) Elements() iter.Seq[*Elem] {
	return func(yield func(*Elem) bool) {
		for _, e := range m.elems {
			if e != nil && !yield(e) {
				return
			}
		}
	}
}

// LocalElements iterates the elements owned by this rank
func (m *Mesh) LocalElements() iter.Seq[*Elem] {
	return func(yield func(*Elem) bool) {
		for _, e := range m.elems {
			if e != nil && e.ProcessorID == m.rank && !yield(e) {
				return
			}
		}
	}
}

func (m *Mesh) NNodes() (n int) {
	for range m.Nodes() {
		n++
	}
	return
}

func (m *Mesh) NElem() (n int) {
	for range m.Elements() {
		n++
	}
	return
}

// MaxNodeID is one past the largest node id in use
func (m *Mesh) MaxNodeID() int { return len(m.nodes) }

// MaxElemID is one past the largest element id in use
func (m *Mesh) MaxElemID() int { return len(m.elems) }

// DeleteElem removes e, its boundary sides and any neighbor links to it
func (m *Mesh) DeleteElem(e *Elem) {
	if m.Elem(e.ID) != e {
		return
	}
	for s := 0; s < e.NSides(); s++ {
		if nbr := e.Neighbor(s); nbr != nil && nbr != RemoteElem {
			if ns := nbr.SideWithNeighbor(e); ns >= 0 {
				nbr.neighbors[ns] = nil
			}
		}
	}
	m.boundary.removeElem(e)
	m.elems[e.ID] = nil
	m.prepared = false
}

// DeleteNode removes a node, elements referencing it must be gone already
func (m *Mesh) DeleteNode(n *Node) {
	if m.Node(n.ID) != n {
		return
	}
	m.boundary.removeNode(n)
	m.nodes[n.ID] = nil
	m.prepared = false
}

func (m *Mesh) Rank() int      { return m.rank }
func (m *Mesh) NRanks() int    { return m.nRanks }
func (m *Mesh) IsSerial() bool { return m.nRanks <= 1 }

func (m *Mesh) IsPrepared() bool { return m.prepared }

// SubdomainName returns the name of a subdomain or "" when unnamed
func (m *Mesh) SubdomainName(id SubdomainID) string { return m.subdomainNames[id] }

func (m *Mesh) SetSubdomainName(id SubdomainID, name string) {
	if name == "" {
		delete(m.subdomainNames, id)
		return
	}
	m.subdomainNames[id] = name
}

// SubdomainNames returns a copy of the subdomain ID to name map
func (m *Mesh) SubdomainNames() map[SubdomainID]string {
	names := make(map[SubdomainID]string, len(m.subdomainNames))
	for id, name := range m.subdomainNames {
		names[id] = name
	}
	return names
}

// SubdomainIDByName looks up a subdomain by name
func (m *Mesh) SubdomainIDByName(name string) (SubdomainID, bool) {
	for id, n := range m.subdomainNames {
		if n == name {
			return id, true
		}
	}
	return InvalidSubdomainID, false
}

// SubdomainIDs returns the sorted set of subdomain ids carried by elements
func (m *Mesh) SubdomainIDs() (ids []SubdomainID) {
	set := make(map[SubdomainID]struct{})
	for e := range m.Elements() {
		set[e.SubdomainID] = struct{}{}
	}
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return
}

// PrepareForUse compacts ids on a serial mesh, drops orphaned nodes and
// rebuilds the neighbor links.
func (m *Mesh) PrepareForUse() {
	if m.IsSerial() {
		m.removeOrphanedNodes()
		m.renumber()
	}
	m.FindNeighbors()
	m.prepared = true
}

func (m *Mesh) removeOrphanedNodes() {
	used := make([]bool, len(m.nodes))
	for e := range m.Elements() {
		for _, n := range e.Nodes {
			used[n.ID] = true
		}
	}
	for n := range m.Nodes() {
		if !used[n.ID] && len(m.boundary.nodes[n]) == 0 {
			m.DeleteNode(n)
		}
	}
}

func (m *Mesh) renumber() {
	var (
		nodes = make([]*Node, 0, len(m.nodes))
		elems = make([]*Elem, 0, len(m.elems))
	)
	for n := range m.Nodes() {
		n.ID = len(nodes)
		nodes = append(nodes, n)
	}
	for e := range m.Elements() {
		e.ID = len(elems)
		elems = append(elems, e)
	}
	m.nodes, m.elems = nodes, elems
}

// Clone returns a deep copy with identical ids and metadata
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		dim:            m.dim,
		nodes:          make([]*Node, len(m.nodes)),
		elems:          make([]*Elem, len(m.elems)),
		boundary:       newBoundaryInfo(),
		subdomainNames: m.SubdomainNames(),
		rank:           m.rank,
		nRanks:         m.nRanks,
		prepared:       m.prepared,
	}
	nodeMap := make(map[*Node]*Node, len(m.nodes))
	elemMap := make(map[*Elem]*Elem, len(m.elems))
	for n := range m.Nodes() {
		cn := &Node{ID: n.ID, Vec: n.Vec}
		c.nodes[n.ID] = cn
		nodeMap[n] = cn
	}
	for e := range m.Elements() {
		ce := &Elem{
			ID:          e.ID,
			Type:        e.Type,
			Nodes:       make([]*Node, len(e.Nodes)),
			SubdomainID: e.SubdomainID,
			ProcessorID: e.ProcessorID,
			neighbors:   make([]*Elem, e.NSides()),
		}
		for i, n := range e.Nodes {
			ce.Nodes[i] = nodeMap[n]
		}
		c.elems[e.ID] = ce
		elemMap[e] = ce
	}
	for e, ce := range elemMap {
		for s, nbr := range e.neighbors {
			if nbr == RemoteElem {
				ce.neighbors[s] = RemoteElem
			} else if nbr != nil {
				ce.neighbors[s] = elemMap[nbr]
			}
		}
	}
	c.boundary.copyFrom(m.boundary, elemMap, nodeMap)
	return c
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Dimension: %d\n", m.dim)
	fmt.Printf("  Nodes: %d\n", m.NNodes())
	fmt.Printf("  Elements: %d\n", m.NElem())
	if !m.IsSerial() {
		fmt.Printf("  Rank: %d of %d\n", m.rank, m.nRanks)
	}

	typeCounts := make(map[ElementType]int)
	subCounts := make(map[SubdomainID]int)
	for e := range m.Elements() {
		typeCounts[e.Type]++
		subCounts[e.SubdomainID]++
	}
	fmt.Printf("  Element types:\n")
	for t := Line; t <= Pyramid; t++ {
		if count := typeCounts[t]; count > 0 {
			fmt.Printf("    %s: %d\n", t, count)
		}
	}
	fmt.Printf("  Subdomains:\n")
	for _, id := range m.SubdomainIDs() {
		fmt.Printf("    %d (%s): %d elements\n", id, m.subdomainNames[id], subCounts[id])
	}
	fmt.Printf("  Boundaries:\n")
	counts := m.boundary.sideCounts()
	for _, id := range m.boundary.BoundaryIDs() {
		fmt.Printf("    %d (%s): %d sides\n", id, m.boundary.SidesetName(id), counts[id])
	}
}
