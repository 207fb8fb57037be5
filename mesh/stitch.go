package mesh

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// StitchOptions controls StitchMeshes
type StitchOptions struct {
	// Tolerance is the absolute distance below which two nodes are welded
	Tolerance float64
	// ClearStitchedIDs removes both boundary ids from the sides that were
	// welded. Sides of the same ids that were not welded keep them.
	ClearStitchedIDs bool
	Verbose          bool
	// UseBinarySearch selects a kd-tree nearest node search, otherwise every
	// pair of boundary nodes is compared
	UseBinarySearch bool
}

// DefaultStitchTolerance matches the geometric tolerance used by the readers
const DefaultStitchTolerance = 1.e-8

// NameConflictError reports a subdomain name bound to two different ids
type NameConflictError struct {
	Name     string
	ID, Dupe SubdomainID
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("subdomain name %q maps to both id %d and id %d", e.Name, e.ID, e.Dupe)
}

// MergeSubdomainNameMaps inserts the entries of secondary into primary. A
// name that would end up mapped to two ids is an error, primary is left
// unmodified in that case.
func MergeSubdomainNameMaps(primary, secondary map[SubdomainID]string) error {
	byName := make(map[string]SubdomainID, len(primary))
	for id, name := range primary {
		byName[name] = id
	}
	ids := make([]SubdomainID, 0, len(secondary))
	for id := range secondary {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		name := secondary[id]
		if _, ok := primary[id]; ok {
			// the id keeps its primary name
			continue
		}
		if have, ok := byName[name]; ok && have != id {
			return &NameConflictError{Name: name, ID: have, Dupe: id}
		}
		byName[name] = id
	}
	for _, id := range ids {
		if _, ok := primary[id]; !ok {
			primary[id] = secondary[id]
		}
	}
	return nil
}

// StitchMeshes copies other into m and welds the nodes of boundary otherID
// onto the nodes of boundary thisID. The copied entities are offset by the
// current maximum ids of m, other is left untouched. It returns the number
// of welded node pairs.
func (m *Mesh) StitchMeshes(other *Mesh, thisID, otherID BoundaryID, opts StitchOptions) (merged int, err error) {
	if other == nil {
		return 0, fmt.Errorf("stitch: nil mesh")
	}
	if other == m {
		return 0, fmt.Errorf("stitch: a mesh can not be stitched to itself")
	}
	var (
		thisNodes  = m.boundary.BoundaryNodes(thisID)
		otherNodes = other.boundary.BoundaryNodes(otherID)
	)
	if len(thisNodes) == 0 {
		return 0, fmt.Errorf("stitch: %w: id %d has no sides in the destination mesh", ErrBoundaryNotFound, thisID)
	}
	if len(otherNodes) == 0 {
		return 0, fmt.Errorf("stitch: %w: id %d has no sides in the mesh being stitched", ErrBoundaryNotFound, otherID)
	}
	var weld map[*Node]*Node
	if opts.UseBinarySearch {
		weld = matchNodesTree(thisNodes, otherNodes, opts.Tolerance)
	} else {
		weld = matchNodesExhaustive(thisNodes, otherNodes, opts.Tolerance)
	}
	if len(weld) == 0 {
		return 0, fmt.Errorf("stitch: no coincident nodes within %g between boundary %d and boundary %d",
			opts.Tolerance, thisID, otherID)
	}
	if err = MergeSubdomainNameMaps(m.subdomainNames, other.subdomainNames); err != nil {
		return 0, fmt.Errorf("stitch: %w", err)
	}
	if opts.Verbose {
		log.Printf("stitching boundary %d (%d nodes) to boundary %d (%d nodes): %d nodes welded\n",
			thisID, len(thisNodes), otherID, len(otherNodes), len(weld))
	}

	_, elemMap := m.appendMesh(other, weld)

	if opts.ClearStitchedIDs {
		welded := make(map[*Node]bool, len(weld))
		for _, n := range weld {
			welded[n] = true
		}
		m.clearWeldedSides(thisID, welded, nil)
		copied := make(map[*Elem]bool, len(elemMap))
		for _, ce := range elemMap {
			copied[ce] = true
		}
		m.clearWeldedSides(otherID, welded, copied)
	}
	m.PrepareForUse()
	return len(weld), nil
}

// clearWeldedSides removes id from the sides whose nodes were all welded,
// restricted to the elements in only when it is not nil
func (m *Mesh) clearWeldedSides(id BoundaryID, welded map[*Node]bool, only map[*Elem]bool) {
	for _, bs := range m.boundary.SideList() {
		if bs.ID != id || (only != nil && !only[bs.Elem]) {
			continue
		}
		all := true
		for _, n := range bs.Elem.SideNodes(bs.Side) {
			if !welded[n] {
				all = false
				break
			}
		}
		if all {
			m.boundary.RemoveSide(bs.Elem, bs.Side, id)
		}
	}
}

// appendMesh copies the entities of other into m with ids offset by the
// current maximum ids. Nodes found in weld are replaced by their target.
func (m *Mesh) appendMesh(other *Mesh, weld map[*Node]*Node) (nodeMap map[*Node]*Node, elemMap map[*Elem]*Elem) {
	var (
		nodeOffset = m.MaxNodeID()
		elemOffset = m.MaxElemID()
	)
	nodeMap = make(map[*Node]*Node, len(other.nodes))
	elemMap = make(map[*Elem]*Elem, len(other.elems))
	for n := range other.Nodes() {
		if target, ok := weld[n]; ok {
			nodeMap[n] = target
			continue
		}
		nodeMap[n] = m.addNodeWithID(nodeOffset+n.ID, n.Vec)
	}
	for e := range other.Elements() {
		nodes := make([]*Node, len(e.Nodes))
		for i, n := range e.Nodes {
			nodes[i] = nodeMap[n]
		}
		ce := m.addElemWithID(elemOffset+e.ID, e.Type, nodes)
		ce.SubdomainID = e.SubdomainID
		elemMap[e] = ce
	}
	m.boundary.copyFrom(other.boundary, elemMap, nodeMap)
	if other.dim > m.dim {
		m.dim = other.dim
	}
	m.prepared = false
	return
}

// AppendMesh copies other into m without welding any node
func (m *Mesh) AppendMesh(other *Mesh) error {
	if err := MergeSubdomainNameMaps(m.subdomainNames, other.subdomainNames); err != nil {
		return err
	}
	m.appendMesh(other, nil)
	return nil
}

// matchNodesExhaustive compares every pair, O(n*m)
func matchNodesExhaustive(thisNodes, otherNodes []*Node, tol float64) map[*Node]*Node {
	var (
		weld  = make(map[*Node]*Node)
		taken = make(map[*Node]bool)
		tol2  = tol * tol
	)
	for _, on := range otherNodes {
		var (
			best  *Node
			bestD = math.Inf(1)
		)
		for _, tn := range thisNodes {
			if taken[tn] {
				continue
			}
			if d := r3.Norm2(r3.Sub(on.Vec, tn.Vec)); d < bestD {
				best, bestD = tn, d
			}
		}
		if best != nil && bestD <= tol2 {
			weld[on] = best
			taken[best] = true
		}
	}
	return weld
}

// matchNodesTree finds each nearest destination node through a kd-tree,
// O(n log n)
func matchNodesTree(thisNodes, otherNodes []*Node, tol float64) map[*Node]*Node {
	var (
		weld   = make(map[*Node]*Node)
		taken  = make(map[*Node]bool)
		tol2   = tol * tol
		points = make(kdtree.Points, 0, len(thisNodes))
		byKey  = make(map[r3.Vec][]*Node, len(thisNodes))
	)
	for _, tn := range thisNodes {
		points = append(points, kdtree.Point{tn.X, tn.Y, tn.Z})
		byKey[tn.Vec] = append(byKey[tn.Vec], tn)
	}
	tree := kdtree.New(points, false)
	for _, on := range otherNodes {
		got, _ := tree.Nearest(kdtree.Point{on.X, on.Y, on.Z})
		p, ok := got.(kdtree.Point)
		if !ok {
			continue
		}
		for _, tn := range byKey[r3.Vec{X: p[0], Y: p[1], Z: p[2]}] {
			if taken[tn] {
				continue
			}
			if r3.Norm2(r3.Sub(on.Vec, tn.Vec)) <= tol2 {
				weld[on] = tn
				taken[tn] = true
			}
			break
		}
	}
	return weld
}
