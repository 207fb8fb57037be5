package mesh

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gomeshgen/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// ElementType represents different element types
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Tet
	Hex
	Prism
	Pyramid
)

func (e ElementType) String() string {
	return [...]string{"EDGE2", "TRI3", "QUAD4", "TET4", "HEX8", "PRISM6", "PYRAMID5"}[e]
}

// ParseElementType accepts the libMesh style names (QUAD4, TRI3...) as well
// as the plain names used by the readers (Quad, Triangle...)
func ParseElementType(name string) (ElementType, error) {
	switch strings.ToUpper(name) {
	case "EDGE2", "EDGE", "LINE":
		return Line, nil
	case "TRI3", "TRI", "TRIANGLE":
		return Triangle, nil
	case "QUAD4", "QUAD":
		return Quad, nil
	case "TET4", "TET":
		return Tet, nil
	case "HEX8", "HEX":
		return Hex, nil
	case "PRISM6", "PRISM":
		return Prism, nil
	case "PYRAMID5", "PYRAMID":
		return Pyramid, nil
	}
	return 0, fmt.Errorf("unknown element type %q", name)
}

// Dim is the topological dimension of the element
func (e ElementType) Dim() int {
	switch e {
	case Line:
		return 1
	case Triangle, Quad:
		return 2
	default:
		return 3
	}
}

// NNodes is the number of vertices of the element
func (e ElementType) NNodes() int {
	return [...]int{2, 3, 4, 4, 8, 6, 5}[e]
}

// Local node indices of each side, ordered so that the right hand rule
// gives the outward normal for 3D types.
var sideNodeTable = [...][][]int{
	Line:     {{0}, {1}},
	Triangle: {{0, 1}, {1, 2}, {2, 0}},
	Quad:     {{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	Tet:      {{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {2, 0, 3}},
	Hex: {
		{0, 3, 2, 1}, // bottom
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
		{4, 5, 6, 7}, // top
	},
	Prism:   {{0, 2, 1}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}, {3, 4, 5}},
	Pyramid: {{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}, {0, 3, 2, 1}},
}

// NSides is the number of sides (faces in 3D, edges in 2D, end points in 1D)
func (e ElementType) NSides() int {
	return len(sideNodeTable[e])
}

// SideLocalNodes returns the local node indices of a side
func (e ElementType) SideLocalNodes(side int) []int {
	return sideNodeTable[e][side]
}

// Node is a mesh vertex
type Node struct {
	ID int
	r3.Vec
}

// Elem is a mesh element. Neighbor links are indexed by side and may hold
// the RemoteElem placeholder on a partitioned mesh.
type Elem struct {
	ID          int
	Type        ElementType
	Nodes       []*Node
	SubdomainID SubdomainID
	ProcessorID int
	neighbors   []*Elem
}

// RemoteElem stands in for an element owned by another rank. It carries no
// geometry and must never be dereferenced for nodes.
var RemoteElem = &Elem{ID: -1, Type: Line}

func (e *Elem) NSides() int { return e.Type.NSides() }

func (e *Elem) Dim() int { return e.Type.Dim() }

func (e *Elem) IsRemote() bool { return e == RemoteElem }

// Neighbor returns the element across side, nil on a physical boundary
func (e *Elem) Neighbor(side int) *Elem {
	if e.neighbors == nil {
		return nil
	}
	return e.neighbors[side]
}

func (e *Elem) SetNeighbor(side int, nbr *Elem) {
	if e.neighbors == nil {
		e.neighbors = make([]*Elem, e.NSides())
	}
	e.neighbors[side] = nbr
}

// SideWithNeighbor returns the local side that faces nbr or -1
func (e *Elem) SideWithNeighbor(nbr *Elem) int {
	for s, n := range e.neighbors {
		if n == nbr {
			return s
		}
	}
	return -1
}

// SideNodes returns the nodes of a side in outward order
func (e *Elem) SideNodes(side int) (nodes []*Node) {
	local := e.Type.SideLocalNodes(side)
	nodes = make([]*Node, len(local))
	for i, ln := range local {
		nodes[i] = e.Nodes[ln]
	}
	return
}

// Centroid returns the vertex average
func (e *Elem) Centroid() (c r3.Vec) {
	return vertexAverage(e.Nodes)
}

func vertexAverage(nodes []*Node) (c r3.Vec) {
	for _, n := range nodes {
		c = r3.Add(c, n.Vec)
	}
	return r3.Scale(1/float64(len(nodes)), c)
}

// newellNormal is the area weighted normal of a planar or warped polygon, its
// length is twice the polygon area.
func newellNormal(nodes []*Node) (n r3.Vec) {
	for i := range nodes {
		p, q := nodes[i].Vec, nodes[(i+1)%len(nodes)].Vec
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return
}

// Normal returns the unit normal of a 2D element, following the node winding.
// A degenerate (colinear) element returns the zero vector and ok == false.
func (e *Elem) Normal() (normal r3.Vec, ok bool) {
	if e.Dim() != 2 {
		return r3.Vec{}, false
	}
	return safeUnit(newellNormal(e.Nodes), e.size())
}

// SideNormal returns the outward unit normal of a side
func (e *Elem) SideNormal(side int) (normal r3.Vec, ok bool) {
	nodes := e.SideNodes(side)
	switch e.Dim() {
	case 1:
		t, ok := safeUnit(r3.Sub(e.Nodes[1].Vec, e.Nodes[0].Vec), 1)
		if side == 0 {
			t = r3.Scale(-1, t)
		}
		return t, ok
	case 2:
		plane, ok := e.Normal()
		if !ok {
			return r3.Vec{}, false
		}
		return safeUnit(r3.Cross(r3.Sub(nodes[1].Vec, nodes[0].Vec), plane), e.size())
	default:
		n, ok := safeUnit(newellNormal(nodes), e.size()*e.size())
		if !ok {
			return n, false
		}
		if r3.Dot(n, r3.Sub(vertexAverage(nodes), e.Centroid())) < 0 {
			n = r3.Scale(-1, n)
		}
		return n, true
	}
}

// size is the longest vertex distance from the centroid, used to scale the
// degeneracy test
func (e *Elem) size() (h float64) {
	c := e.Centroid()
	for _, n := range e.Nodes {
		h = math.Max(h, r3.Norm(r3.Sub(n.Vec, c)))
	}
	return
}

func safeUnit(v r3.Vec, scale float64) (r3.Vec, bool) {
	norm := r3.Norm(v)
	if norm == 0 || norm <= utils.NODETOL*scale {
		return r3.Vec{}, false
	}
	return r3.Scale(1/norm, v), true
}

// Flip reverses the node winding of a 1D or 2D element in place. Neighbor
// links and boundary sides are permuted to follow their geometric side.
func (e *Elem) Flip(bi *BoundaryInfo) error {
	var perm []int // old side -> new side
	switch e.Type {
	case Line:
		e.Nodes[0], e.Nodes[1] = e.Nodes[1], e.Nodes[0]
		perm = []int{1, 0}
	case Triangle:
		e.Nodes[1], e.Nodes[2] = e.Nodes[2], e.Nodes[1]
		perm = []int{2, 1, 0}
	case Quad:
		e.Nodes[1], e.Nodes[3] = e.Nodes[3], e.Nodes[1]
		perm = []int{3, 2, 1, 0}
	default:
		return fmt.Errorf("element %d: flipping a %s element is not supported", e.ID, e.Type)
	}
	if e.neighbors != nil {
		nbrs := make([]*Elem, len(e.neighbors))
		for old, n := range e.neighbors {
			nbrs[perm[old]] = n
		}
		e.neighbors = nbrs
	}
	if bi != nil {
		bi.permuteSides(e, perm)
	}
	return nil
}
