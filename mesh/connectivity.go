package mesh

import (
	"github.com/james-bowman/sparse"
)

type faceRef struct {
	elem   *Elem
	side   int
	nNodes int
}

// FindNeighbors rebuilds the side neighbor links from shared side nodes. A
// face to vertex incidence matrix is multiplied by its transpose, the entry
// (i,j) of the product counts the vertices shared by faces i and j so two
// faces match when that count equals the vertex count of both. Existing
// RemoteElem links are kept where no local match is found.
func (m *Mesh) FindNeighbors() {
	var faces []faceRef
	remote := make(map[faceRef]bool)
	for e := range m.Elements() {
		if e.neighbors == nil {
			e.neighbors = make([]*Elem, e.NSides())
		}
		for s := 0; s < e.NSides(); s++ {
			f := faceRef{elem: e, side: s, nNodes: len(e.Type.SideLocalNodes(s))}
			if e.neighbors[s] == RemoteElem {
				remote[f] = true
			}
			e.neighbors[s] = nil
			faces = append(faces, f)
		}
	}
	if len(faces) == 0 || len(m.nodes) == 0 {
		return
	}
	SpFToV_Tmp := sparse.NewDOK(len(faces), len(m.nodes))
	for fi, f := range faces {
		for _, n := range f.elem.SideNodes(f.side) {
			SpFToV_Tmp.Set(fi, n.ID, 1)
		}
	}
	SpFToF := sparse.NewCSR(len(faces), len(faces), nil, nil, nil)
	SpFToV := SpFToV_Tmp.ToCSR()
	SpFToF.Mul(SpFToV, SpFToV.T())
	SpFToF.DoNonZero(func(i, j int, v float64) {
		if i == j {
			return
		}
		fi, fj := faces[i], faces[j]
		if fi.elem == fj.elem || fi.nNodes != fj.nNodes || int(v+0.5) != fi.nNodes {
			return
		}
		fi.elem.neighbors[fi.side] = fj.elem
	})
	for f := range remote {
		if f.elem.neighbors[f.side] == nil {
			f.elem.neighbors[f.side] = RemoteElem
		}
	}
}

// ExternalSides returns the (element, side) pairs without a neighbor
func (m *Mesh) ExternalSides() (sides []BoundarySide) {
	for e := range m.Elements() {
		for s := 0; s < e.NSides(); s++ {
			if e.Neighbor(s) == nil {
				sides = append(sides, BoundarySide{Elem: e, Side: s, ID: InvalidBoundaryID})
			}
		}
	}
	return
}
