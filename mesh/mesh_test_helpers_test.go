package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// newQuadGrid builds an nx by ny grid of QUAD4 elements starting at (x0,y0)
// with boundary ids bottom=0, right=1, top=2, left=3
func newQuadGrid(nx, ny int, x0, y0, dx, dy float64) *Mesh {
	m := NewMesh(2)
	nodes := make([][]*Node, ny+1)
	for j := 0; j <= ny; j++ {
		nodes[j] = make([]*Node, nx+1)
		for i := 0; i <= nx; i++ {
			nodes[j][i] = m.AddPoint(r3.Vec{X: x0 + float64(i)*dx, Y: y0 + float64(j)*dy})
		}
	}
	bi := m.BoundaryInfo()
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			e := m.AddElem(Quad, nodes[j][i], nodes[j][i+1], nodes[j+1][i+1], nodes[j+1][i])
			if j == 0 {
				bi.AddSide(e, 0, 0)
			}
			if i == nx-1 {
				bi.AddSide(e, 1, 1)
			}
			if j == ny-1 {
				bi.AddSide(e, 2, 2)
			}
			if i == 0 {
				bi.AddSide(e, 3, 3)
			}
		}
	}
	for id, name := range []string{"bottom", "right", "top", "left"} {
		bi.SetSidesetName(BoundaryID(id), name)
	}
	m.PrepareForUse()
	return m
}
