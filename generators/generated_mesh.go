package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// GeneratedMeshGenerator builds a structured line, rectangle or box. The
// boundaries follow the libMesh numbering: in 1D left=0 right=1, in 2D
// bottom=0 right=1 top=2 left=3 and in 3D back=0 bottom=1 right=2 top=3
// left=4 front=5.
type GeneratedMeshGenerator struct {
	Base
	dim           int
	n             [3]int
	lo, hi        r3.Vec
	elemType      mesh.ElementType
	subdomainID   mesh.SubdomainID
	subdomainName string
}

var generatedBoundaryNames = [4][]string{
	1: {"left", "right"},
	2: {"bottom", "right", "top", "left"},
	3: {"back", "bottom", "right", "top", "left", "front"},
}

func NewGeneratedMeshGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &GeneratedMeshGenerator{Base: newBase(bc, name, "GeneratedMeshGenerator")}
	if err := params.Required("dim"); err != nil {
		return nil, g.check(err)
	}
	var err error
	if g.dim, err = params.Int("dim", 0); err != nil {
		return nil, g.check(err)
	}
	if g.dim < 1 || g.dim > 3 {
		return nil, g.paramErrorf("dim", "must be 1, 2 or 3, got %d", g.dim)
	}
	for d, axis := range []string{"x", "y", "z"} {
		if g.n[d], err = params.Int("n"+axis, 1); err != nil {
			return nil, g.check(err)
		}
		if d < g.dim && g.n[d] < 1 {
			return nil, g.paramErrorf("n"+axis, "needs at least one element, got %d", g.n[d])
		}
		lo, err := params.Float(axis+"min", 0)
		if err != nil {
			return nil, g.check(err)
		}
		hi, err := params.Float(axis+"max", 1)
		if err != nil {
			return nil, g.check(err)
		}
		if d < g.dim && hi <= lo {
			return nil, g.paramErrorf(axis+"max", "must exceed %smin", axis)
		}
		switch d {
		case 0:
			g.lo.X, g.hi.X = lo, hi
		case 1:
			g.lo.Y, g.hi.Y = lo, hi
		case 2:
			g.lo.Z, g.hi.Z = lo, hi
		}
	}
	defType := [...]string{1: "EDGE2", 2: "QUAD4", 3: "HEX8"}[g.dim]
	typeName, err := params.String("elem_type", defType)
	if err != nil {
		return nil, g.check(err)
	}
	if g.elemType, err = mesh.ParseElementType(typeName); err != nil {
		return nil, g.paramErrorf("elem_type", "%v", err)
	}
	switch {
	case g.dim == 1 && g.elemType == mesh.Line:
	case g.dim == 2 && (g.elemType == mesh.Quad || g.elemType == mesh.Triangle):
	case g.dim == 3 && g.elemType == mesh.Hex:
	default:
		return nil, g.paramErrorf("elem_type", "%s can not build a %dD mesh", g.elemType, g.dim)
	}
	id, err := params.Int("subdomain_id", 0)
	if err != nil {
		return nil, g.check(err)
	}
	g.subdomainID = mesh.SubdomainID(id)
	if g.subdomainName, err = params.String("subdomain_name", ""); err != nil {
		return nil, g.check(err)
	}
	return g, nil
}

func (g *GeneratedMeshGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	var (
		m          = mesh.NewMesh(g.dim)
		nx, ny, nz = g.n[0], 1, 1
		jmax, kmax int // node layers beyond the first
		nodes      []*mesh.Node
	)
	if g.dim > 1 {
		ny, jmax = g.n[1], g.n[1]
	}
	if g.dim > 2 {
		nz, kmax = g.n[2], g.n[2]
	}
	coord := func(lo, hi float64, i, n int) float64 {
		if i == n {
			return hi
		}
		return lo + (hi-lo)*float64(i)/float64(n)
	}
	for k := 0; k <= kmax; k++ {
		for j := 0; j <= jmax; j++ {
			for i := 0; i <= nx; i++ {
				p := r3.Vec{X: coord(g.lo.X, g.hi.X, i, nx)}
				if g.dim >= 2 {
					p.Y = coord(g.lo.Y, g.hi.Y, j, ny)
				}
				if g.dim == 3 {
					p.Z = coord(g.lo.Z, g.hi.Z, k, nz)
				}
				nodes = append(nodes, m.AddPoint(p))
			}
		}
	}
	node := func(i, j, k int) *mesh.Node {
		return nodes[(k*(jmax+1)+j)*(nx+1)+i]
	}

	bi := m.BoundaryInfo()
	for id, bname := range generatedBoundaryNames[g.dim] {
		bi.SetSidesetName(mesh.BoundaryID(id), bname)
	}
	add := func(t mesh.ElementType, nn ...*mesh.Node) *mesh.Elem {
		e := m.AddElem(t, nn...)
		e.SubdomainID = g.subdomainID
		return e
	}

	switch g.dim {
	case 1:
		for i := 0; i < nx; i++ {
			e := add(mesh.Line, node(i, 0, 0), node(i+1, 0, 0))
			if i == 0 {
				bi.AddSide(e, 0, 0)
			}
			if i == nx-1 {
				bi.AddSide(e, 1, 1)
			}
		}
	case 2:
		const bottom, right, top, left = 0, 1, 2, 3
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				n00, n10, n11, n01 := node(i, j, 0), node(i+1, j, 0), node(i+1, j+1, 0), node(i, j+1, 0)
				if g.elemType == mesh.Quad {
					e := add(mesh.Quad, n00, n10, n11, n01)
					g.mark(bi, e, j == 0, 0, bottom)
					g.mark(bi, e, i == nx-1, 1, right)
					g.mark(bi, e, j == ny-1, 2, top)
					g.mark(bi, e, i == 0, 3, left)
					continue
				}
				// Two triangles split along the n00 - n11 diagonal
				lower := add(mesh.Triangle, n00, n10, n11)
				g.mark(bi, lower, j == 0, 0, bottom)
				g.mark(bi, lower, i == nx-1, 1, right)
				upper := add(mesh.Triangle, n00, n11, n01)
				g.mark(bi, upper, j == ny-1, 1, top)
				g.mark(bi, upper, i == 0, 2, left)
			}
		}
	case 3:
		const back, bottom, right, top, left, front = 0, 1, 2, 3, 4, 5
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					e := add(mesh.Hex,
						node(i, j, k), node(i+1, j, k), node(i+1, j+1, k), node(i, j+1, k),
						node(i, j, k+1), node(i+1, j, k+1), node(i+1, j+1, k+1), node(i, j+1, k+1))
					g.mark(bi, e, k == 0, 0, back)
					g.mark(bi, e, j == 0, 1, bottom)
					g.mark(bi, e, i == nx-1, 2, right)
					g.mark(bi, e, j == ny-1, 3, top)
					g.mark(bi, e, i == 0, 4, left)
					g.mark(bi, e, k == nz-1, 5, front)
				}
			}
		}
	}
	if g.subdomainName != "" {
		m.SetSubdomainName(g.subdomainID, g.subdomainName)
	}
	m.PrepareForUse()
	return m, nil
}

func (g *GeneratedMeshGenerator) mark(bi *mesh.BoundaryInfo, e *mesh.Elem, on bool, side int, id mesh.BoundaryID) {
	if on {
		bi.AddSide(e, side, id)
	}
}
