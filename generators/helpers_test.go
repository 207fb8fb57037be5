package generators

import (
	"context"
	"testing"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/utils"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type genBlock struct {
	typeName, name string
	params         InputParameters.Params
}

func buildPipeline(t *testing.T, comm *utils.Comm, blocks ...genBlock) *Pipeline {
	t.Helper()
	p := NewPipeline(comm)
	for _, b := range blocks {
		require.NoError(t, p.Add(b.typeName, b.name, b.params))
	}
	return p
}

func runBlocks(t *testing.T, blocks ...genBlock) *mesh.Mesh {
	t.Helper()
	m, err := buildPipeline(t, nil, blocks...).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func square(name string, nx, ny int, xmin, ymin, xmax, ymax float64) genBlock {
	return genBlock{"GeneratedMeshGenerator", name, InputParameters.Params{
		"dim": 2, "nx": nx, "ny": ny,
		"xmin": xmin, "ymin": ymin, "xmax": xmax, "ymax": ymax,
	}}
}

func countSides(m *mesh.Mesh, id mesh.BoundaryID) (n int) {
	for _, bs := range m.BoundaryInfo().SideList() {
		if bs.ID == id {
			n++
		}
	}
	return
}

func countNamedSides(t *testing.T, m *mesh.Mesh, name string) int {
	t.Helper()
	id := m.BoundaryInfo().IDByName(name)
	require.NotEqual(t, mesh.InvalidBoundaryID, id, "boundary %q", name)
	return countSides(m, id)
}

// area sums the shoelace areas of the surface elements
func area(m *mesh.Mesh) (a float64) {
	for e := range m.Elements() {
		for i, p := range e.Nodes {
			q := e.Nodes[(i+1)%len(e.Nodes)]
			a += 0.5 * (p.X*q.Y - q.X*p.Y)
		}
	}
	return
}

// rowBlocks moves the elements whose centroid lies between ymin and ymax
// into block
type rowBlocks struct {
	Base
	input      *mesh.Handle
	ymin, ymax float64
	block      int
}

func newRowBlocks(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &rowBlocks{Base: newBase(bc, name, "RowBlocksGenerator")}
	var err error
	if g.input, err = bc.GetMesh(params, "input"); err != nil {
		return nil, err
	}
	if g.ymin, err = params.Float("ymin", 0); err != nil {
		return nil, err
	}
	if g.ymax, err = params.Float("ymax", 0); err != nil {
		return nil, err
	}
	if g.block, err = params.Int("block", 1); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *rowBlocks) Generate(context.Context) (*mesh.Mesh, error) {
	m, err := g.input.Take()
	if err != nil {
		return nil, err
	}
	for e := range m.Elements() {
		if c := e.Centroid(); c.Y > g.ymin && c.Y < g.ymax {
			e.SubdomainID = mesh.SubdomainID(g.block)
		}
	}
	return m, nil
}

// boxSurface builds the six outward facing quads of the unit cube
type boxSurface struct {
	Base
}

func newBoxSurface(bc *BuildContext, name string, _ InputParameters.Params) (Generator, error) {
	return &boxSurface{Base: newBase(bc, name, "BoxSurfaceGenerator")}, nil
}

func (g *boxSurface) Generate(context.Context) (*mesh.Mesh, error) {
	m := mesh.NewMesh(3)
	var nodes []*mesh.Node
	for _, p := range []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}} {
		nodes = append(nodes, m.AddPoint(p))
	}
	for _, f := range [][4]int{{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4}, {3, 7, 6, 2}, {0, 4, 7, 3}, {1, 2, 6, 5}} {
		m.AddElem(mesh.Quad, nodes[f[0]], nodes[f[1]], nodes[f[2]], nodes[f[3]])
	}
	m.PrepareForUse()
	return m, nil
}

func init() {
	Register("RowBlocksGenerator", newRowBlocks)
	Register("BoxSurfaceGenerator", newBoxSurface)
}
