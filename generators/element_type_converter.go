package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
)

// ElementTypeConverterGenerator splits QUAD4 elements into two TRI3 along
// the diagonal from their first node
type ElementTypeConverterGenerator struct {
	Base
	input          *mesh.Handle
	blockNames     []string
	triSubdomainID mesh.SubdomainID
	setTriID       bool
	triName        string
}

func NewElementTypeConverterGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &ElementTypeConverterGenerator{Base: newBase(bc, name, "ElementTypeConverterGenerator")}
	var err error
	if g.input, err = bc.GetMesh(params, "input"); err != nil {
		return nil, err
	}
	// TRI3 is the only conversion so far
	if _, err = params.OneOf("target_type", "TRI3", "TRI3"); err != nil {
		return nil, g.check(err)
	}
	if g.blockNames, err = params.Strings("block"); err != nil {
		return nil, g.check(err)
	}
	if g.setTriID = params.Has("tri_subdomain_id"); g.setTriID {
		id, err := params.Int("tri_subdomain_id", 0)
		if err != nil {
			return nil, g.check(err)
		}
		g.triSubdomainID = mesh.SubdomainID(id)
	}
	if g.triName, err = params.String("tri_subdomain_name", ""); err != nil {
		return nil, g.check(err)
	}
	if g.triName != "" && !g.setTriID {
		return nil, g.paramErrorf("tri_subdomain_name", "needs tri_subdomain_id")
	}
	return g, nil
}

// quadSplit maps the sides of a quad onto (triangle, side) of its two
// halves, the first triangle is (0,1,2) and the second (0,2,3)
var quadSplit = [4][2]int{{0, 0}, {0, 1}, {1, 1}, {1, 2}}

func (g *ElementTypeConverterGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	m, err := g.input.Take()
	if err != nil {
		return nil, err
	}
	if !m.IsSerial() {
		return nil, g.meshErrorf("element conversion needs a serial mesh")
	}
	blocks, err := meshutils.GetSubdomainIDs(m, g.blockNames)
	if err != nil {
		return nil, g.paramErrorf("block", "%v", err)
	}
	convert := func(e *mesh.Elem) bool {
		return e.Type == mesh.Quad && (len(blocks) == 0 || meshutils.ElementSubdomainIDInList(e, blocks))
	}
	var quads []*mesh.Elem
	for e := range m.Elements() {
		if convert(e) {
			quads = append(quads, e)
		} else if g.setTriID && e.Type == mesh.Quad && e.SubdomainID == g.triSubdomainID {
			return nil, g.paramErrorf("tri_subdomain_id", "quad and tri subdomain ids must differ, %d is kept by quads", g.triSubdomainID)
		}
	}

	bi := m.BoundaryInfo()
	for _, q := range quads {
		n := q.Nodes
		tris := [2]*mesh.Elem{
			m.AddElem(mesh.Triangle, n[0], n[1], n[2]),
			m.AddElem(mesh.Triangle, n[0], n[2], n[3]),
		}
		for _, t := range tris {
			t.SubdomainID = q.SubdomainID
			if g.setTriID {
				t.SubdomainID = g.triSubdomainID
			}
		}
		for side, half := range quadSplit {
			for _, id := range bi.SideBoundaryIDs(q, side) {
				bi.AddSide(tris[half[0]], half[1], id)
			}
		}
		m.DeleteElem(q)
	}
	if g.triName != "" {
		m.SetSubdomainName(g.triSubdomainID, g.triName)
	}
	m.PrepareForUse()
	return m, nil
}
