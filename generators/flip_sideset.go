package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
)

// FlipSidesetGenerator moves every side of a boundary onto the neighboring
// element, which reverses the boundary normal
type FlipSidesetGenerator struct {
	Base
	input    *mesh.Handle
	boundary string
}

func NewFlipSidesetGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &FlipSidesetGenerator{Base: newBase(bc, name, "FlipSidesetGenerator")}
	var err error
	if g.input, err = bc.GetMesh(params, "input"); err != nil {
		return nil, err
	}
	if err = params.Required("boundary"); err != nil {
		return nil, g.check(err)
	}
	if g.boundary, err = params.String("boundary", ""); err != nil {
		return nil, g.check(err)
	}
	return g, nil
}

func (g *FlipSidesetGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	m, err := g.input.Take()
	if err != nil {
		return nil, err
	}
	if !m.IsPrepared() {
		m.PrepareForUse()
	}
	var (
		bi = m.BoundaryInfo()
		id = meshutils.GetBoundaryID(m, g.boundary)
	)
	if id == mesh.InvalidBoundaryID || !bi.HasID(id) {
		return nil, g.paramErrorf("boundary", "boundary %q not found in the mesh", g.boundary)
	}

	type move struct {
		from, to       *mesh.Elem
		fromSide, side int
	}
	var moves []move
	for _, bs := range bi.SideList() {
		if bs.ID != id {
			continue
		}
		nbr := bs.Elem.Neighbor(bs.Side)
		switch {
		case nbr == nil:
			return nil, g.meshErrorf("side %d of element %d on boundary %q has no neighbor to flip onto",
				bs.Side, bs.Elem.ID, g.boundary)
		case nbr.IsRemote():
			return nil, g.meshErrorf("side %d of element %d on boundary %q faces an element of another rank",
				bs.Side, bs.Elem.ID, g.boundary)
		}
		ns := nbr.SideWithNeighbor(bs.Elem)
		if ns < 0 {
			return nil, g.meshErrorf("element %d does not link back to element %d", nbr.ID, bs.Elem.ID)
		}
		moves = append(moves, move{from: bs.Elem, fromSide: bs.Side, to: nbr, side: ns})
	}
	for _, mv := range moves {
		bi.RemoveSide(mv.from, mv.fromSide, id)
	}
	for _, mv := range moves {
		bi.AddSide(mv.to, mv.side, id)
	}
	return m, nil
}
