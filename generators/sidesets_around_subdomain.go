package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
)

// SideSetsAroundSubdomainGenerator adds the sides enclosing a set of
// subdomains, optionally restricted to one normal direction
type SideSetsAroundSubdomainGenerator struct {
	SideSetsGeneratorBase
	blockNames []string
}

func NewSideSetsAroundSubdomainGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	base, err := newSideSetsGeneratorBase(bc, name, "SideSetsAroundSubdomainGenerator", params,
		sideSetDefaults{normalTol: 0.1})
	if err != nil {
		return nil, err
	}
	g := &SideSetsAroundSubdomainGenerator{SideSetsGeneratorBase: base}
	if err = params.Required("block"); err != nil {
		return nil, g.check(err)
	}
	if g.blockNames, err = params.Strings("block"); err != nil {
		return nil, g.check(err)
	}
	return g, nil
}

func (g *SideSetsAroundSubdomainGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	m, err := g.takeInput()
	if err != nil {
		return nil, err
	}
	defer g.finalize()
	if err = g.setup(ctx, m); err != nil {
		return nil, err
	}
	blocks, err := meshutils.GetSubdomainIDs(m, g.blockNames)
	if err != nil {
		return nil, g.paramErrorf("block", "%v", err)
	}

	bi := m.BoundaryInfo()
	test := func(e *mesh.Elem, side int) bool {
		if !meshutils.ElementSubdomainIDInList(e, blocks) {
			return false
		}
		if nbr := e.Neighbor(side); nbr != nil && meshutils.ElementSubdomainIDInList(nbr, blocks) {
			return false
		}
		fn, ok := g.sideNormal(e, side)
		if !ok {
			return false
		}
		desired := fn
		if g.useNormal {
			desired = g.normal
		}
		return g.elemSideSatisfiesRequirements(e, side, bi, desired, fn)
	}
	if err = g.applySides(ctx, m, test, g.addAll(bi)); err != nil {
		return nil, err
	}
	return m, nil
}

// addAll applies every new boundary id to a side
func (g *SideSetsGeneratorBase) addAll(bi *mesh.BoundaryInfo) sideApply {
	return func(e *mesh.Elem, side int) {
		if g.replace {
			bi.RemoveSideIDs(e, side)
		}
		for _, id := range g.boundaryIDs {
			bi.AddSide(e, side, id)
		}
	}
}
