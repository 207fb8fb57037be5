package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
)

// SideSetsBetweenSubdomainsGenerator adds the sides of the primary blocks
// that face an element of the paired blocks
type SideSetsBetweenSubdomainsGenerator struct {
	SideSetsGeneratorBase
	primaryNames, pairedNames []string
}

func NewSideSetsBetweenSubdomainsGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	base, err := newSideSetsGeneratorBase(bc, name, "SideSetsBetweenSubdomainsGenerator", params,
		sideSetDefaults{normalTol: 0.1})
	if err != nil {
		return nil, err
	}
	g := &SideSetsBetweenSubdomainsGenerator{SideSetsGeneratorBase: base}
	if err = params.Required("primary_block", "paired_block"); err != nil {
		return nil, g.check(err)
	}
	if g.primaryNames, err = params.Strings("primary_block"); err != nil {
		return nil, g.check(err)
	}
	if g.pairedNames, err = params.Strings("paired_block"); err != nil {
		return nil, g.check(err)
	}
	if g.includeOnlyExternalSides {
		return nil, g.paramErrorf("include_only_external_sides", "sides between subdomains are never external")
	}
	return g, nil
}

func (g *SideSetsBetweenSubdomainsGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	m, err := g.takeInput()
	if err != nil {
		return nil, err
	}
	defer g.finalize()
	if err = g.setup(ctx, m); err != nil {
		return nil, err
	}
	primary, err := meshutils.GetSubdomainIDs(m, g.primaryNames)
	if err != nil {
		return nil, g.paramErrorf("primary_block", "%v", err)
	}
	paired, err := meshutils.GetSubdomainIDs(m, g.pairedNames)
	if err != nil {
		return nil, g.paramErrorf("paired_block", "%v", err)
	}

	bi := m.BoundaryInfo()
	test := func(e *mesh.Elem, side int) bool {
		if !meshutils.ElementSubdomainIDInList(e, primary) {
			return false
		}
		nbr := e.Neighbor(side)
		if nbr == nil || !meshutils.ElementSubdomainIDInList(nbr, paired) {
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
