package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoundaryNormalsProperty is published by SideSetsFromNormalsGenerator, it
// maps each new boundary id to the normal it was flooded with
const BoundaryNormalsProperty = "boundary_normals"

// SideSetsFromNormalsGenerator floods a side set from every external side
// aligned with one of the given normals
type SideSetsFromNormalsGenerator struct {
	SideSetsGeneratorBase
	normalsList     []r3.Vec
	boundaryNormals *map[mesh.BoundaryID]r3.Vec
}

func NewSideSetsFromNormalsGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	base, err := newSideSetsGeneratorBase(bc, name, "SideSetsFromNormalsGenerator", params,
		sideSetDefaults{externalOnly: true, normalTol: 0.1})
	if err != nil {
		return nil, err
	}
	g := &SideSetsFromNormalsGenerator{SideSetsGeneratorBase: base}
	if err = params.Required("normals"); err != nil {
		return nil, g.check(err)
	}
	if g.useNormal {
		return nil, g.paramErrorf("normal", "give one entry per boundary in normals instead")
	}
	normals, err := readVecs(params, "normals")
	if err != nil {
		return nil, g.check(err)
	}
	if len(normals) != len(g.boundaryNames) {
		return nil, g.paramErrorf("normals", "%d normals given for %d boundaries", len(normals), len(g.boundaryNames))
	}
	for _, n := range normals {
		u, err := g.unitVec("normals", n)
		if err != nil {
			return nil, err
		}
		g.normalsList = append(g.normalsList, u)
	}
	if g.boundaryNormals, err = DeclareProperty(g.properties(), name, BoundaryNormalsProperty,
		map[mesh.BoundaryID]r3.Vec{}); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *SideSetsFromNormalsGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	m, err := g.takeInput()
	if err != nil {
		return nil, err
	}
	defer g.finalize()
	if err = g.setup(ctx, m); err != nil {
		return nil, err
	}
	normals := make(map[mesh.BoundaryID]r3.Vec, len(g.boundaryIDs))
	for i, id := range g.boundaryIDs {
		want := g.normalsList[i]
		for e := range m.Elements() {
			for side := 0; side < e.NSides(); side++ {
				if e.Neighbor(side) != nil {
					continue
				}
				if fn, ok := g.sideNormal(e, side); ok && meshutils.NormalsWithinTol(want, fn, g.normalTol) {
					g.flood(m, e, want, id)
				}
			}
		}
		normals[id] = want
	}
	*g.boundaryNormals = normals
	if err = g.syncBoundaryIDs(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
