package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// SideSetsFromPointsGenerator floods a side set from the external side
// nearest to each point
type SideSetsFromPointsGenerator struct {
	SideSetsGeneratorBase
	points []r3.Vec
}

func NewSideSetsFromPointsGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	base, err := newSideSetsGeneratorBase(bc, name, "SideSetsFromPointsGenerator", params,
		sideSetDefaults{externalOnly: true, normalTol: 0.1})
	if err != nil {
		return nil, err
	}
	g := &SideSetsFromPointsGenerator{SideSetsGeneratorBase: base}
	if err = params.Required("points"); err != nil {
		return nil, g.check(err)
	}
	if g.points, err = readVecs(params, "points"); err != nil {
		return nil, g.check(err)
	}
	if len(g.points) != len(g.boundaryNames) {
		return nil, g.paramErrorf("points", "%d points given for %d boundaries", len(g.points), len(g.boundaryNames))
	}
	return g, nil
}

func (g *SideSetsFromPointsGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	m, err := g.takeInput()
	if err != nil {
		return nil, err
	}
	defer g.finalize()
	if err = g.setup(ctx, m); err != nil {
		return nil, err
	}
	for i, p := range g.points {
		e := locateElement(m, p)
		if e == nil {
			if m.IsSerial() {
				return nil, g.paramErrorf("points", "point %v is outside the mesh", p)
			}
			// the rank holding the point does the flood
			continue
		}
		side := nearestExternalSide(e, p)
		if side < 0 {
			return nil, g.meshErrorf("element %d holding point %v has no external side", e.ID, p)
		}
		normal, ok := g.sideNormal(e, side)
		if !ok {
			return nil, g.meshErrorf("side %d of element %d is degenerate", side, e.ID)
		}
		g.flood(m, e, normal, g.boundaryIDs[i])
	}
	if err = g.syncBoundaryIDs(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
