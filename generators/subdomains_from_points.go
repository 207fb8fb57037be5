package generators

import (
	"context"
	"strconv"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
	"gonum.org/v1/gonum/spatial/r3"
)

// SubdomainsFromPointsGenerator floods a new subdomain from the surface
// element holding each point
type SubdomainsFromPointsGenerator struct {
	SubdomainsGeneratorBase
	points []r3.Vec
	names  []string
}

func NewSubdomainsFromPointsGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	base, err := newSubdomainsGeneratorBase(bc, name, "SubdomainsFromPointsGenerator", params)
	if err != nil {
		return nil, err
	}
	g := &SubdomainsFromPointsGenerator{SubdomainsGeneratorBase: base}
	if err = params.Required("points", "new_subdomain"); err != nil {
		return nil, g.check(err)
	}
	if g.points, err = readVecs(params, "points"); err != nil {
		return nil, g.check(err)
	}
	if g.names, err = params.Strings("new_subdomain"); err != nil {
		return nil, g.check(err)
	}
	if len(g.points) != len(g.names) {
		return nil, g.paramErrorf("points", "%d points given for %d subdomains", len(g.points), len(g.names))
	}
	return g, nil
}

func (g *SubdomainsFromPointsGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	m, err := g.takeInput()
	if err != nil {
		return nil, err
	}
	if !m.IsSerial() {
		return nil, g.meshErrorf("painting subdomains needs a serial mesh")
	}
	defer g.finalize()
	if err = g.setup(m); err != nil {
		return nil, err
	}

	var (
		next      = meshutils.NextFreeSubdomainID(m)
		generated = make(map[string]mesh.SubdomainID)
	)
	for i, p := range g.points {
		id, known := m.SubdomainIDByName(g.names[i])
		if !known {
			if n, nerr := strconv.Atoi(g.names[i]); nerr == nil {
				id = mesh.SubdomainID(n)
			} else if id, known = generated[g.names[i]]; !known {
				id = next
				next++
				generated[g.names[i]] = id
				m.SetSubdomainName(id, g.names[i])
			}
		}
		if err = g.setMaxDistance(id, i, len(g.points)); err != nil {
			return nil, err
		}
		e := locateElement(m, p)
		if e == nil {
			return nil, g.paramErrorf("points", "point %v is outside the mesh", p)
		}
		normal, ok := g.elemNormal(ctx, e)
		if !ok {
			return nil, g.meshErrorf("element %d holding point %v is degenerate", e.ID, p)
		}
		if err = g.flood(ctx, m, e, normal, id); err != nil {
			return nil, err
		}
	}
	return m, nil
}
