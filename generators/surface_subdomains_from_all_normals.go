package generators

import (
	"context"
	"fmt"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
	"gonum.org/v1/gonum/spatial/r3"
)

// SubdomainNormalsProperty maps each subdomain created by
// SurfaceSubdomainsFromAllNormalsGenerator to its seed normal
const SubdomainNormalsProperty = "subdomain_normals"

// SurfaceSubdomainsFromAllNormalsGenerator splits a surface mesh into one
// subdomain per patch of similar normals. Patches are seeded in element
// order from the first element not yet painted.
type SurfaceSubdomainsFromAllNormalsGenerator struct {
	SubdomainsGeneratorBase
	namePrefix       string
	subdomainNormals *map[mesh.SubdomainID]r3.Vec
}

func NewSurfaceSubdomainsFromAllNormalsGenerator(bc *BuildContext, name string,
	params InputParameters.Params) (Generator, error) {
	base, err := newSubdomainsGeneratorBase(bc, name, "SurfaceSubdomainsFromAllNormalsGenerator", params)
	if err != nil {
		return nil, err
	}
	g := &SurfaceSubdomainsFromAllNormalsGenerator{SubdomainsGeneratorBase: base}
	if g.namePrefix, err = params.String("new_subdomain_prefix", ""); err != nil {
		return nil, g.check(err)
	}
	if len(g.maxDistances) > 1 {
		return nil, g.paramErrorf("max_centroid_distance", "a single distance applies to every new subdomain")
	}
	if g.subdomainNormals, err = DeclareProperty(g.properties(), name, SubdomainNormalsProperty,
		map[mesh.SubdomainID]r3.Vec{}); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *SurfaceSubdomainsFromAllNormalsGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	m, err := g.takeInput()
	if err != nil {
		return nil, err
	}
	if !m.IsSerial() {
		return nil, g.meshErrorf("painting all normals needs a serial mesh")
	}
	defer g.finalize()
	if err = g.setup(m); err != nil {
		return nil, err
	}

	var (
		next    = meshutils.NextFreeSubdomainID(m)
		normals = make(map[mesh.SubdomainID]r3.Vec)
		seeds   []*mesh.Elem
	)
	for e := range m.Elements() {
		seeds = append(seeds, e)
	}
	for _, e := range seeds {
		if _, painted := g.acquired[e]; painted {
			continue
		}
		if len(g.includedSubdomains) > 0 && !meshutils.ElementSubdomainIDInList(e, g.includedSubdomains) {
			continue
		}
		if e.Dim() != 2 {
			return nil, g.meshErrorf("element %d is a %s, only surface elements can be painted by normal", e.ID, e.Type)
		}
		normal, ok := g.elemNormal(ctx, e)
		if !ok {
			continue
		}
		id := next
		if err = g.setMaxDistance(id, 0, 1); err != nil {
			return nil, err
		}
		if err = g.flood(ctx, m, e, normal, id); err != nil {
			return nil, err
		}
		next++
		normals[id] = normal
		if g.namePrefix != "" {
			m.SetSubdomainName(id, fmt.Sprintf("%s%d", g.namePrefix, len(normals)-1))
		}
	}
	*g.subdomainNormals = normals
	return m, nil
}
