package generators

import (
	"context"
	"fmt"
	"math"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/ctxlog"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
	"gonum.org/v1/gonum/spatial/r3"
)

// SubdomainsGeneratorBase floods surface elements into new subdomains by
// comparing element normals
type SubdomainsGeneratorBase struct {
	Base
	input *mesh.Handle

	fixedNormal                 bool
	normalTol                   float64
	includedSubdomainNames      []string
	allowNormalFlips            bool
	flippedNormalTol            float64
	floodElementsOnce           bool
	checkPaintedNeighborNormals bool
	maxDistances                []float64

	// Resolved in setup
	includedSubdomains []mesh.SubdomainID
	visited            map[mesh.SubdomainID]map[*mesh.Elem]struct{}
	acquired           map[*mesh.Elem]struct{}
	maxDist2           map[mesh.SubdomainID]float64
	warned             map[*mesh.Elem]bool
	normals            *normalCache
}

func newSubdomainsGeneratorBase(bc *BuildContext, name, typeName string,
	params InputParameters.Params) (g SubdomainsGeneratorBase, err error) {
	g.Base = newBase(bc, name, typeName)
	if g.input, err = bc.GetMesh(params, "input"); err != nil {
		return
	}
	if g.fixedNormal, err = params.Bool("fixed_normal", false); err != nil {
		return g, g.check(err)
	}
	if g.normalTol, err = params.Float("normal_tol", 0.1); err != nil {
		return g, g.check(err)
	}
	if g.normalTol < 0 || g.normalTol > 2 {
		return g, g.paramErrorf("normal_tol", "must lie in [0, 2], got %g", g.normalTol)
	}
	if g.includedSubdomainNames, err = params.Strings("included_subdomains"); err != nil {
		return g, g.check(err)
	}
	if g.allowNormalFlips, err = params.Bool("allow_normal_flips", false); err != nil {
		return g, g.check(err)
	}
	if g.flippedNormalTol, err = params.Float("flipped_normal_tol", g.normalTol); err != nil {
		return g, g.check(err)
	}
	if params.Has("flipped_normal_tol") && !g.allowNormalFlips {
		return g, g.paramErrorf("flipped_normal_tol", "only used with allow_normal_flips")
	}
	if g.floodElementsOnce, err = params.Bool("flood_elements_once", false); err != nil {
		return g, g.check(err)
	}
	if g.checkPaintedNeighborNormals, err = params.Bool("check_painted_neighbor_normals", false); err != nil {
		return g, g.check(err)
	}
	if g.maxDistances, err = params.Floats("max_centroid_distance"); err != nil {
		return g, g.check(err)
	}
	for _, d := range g.maxDistances {
		if d < 0 {
			return g, g.paramErrorf("max_centroid_distance", "distances must not be negative, got %g", d)
		}
	}
	return g, nil
}

func (g *SubdomainsGeneratorBase) setup(m *mesh.Mesh) (err error) {
	g.visited = make(map[mesh.SubdomainID]map[*mesh.Elem]struct{})
	g.acquired = make(map[*mesh.Elem]struct{})
	g.maxDist2 = make(map[mesh.SubdomainID]float64)
	g.warned = make(map[*mesh.Elem]bool)
	g.normals = newNormalCache()
	if g.includedSubdomains, err = meshutils.GetSubdomainIDs(m, g.includedSubdomainNames); err != nil {
		return g.paramErrorf("included_subdomains", "%v", err)
	}
	return nil
}

func (g *SubdomainsGeneratorBase) finalize() {
	g.visited, g.acquired, g.maxDist2, g.warned = nil, nil, nil, nil
	g.normals = nil
}

// setMaxDistance records the centroid distance limit of the k-th new
// subdomain. A single value applies to all of them, zero means unbounded.
func (g *SubdomainsGeneratorBase) setMaxDistance(id mesh.SubdomainID, k, nNew int) error {
	var d float64
	switch len(g.maxDistances) {
	case 0:
	case 1:
		d = g.maxDistances[0]
	case nNew:
		d = g.maxDistances[k]
	default:
		return g.paramErrorf("max_centroid_distance", "expected 1 or %d values, got %d", nNew, len(g.maxDistances))
	}
	if d == 0 {
		g.maxDist2[id] = math.MaxFloat64
	} else {
		g.maxDist2[id] = d * d
	}
	return nil
}

// elemNormal returns the normal of a surface element, a degenerate element
// is reported once and skipped
func (g *SubdomainsGeneratorBase) elemNormal(ctx context.Context, e *mesh.Elem) (r3.Vec, bool) {
	n, ok := g.normals.elem(e)
	if !ok && !g.warned[e] {
		g.warned[e] = true
		ctxlog.FromContext(ctx).Warn("skipping degenerate element", "element", e.ID, "type", e.Type.String())
	}
	return n, ok
}

// flood moves every element reachable from seed whose normal stays within
// tolerance of the running normal into subdomain id
func (g *SubdomainsGeneratorBase) flood(ctx context.Context, m *mesh.Mesh, seed *mesh.Elem, normal r3.Vec,
	id mesh.SubdomainID) error {
	var (
		bi     = m.BoundaryInfo()
		stack  = []floodItem{{seed, normal}}
		origin = seed.Centroid()
	)
	maxDist2, ok := g.maxDist2[id]
	if !ok {
		maxDist2 = math.MaxFloat64
	}
	if g.visited[id] == nil {
		g.visited[id] = make(map[*mesh.Elem]struct{})
	}
	visited := g.visited[id]
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := it.e
		if e == nil || e.IsRemote() {
			continue
		}
		if _, done := visited[e]; done {
			continue
		}
		visited[e] = struct{}{}
		if len(g.includedSubdomains) > 0 && !meshutils.ElementSubdomainIDInList(e, g.includedSubdomains) {
			continue
		}
		if _, taken := g.acquired[e]; taken && g.floodElementsOnce {
			continue
		}
		if e.Dim() != 2 {
			return g.meshErrorf("element %d is a %s, only surface elements can be painted by normal", e.ID, e.Type)
		}
		elemNormal, ok := g.elemNormal(ctx, e)
		if !ok {
			continue
		}
		if !meshutils.WithinDistance(e.Centroid(), origin, maxDist2) {
			continue
		}

		var (
			accept = meshutils.NormalsWithinTol(it.normal, elemNormal, g.normalTol)
			flip   bool
		)
		if !accept && g.allowNormalFlips &&
			meshutils.NormalsWithinTol(it.normal, r3.Scale(-1, elemNormal), g.flippedNormalTol) {
			accept, flip = true, true
		}
		if !accept && g.checkPaintedNeighborNormals {
			accept = g.paintedNeighborAgrees(ctx, e, elemNormal, id)
		}
		if !accept {
			continue
		}

		e.SubdomainID = id
		if flip {
			if err := e.Flip(bi); err != nil {
				return fmt.Errorf("%s: %w", g.name, err)
			}
			g.normals.forget(e)
			elemNormal = r3.Scale(-1, elemNormal)
		}
		g.acquired[e] = struct{}{}

		next := elemNormal
		if g.fixedNormal {
			next = it.normal
		}
		for nb := e.NSides() - 1; nb >= 0; nb-- {
			stack = append(stack, floodItem{e.Neighbor(nb), next})
		}
	}
	return nil
}

// paintedNeighborAgrees accepts an element whose normal matches a neighbor
// already painted into id, which lets a flood with a fixed normal follow a
// gently curving surface
func (g *SubdomainsGeneratorBase) paintedNeighborAgrees(ctx context.Context, e *mesh.Elem, normal r3.Vec,
	id mesh.SubdomainID) bool {
	for side := 0; side < e.NSides(); side++ {
		nbr := e.Neighbor(side)
		if nbr == nil || nbr.IsRemote() || nbr.SubdomainID != id {
			continue
		}
		if nn, ok := g.elemNormal(ctx, nbr); ok && meshutils.NormalsWithinTol(nn, normal, g.normalTol) {
			return true
		}
	}
	return false
}

// takeInput moves the input mesh out and prepares it when needed
func (g *SubdomainsGeneratorBase) takeInput() (*mesh.Mesh, error) {
	m, err := g.input.Take()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}
	if !m.IsPrepared() {
		m.PrepareForUse()
	}
	return m, nil
}
