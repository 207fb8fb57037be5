package generators

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/ctxlog"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
	"gonum.org/v1/gonum/spatial/r3"
)

// sideSetDefaults are the parameter defaults that differ between the side
// set generators
type sideSetDefaults struct {
	fixedNormal  bool
	externalOnly bool
	normalTol    float64
}

// SideSetsGeneratorBase holds the side filters and the flood fill shared by
// the generators that add side sets
type SideSetsGeneratorBase struct {
	Base
	input *mesh.Handle

	boundaryNames            []string
	fixedNormal              bool
	replace                  bool
	includeOnlyExternalSides bool
	includedSubdomainNames   []string
	includedBoundaryNames    []string
	excludedBoundaryNames    []string
	includedNeighborNames    []string
	normal                   r3.Vec
	useNormal                bool
	normalTol                float64

	// Resolved against the mesh in setup
	boundaryIDs        []mesh.BoundaryID
	includedSubdomains []mesh.SubdomainID
	includedBoundaries []mesh.BoundaryID
	excludedBoundaries []mesh.BoundaryID
	includedNeighbors  []mesh.SubdomainID
	// visited is kept per target id so that flooding one id never blocks
	// another
	visited map[mesh.BoundaryID]map[*mesh.Elem]struct{}
	normals *normalCache
	warned  map[*mesh.Elem]bool
	log     *slog.Logger
}

func newSideSetsGeneratorBase(bc *BuildContext, name, typeName string, params InputParameters.Params,
	def sideSetDefaults) (g SideSetsGeneratorBase, err error) {
	g.Base = newBase(bc, name, typeName)
	if g.input, err = bc.GetMesh(params, "input"); err != nil {
		return
	}
	if g.boundaryNames, err = params.Strings("new_boundary"); err != nil {
		return g, g.check(err)
	}
	if len(g.boundaryNames) == 0 {
		return g, g.paramErrorf("new_boundary", "at least one boundary name is required")
	}
	if g.fixedNormal, err = params.Bool("fixed_normal", def.fixedNormal); err != nil {
		return g, g.check(err)
	}
	if g.replace, err = params.Bool("replace", false); err != nil {
		return g, g.check(err)
	}
	if g.includeOnlyExternalSides, err = params.Bool("include_only_external_sides", def.externalOnly); err != nil {
		return g, g.check(err)
	}
	for param, dst := range map[string]*[]string{
		"included_subdomains": &g.includedSubdomainNames,
		"included_boundaries": &g.includedBoundaryNames,
		"excluded_boundaries": &g.excludedBoundaryNames,
		"included_neighbors":  &g.includedNeighborNames,
	} {
		if *dst, err = params.Strings(param); err != nil {
			return g, g.check(err)
		}
	}
	var v r3.Vec
	if v, g.useNormal, err = readVec(params, "normal"); err != nil {
		return g, g.check(err)
	}
	if g.useNormal {
		if g.normal, err = g.unitVec("normal", v); err != nil {
			return
		}
	}
	if g.normalTol, err = params.Float("normal_tol", def.normalTol); err != nil {
		return g, g.check(err)
	}
	if g.normalTol < 0 || g.normalTol > 2 {
		return g, g.paramErrorf("normal_tol", "must lie in [0, 2], got %g", g.normalTol)
	}

	for _, in := range g.includedBoundaryNames {
		for _, ex := range g.excludedBoundaryNames {
			if in == ex {
				return g, g.paramErrorf("excluded_boundaries", "boundary %q is both included and excluded", in)
			}
		}
	}
	if g.includeOnlyExternalSides && len(g.includedNeighborNames) > 0 {
		return g, g.paramErrorf("included_neighbors", "external sides have no neighbors to select")
	}
	return g, nil
}

// setup resolves the names against m and allocates the per call scratch.
// finalize must follow, also on error.
func (g *SideSetsGeneratorBase) setup(ctx context.Context, m *mesh.Mesh) (err error) {
	g.visited = make(map[mesh.BoundaryID]map[*mesh.Elem]struct{})
	g.normals = newNormalCache()
	g.warned = make(map[*mesh.Elem]bool)
	g.log = ctxlog.FromContext(ctx)

	bi := m.BoundaryInfo()
	if g.boundaryIDs, err = meshutils.GetBoundaryIDs(m, g.boundaryNames, true); err != nil {
		return g.paramErrorf("new_boundary", "%v", err)
	}
	for i, id := range g.boundaryIDs {
		// a numeric new_boundary names nothing
		if _, nerr := strconv.Atoi(g.boundaryNames[i]); nerr != nil && bi.SidesetName(id) == "" {
			bi.SetSidesetName(id, g.boundaryNames[i])
		}
	}
	if g.includedSubdomains, err = meshutils.GetSubdomainIDs(m, g.includedSubdomainNames); err != nil {
		return g.paramErrorf("included_subdomains", "%v", err)
	}
	if g.includedNeighbors, err = meshutils.GetSubdomainIDs(m, g.includedNeighborNames); err != nil {
		return g.paramErrorf("included_neighbors", "%v", err)
	}
	if g.includedBoundaries, err = g.knownBoundaries(m, "included_boundaries", g.includedBoundaryNames); err != nil {
		return
	}
	g.excludedBoundaries, err = g.knownBoundaries(m, "excluded_boundaries", g.excludedBoundaryNames)
	return
}

func (g *SideSetsGeneratorBase) knownBoundaries(m *mesh.Mesh, param string, names []string) ([]mesh.BoundaryID, error) {
	ids, err := meshutils.GetBoundaryIDs(m, names, false)
	if err != nil {
		return nil, g.paramErrorf(param, "%v", err)
	}
	for i, id := range ids {
		if id == mesh.InvalidBoundaryID {
			return nil, g.paramErrorf(param, "boundary %q not found in the mesh", names[i])
		}
	}
	return ids, nil
}

func (g *SideSetsGeneratorBase) finalize() {
	g.visited, g.normals, g.warned, g.log = nil, nil, nil, nil
}

// sideNormal returns the outward normal of a side, a degenerate side is
// reported once per element and skipped
func (g *SideSetsGeneratorBase) sideNormal(e *mesh.Elem, side int) (r3.Vec, bool) {
	n, ok := g.normals.side(e, side)
	if !ok && !g.warned[e] {
		g.warned[e] = true
		g.log.Warn("skipping degenerate side", "element", e.ID, "side", side, "type", e.Type.String())
	}
	return n, ok
}

// elemSideSatisfiesRequirements applies the side filters in order: external
// only, included boundaries, excluded boundaries, neighbor subdomain and
// last the normal tolerance
func (g *SideSetsGeneratorBase) elemSideSatisfiesRequirements(e *mesh.Elem, side int, bi *mesh.BoundaryInfo,
	desiredNormal, faceNormal r3.Vec) bool {
	if g.includeOnlyExternalSides && e.Neighbor(side) != nil {
		return false
	}
	if len(g.includedBoundaries) > 0 && !meshutils.ElemSideIncludedBoundary(e, side, g.includedBoundaries, bi) {
		return false
	}
	if len(g.excludedBoundaries) > 0 && meshutils.ElemSideExcludedBoundary(e, side, g.excludedBoundaries, bi) {
		return false
	}
	if len(g.includedNeighbors) > 0 {
		nbr := e.Neighbor(side)
		if nbr == nil || nbr.IsRemote() || !meshutils.ElementSubdomainIDInList(nbr, g.includedNeighbors) {
			return false
		}
	}
	return meshutils.NormalsWithinTol(desiredNormal, faceNormal, g.normalTol)
}

// addSide records id on a side, dropping the ids it had in replace mode
func (g *SideSetsGeneratorBase) addSide(bi *mesh.BoundaryInfo, e *mesh.Elem, side int, id mesh.BoundaryID) {
	if g.replace {
		bi.RemoveSideIDs(e, side)
	}
	bi.AddSide(e, side, id)
}

type floodItem struct {
	e      *mesh.Elem
	normal r3.Vec
}

// flood adds id to every side reachable from seed whose normal stays within
// tolerance of the running normal. Each accepted side feeds all neighbors of
// its element with either the seed normal (fixed normal) or its own face
// normal. The stack is filled in reverse so elements are visited in the
// same order as a depth first recursion.
func (g *SideSetsGeneratorBase) flood(m *mesh.Mesh, seed *mesh.Elem, normal r3.Vec, id mesh.BoundaryID) {
	var (
		bi    = m.BoundaryInfo()
		stack = []floodItem{{seed, normal}}
	)
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

		var next []r3.Vec
		for side := 0; side < e.NSides(); side++ {
			faceNormal, ok := g.sideNormal(e, side)
			if !ok || !g.elemSideSatisfiesRequirements(e, side, bi, it.normal, faceNormal) {
				continue
			}
			g.addSide(bi, e, side, id)
			if g.fixedNormal {
				next = append(next, it.normal)
			} else {
				next = append(next, faceNormal)
			}
		}
		for k := len(next) - 1; k >= 0; k-- {
			for nb := e.NSides() - 1; nb >= 0; nb-- {
				stack = append(stack, floodItem{e.Neighbor(nb), next[k]})
			}
		}
	}
}

// takeInput moves the input mesh out and prepares it when needed
func (g *SideSetsGeneratorBase) takeInput() (*mesh.Mesh, error) {
	m, err := g.input.Take()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}
	if !m.IsPrepared() {
		m.PrepareForUse()
	}
	return m, nil
}
