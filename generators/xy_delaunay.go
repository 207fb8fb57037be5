package generators

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
	"github.com/pradeep-pyro/triangle"
	"gonum.org/v1/gonum/spatial/r3"
)

// XYDelaunayGenerator fills the outer loop of a boundary mesh with TRI3
// elements through a constrained Delaunay triangulation. Hole meshes cut
// holes into the fill and, when stitched, are welded back into the result.
type XYDelaunayGenerator struct {
	Base
	boundary      *mesh.Handle
	holes         []*mesh.Handle
	stitchHoles   []bool
	segmentNodes  int
	interior      []r3.Vec
	subdomainID   mesh.SubdomainID
	subdomainName string
	outerName     string
	holeNames     []string
	stitch        stitchSettings
}

func NewXYDelaunayGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &XYDelaunayGenerator{Base: newBase(bc, name, "XYDelaunayGenerator")}
	var err error
	if g.boundary, err = bc.GetMesh(params, "boundary"); err != nil {
		return nil, err
	}
	if params.Has("holes") {
		if g.holes, err = bc.GetMeshes(params, "holes"); err != nil {
			return nil, err
		}
	}
	if g.stitchHoles, err = params.Bools("stitch_holes"); err != nil {
		return nil, g.check(err)
	}
	switch {
	case g.stitchHoles == nil:
		g.stitchHoles = make([]bool, len(g.holes))
	case len(g.stitchHoles) != len(g.holes):
		return nil, g.paramErrorf("stitch_holes", "%d entries given for %d holes", len(g.stitchHoles), len(g.holes))
	}
	if g.segmentNodes, err = params.Int("add_nodes_per_boundary_segment", 0); err != nil {
		return nil, g.check(err)
	}
	if g.segmentNodes < 0 {
		return nil, g.paramErrorf("add_nodes_per_boundary_segment", "must not be negative")
	}
	if g.interior, err = readVecs(params, "interior_points"); err != nil {
		return nil, g.check(err)
	}
	id, err := params.Int("output_subdomain_id", 0)
	if err != nil {
		return nil, g.check(err)
	}
	g.subdomainID = mesh.SubdomainID(id)
	if g.subdomainName, err = params.String("output_subdomain_name", ""); err != nil {
		return nil, g.check(err)
	}
	if g.outerName, err = params.String("output_boundary", ""); err != nil {
		return nil, g.check(err)
	}
	if g.holeNames, err = params.Strings("hole_boundaries"); err != nil {
		return nil, g.check(err)
	}
	if len(g.holeNames) > 0 && len(g.holeNames) != len(g.holes) {
		return nil, g.paramErrorf("hole_boundaries", "%d names given for %d holes", len(g.holeNames), len(g.holes))
	}
	if g.stitch, err = readStitchSettings(&g.Base, params, true); err != nil {
		return nil, err
	}
	g.stitch.opts.ClearStitchedIDs = true
	return g, nil
}

// loopOf returns the outer loop of the boundary of m
func (g *XYDelaunayGenerator) loopOf(m *mesh.Mesh, param string) ([]*mesh.Node, error) {
	loops, err := meshutils.MakeOrderedNodeList(meshutils.BoundaryEdges(m))
	if err != nil {
		return nil, g.paramErrorf(param, "%v", err)
	}
	outer, _ := meshutils.OuterLoop(loops)
	if len(outer) < 3 {
		return nil, g.paramErrorf(param, "the boundary does not enclose an area")
	}
	return outer, nil
}

func (g *XYDelaunayGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	bm, err := g.boundary.Take()
	if err != nil {
		return nil, err
	}
	holes, err := takeAll(g.holes)
	if err != nil {
		return nil, err
	}
	if err = g.requireSerial(append(holes, bm)...); err != nil {
		return nil, err
	}
	if !bm.IsPrepared() {
		bm.PrepareForUse()
	}

	var (
		pts      [][2]float64
		segs     [][2]int32
		holePts  [][2]float64
		loopOfPt []int // loop index of every input point, -1 for interior points
	)
	addLoop := func(loop []*mesh.Node, refine, tag int) {
		first := int32(len(pts))
		for i, p := range loop {
			q := loop[(i+1)%len(loop)]
			pts = append(pts, [2]float64{p.X, p.Y})
			loopOfPt = append(loopOfPt, tag)
			for k := 1; k <= refine; k++ {
				t := float64(k) / float64(refine+1)
				pts = append(pts, [2]float64{p.X + t*(q.X-p.X), p.Y + t*(q.Y-p.Y)})
				loopOfPt = append(loopOfPt, tag)
			}
		}
		last := int32(len(pts)) - 1
		for i := first; i < last; i++ {
			segs = append(segs, [2]int32{i, i + 1})
		}
		segs = append(segs, [2]int32{last, first})
	}

	outer, err := g.loopOf(bm, "boundary")
	if err != nil {
		return nil, err
	}
	addLoop(outer, g.segmentNodes, 0)
	holeLoops := make([][]*mesh.Node, len(holes))
	for k, hm := range holes {
		if !hm.IsPrepared() {
			hm.PrepareForUse()
		}
		if holeLoops[k], err = g.loopOf(hm, "holes"); err != nil {
			return nil, err
		}
		refine := g.segmentNodes
		if g.stitchHoles[k] {
			// stitched holes keep their nodes so they can be welded back
			refine = 0
		}
		addLoop(holeLoops[k], refine, k+1)
		holePts = append(holePts, interiorPoint(hm, holeLoops[k]))
	}
	for _, p := range g.interior {
		pts = append(pts, [2]float64{p.X, p.Y})
		loopOfPt = append(loopOfPt, -1)
	}

	if len(holePts) == 0 {
		// Triangle reads the hole list unconditionally, a seed outside the
		// bounds of the input is ignored
		holePts = append(holePts, outsidePoint(pts))
	}
	verts, faces := triangle.ConstrainedDelaunay(pts, segs, holePts)
	if len(faces) == 0 {
		return nil, g.meshErrorf("triangulation produced no elements")
	}

	m := mesh.NewMesh(2)
	var (
		nodes  = make([]*mesh.Node, len(verts))
		onLoop = make(map[*mesh.Node]int, len(verts))
	)
	for i, v := range verts {
		nodes[i] = m.AddPoint(r3.Vec{X: v[0], Y: v[1]})
		onLoop[nodes[i]] = -1
		// Triangle keeps the input points first and in order
		if i < len(loopOfPt) {
			onLoop[nodes[i]] = loopOfPt[i]
		}
	}
	for _, f := range faces {
		a, b, c := nodes[f[0]], nodes[f[1]], nodes[f[2]]
		if (b.X-a.X)*(c.Y-a.Y)-(c.X-a.X)*(b.Y-a.Y) < 0 {
			b, c = c, b
		}
		m.AddElem(mesh.Triangle, a, b, c).SubdomainID = g.subdomainID
	}
	if g.subdomainName != "" {
		m.SetSubdomainName(g.subdomainID, g.subdomainName)
	}
	m.PrepareForUse()

	// Boundary ids are assigned above every id of the stitched holes first,
	// then moved down to 0 for the outer loop and k+1 for hole k where free
	temp := mesh.BoundaryID(0)
	for k, hm := range holes {
		if g.stitchHoles[k] {
			if next := meshutils.NextFreeBoundaryID(hm); next > temp {
				temp = next
			}
		}
	}
	loopID := func(tag int) mesh.BoundaryID { return temp + mesh.BoundaryID(tag) }
	bi := m.BoundaryInfo()
	for e := range m.Elements() {
		for s := 0; s < e.NSides(); s++ {
			if e.Neighbor(s) != nil {
				continue
			}
			sn := e.SideNodes(s)
			if ta, tb := onLoop[sn[0]], onLoop[sn[1]]; ta == tb && ta >= 0 {
				bi.AddSide(e, s, loopID(ta))
			}
		}
	}

	for k, hm := range holes {
		if !g.stitchHoles[k] {
			continue
		}
		holeSide := loopID(len(holes) + 1 + k)
		if err = markLoopSides(hm, holeLoops[k], holeSide); err != nil {
			return nil, g.paramErrorf("stitch_holes", "hole %d: %v", k, err)
		}
		if _, err = m.StitchMeshes(hm, loopID(k+1), holeSide, g.stitch.opts); err != nil {
			var nce *mesh.NameConflictError
			if errors.As(err, &nce) {
				return nil, g.paramErrorf("holes", "%v", nce)
			}
			return nil, g.meshErrorf("stitching hole %d: %v", k, err)
		}
	}

	perm := make(map[mesh.BoundaryID]mesh.BoundaryID)
	names := make(map[mesh.BoundaryID]string)
	for tag := 0; tag <= len(holes); tag++ {
		from, to := loopID(tag), mesh.BoundaryID(tag)
		if tag > 0 && g.stitchHoles[tag-1] {
			continue
		}
		if from != to && !bi.HasID(to) && bi.SidesetName(to) == "" {
			perm[from] = to
		} else {
			to = from
		}
		switch {
		case tag == 0:
			names[to] = g.outerName
		case len(g.holeNames) > 0:
			names[to] = g.holeNames[tag-1]
		}
	}
	if _, err = meshutils.PermuteBoundaryIDs(m, perm); err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}
	for id, name := range names {
		if name != "" {
			bi.SetSidesetName(id, name)
		}
	}
	return m, nil
}

// markLoopSides adds id to the external sides of m lying on loop
func markLoopSides(m *mesh.Mesh, loop []*mesh.Node, id mesh.BoundaryID) error {
	on := make(map[*mesh.Node]bool, len(loop))
	for _, n := range loop {
		on[n] = true
	}
	found := false
	for e := range m.Elements() {
		if e.Dim() != 2 {
			return fmt.Errorf("only meshes of surface elements can be stitched, found a %s", e.Type)
		}
		for s := 0; s < e.NSides(); s++ {
			sn := e.SideNodes(s)
			if e.Neighbor(s) == nil && on[sn[0]] && on[sn[1]] {
				m.BoundaryInfo().AddSide(e, s, id)
				found = true
			}
		}
	}
	if !found {
		return fmt.Errorf("no element side lies on the hole boundary")
	}
	return nil
}

// outsidePoint returns a point below and left of the bounding box of pts
func outsidePoint(pts [][2]float64) [2]float64 {
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo[0], lo[1] = math.Min(lo[0], p[0]), math.Min(lo[1], p[1])
		hi[0], hi[1] = math.Max(hi[0], p[0]), math.Max(hi[1], p[1])
	}
	span := math.Max(hi[0]-lo[0], hi[1]-lo[1]) + 1
	return [2]float64{lo[0] - span, lo[1] - span}
}

// interiorPoint returns a point inside a hole, the centroid of its first
// element when it has area elements, else the centroid of its loop
func interiorPoint(m *mesh.Mesh, loop []*mesh.Node) [2]float64 {
	for e := range m.Elements() {
		if e.Dim() == 2 {
			c := e.Centroid()
			return [2]float64{c.X, c.Y}
		}
	}
	var (
		area = meshutils.SignedArea(loop)
		cx   float64
		cy   float64
	)
	for i, p := range loop {
		q := loop[(i+1)%len(loop)]
		cross := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	return [2]float64{cx / (6 * area), cy / (6 * area)}
}
