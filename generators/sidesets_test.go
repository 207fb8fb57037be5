package generators

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/ctxlog"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// banded is a 4x4 grid of unit quads whose third row is block 2
func banded() []genBlock {
	return []genBlock{
		square("grid", 4, 4, 0, 0, 4, 4),
		{"RowBlocksGenerator", "band", InputParameters.Params{"input": "grid", "ymin": 2, "ymax": 3, "block": 2}},
	}
}

func TestSideSetsFromNormalsCube(t *testing.T) {
	names := []string{"xm", "xp", "ym", "yp", "zm", "zp"}
	m := runBlocks(t,
		genBlock{"GeneratedMeshGenerator", "cube", InputParameters.Params{"dim": 3, "nx": 2, "ny": 2, "nz": 2}},
		genBlock{"SideSetsFromNormalsGenerator", "faces", InputParameters.Params{
			"input": "cube",
			"normals": [][]float64{
				{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1},
			},
			"new_boundary": names,
		}},
	)
	bi := m.BoundaryInfo()
	for k, name := range names {
		id := bi.IDByName(name)
		assert.Equal(t, mesh.BoundaryID(6+k), id, name)
		assert.Equal(t, 4, countSides(m, id), name)
	}
	// The generated ids are kept
	assert.Equal(t, 4, countNamedSides(t, m, "left"))
	assert.Len(t, bi.SidesetIDs(), 12)
}

func TestSideSetsFromNormalsReplace(t *testing.T) {
	m := runBlocks(t,
		square("sq", 2, 2, 0, 0, 1, 1),
		genBlock{"SideSetsFromNormalsGenerator", "w", InputParameters.Params{
			"input": "sq", "normals": [][]float64{{-1, 0, 0}}, "new_boundary": "west", "replace": true}},
	)
	assert.Equal(t, 2, countNamedSides(t, m, "west"))
	assert.Equal(t, 0, countSides(m, 3))
	assert.Equal(t, 2, countSides(m, 0))
}

func TestSideSetsFromNormalsParams(t *testing.T) {
	cases := map[string]struct {
		params InputParameters.Params
		param  string
	}{
		"count mismatch": {InputParameters.Params{"normals": [][]float64{{1, 0, 0}}, "new_boundary": []string{"a", "b"}}, "normals"},
		"zero normal":    {InputParameters.Params{"normals": [][]float64{{0, 0, 0}}, "new_boundary": "a"}, "normals"},
		"tolerance":      {InputParameters.Params{"normals": [][]float64{{1, 0, 0}}, "new_boundary": "a", "normal_tol": 3}, "normal_tol"},
		"no boundary":    {InputParameters.Params{"normals": [][]float64{{1, 0, 0}}}, "new_boundary"},
		"single normal":  {InputParameters.Params{"normals": [][]float64{{1, 0, 0}}, "new_boundary": "a", "normal": []float64{1, 0, 0}}, "normal"},
		"in and out": {InputParameters.Params{"normals": [][]float64{{1, 0, 0}}, "new_boundary": "a",
			"included_boundaries": "left", "excluded_boundaries": []string{"top", "left"}}, "excluded_boundaries"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tc.params["input"] = "sq"
			p := buildPipeline(t, nil, square("sq", 1, 1, 0, 0, 1, 1))
			err := p.Add("SideSetsFromNormalsGenerator", "n", tc.params)
			var pe *InputParameters.ParamError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.param, pe.Param)
			assert.Equal(t, "n", pe.Generator)
		})
	}
}

func TestSideSetsFloodVisitsOnce(t *testing.T) {
	p := buildPipeline(t, nil,
		square("sq", 1, 1, 0, 0, 1, 1),
		genBlock{"SideSetsFromNormalsGenerator", "n", InputParameters.Params{
			"input": "sq", "normals": [][]float64{{-1, 0, 0}}, "new_boundary": "west"}},
	)
	g := p.byName["n"].gen.(*SideSetsFromNormalsGenerator)
	m := runBlocks(t, square("grid", 3, 3, 0, 0, 3, 3))
	require.NoError(t, g.setup(context.Background(), m))
	defer g.finalize()

	id := g.boundaryIDs[0]
	g.flood(m, m.Elem(0), r3.Vec{X: -1}, id)
	sides := m.BoundaryInfo().SideList()
	assert.Equal(t, 3, countSides(m, id))
	g.flood(m, m.Elem(0), r3.Vec{X: -1}, id)
	g.flood(m, m.Elem(3), r3.Vec{X: -1}, id)
	assert.ElementsMatch(t, sides, m.BoundaryInfo().SideList())
}

func TestSideSetsFloodWarnsOnDegenerateSide(t *testing.T) {
	p := buildPipeline(t, nil,
		square("sq", 1, 1, 0, 0, 1, 1),
		genBlock{"SideSetsFromNormalsGenerator", "n", InputParameters.Params{
			"input": "sq", "normals": [][]float64{{0, -1, 0}}, "new_boundary": "south"}},
	)
	g := p.byName["n"].gen.(*SideSetsFromNormalsGenerator)

	// The second and third nodes coincide so side 1 has no length
	m := mesh.NewMesh(2)
	a := m.AddPoint(r3.Vec{})
	b := m.AddPoint(r3.Vec{X: 1})
	c := m.AddPoint(r3.Vec{X: 1})
	d := m.AddPoint(r3.Vec{Y: 1})
	e := m.AddElem(mesh.Quad, a, b, c, d)
	m.PrepareForUse()

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, g.setup(ctx, m))
	defer g.finalize()

	id := g.boundaryIDs[0]
	g.flood(m, e, r3.Vec{Y: -1}, id)
	g.flood(m, e, r3.Vec{Y: -1}, id+1)
	assert.True(t, m.BoundaryInfo().HasBoundaryID(e, 0, id))
	assert.Equal(t, 1, strings.Count(buf.String(), "skipping degenerate side"))
	assert.Contains(t, buf.String(), "side=1")
}

func TestSideSetsFromPoints(t *testing.T) {
	m := runBlocks(t,
		square("sq", 2, 2, 0, 0, 1, 1),
		genBlock{"SideSetsFromPointsGenerator", "pts", InputParameters.Params{
			"input": "sq", "points": [][]float64{{0, 0.25, 0}, {0.75, 1, 0}}, "new_boundary": []string{"west", "north"}}},
	)
	assert.Equal(t, 2, countNamedSides(t, m, "west"))
	assert.Equal(t, 2, countNamedSides(t, m, "north"))

	p := buildPipeline(t, nil,
		square("sq", 2, 2, 0, 0, 1, 1),
		genBlock{"SideSetsFromPointsGenerator", "pts", InputParameters.Params{
			"input": "sq", "points": [][]float64{{5, 5}}, "new_boundary": "far"}},
	)
	_, err := p.Run(context.Background())
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "points", pe.Param)
}

func TestSideSetsAroundSubdomain(t *testing.T) {
	run := func(extra InputParameters.Params) *mesh.Mesh {
		params := InputParameters.Params{"input": "band", "block": "2", "new_boundary": "ring"}
		for k, v := range extra {
			params[k] = v
		}
		return runBlocks(t, append(banded(), genBlock{"SideSetsAroundSubdomainGenerator", "ring", params})...)
	}
	assert.Equal(t, 10, countNamedSides(t, run(nil), "ring"))
	assert.Equal(t, 4, countNamedSides(t, run(InputParameters.Params{"normal": []float64{0, 1, 0}}), "ring"))
	assert.Equal(t, 8, countNamedSides(t, run(InputParameters.Params{"excluded_boundaries": []string{"left", "right"}}), "ring"))
	assert.Equal(t, 8, countNamedSides(t, run(InputParameters.Params{"included_neighbors": "0"}), "ring"))
	assert.Equal(t, 2, countNamedSides(t, run(InputParameters.Params{"include_only_external_sides": true}), "ring"))

	m := run(InputParameters.Params{"new_boundary": []string{"ring", "7"}})
	assert.Equal(t, 10, countSides(m, 7))
	assert.Empty(t, m.BoundaryInfo().SidesetName(7))

	p := buildPipeline(t, nil, banded()...)
	err := p.Add("SideSetsAroundSubdomainGenerator", "ring", InputParameters.Params{
		"input": "band", "block": "2", "new_boundary": "ring",
		"include_only_external_sides": true, "included_neighbors": "0"})
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "included_neighbors", pe.Param)
}

func TestSideSetsBetweenSubdomains(t *testing.T) {
	m := runBlocks(t, append(banded(), genBlock{"SideSetsBetweenSubdomainsGenerator", "iface", InputParameters.Params{
		"input": "band", "primary_block": "2", "paired_block": "0", "new_boundary": "iface"}})...)
	id := m.BoundaryInfo().IDByName("iface")
	assert.Equal(t, 8, countSides(m, id))
	for _, bs := range m.BoundaryInfo().SideList() {
		if bs.ID == id {
			assert.Equal(t, mesh.SubdomainID(2), bs.Elem.SubdomainID)
		}
	}

	p := buildPipeline(t, nil, banded()...)
	err := p.Add("SideSetsBetweenSubdomainsGenerator", "iface", InputParameters.Params{
		"input": "band", "primary_block": "2", "paired_block": "0", "new_boundary": "iface",
		"include_only_external_sides": true})
	assert.Error(t, err)
}

func TestFlipSideset(t *testing.T) {
	m := runBlocks(t, append(banded(),
		genBlock{"SideSetsBetweenSubdomainsGenerator", "iface", InputParameters.Params{
			"input": "band", "primary_block": "2", "paired_block": "0", "new_boundary": "iface"}},
		genBlock{"FlipSidesetGenerator", "flip", InputParameters.Params{"input": "iface", "boundary": "iface"}},
	)...)
	id := m.BoundaryInfo().IDByName("iface")
	assert.Equal(t, 8, countSides(m, id))
	for _, bs := range m.BoundaryInfo().SideList() {
		if bs.ID != id {
			continue
		}
		assert.Equal(t, mesh.SubdomainID(0), bs.Elem.SubdomainID)
		n, ok := bs.Elem.SideNormal(bs.Side)
		require.True(t, ok)
		c := bs.Elem.Centroid()
		// The flipped normals point into the band
		assert.InDelta(t, 2.5-c.Y, n.Y, 1.e-12)
	}

	p := buildPipeline(t, nil,
		square("sq", 2, 2, 0, 0, 1, 1),
		genBlock{"FlipSidesetGenerator", "flip", InputParameters.Params{"input": "sq", "boundary": "left"}},
	)
	_, err := p.Run(context.Background())
	var me *MeshError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "flip", me.Generator)
	assert.Contains(t, me.Msg, "no neighbor")

	p = buildPipeline(t, nil,
		square("sq", 2, 2, 0, 0, 1, 1),
		genBlock{"FlipSidesetGenerator", "flip", InputParameters.Params{"input": "sq", "boundary": "nowhere"}},
	)
	_, err = p.Run(context.Background())
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
}
