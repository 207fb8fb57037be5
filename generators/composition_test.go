package generators

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func assertBox(t *testing.T, m *mesh.Mesh, lo, hi r3.Vec) {
	t.Helper()
	mlo, mhi := m.BoundingBox()
	assert.InDelta(t, 0, r3.Norm(r3.Sub(mlo, lo)), 1.e-12, "lower corner %v", mlo)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(mhi, hi)), 1.e-12, "upper corner %v", mhi)
}

func TestStitchedMesh(t *testing.T) {
	for _, clear := range []bool{true, false} {
		m := runBlocks(t,
			square("a", 2, 2, 0, 0, 1, 1),
			square("b", 2, 2, 1, 0, 2, 1),
			genBlock{"StitchedMeshGenerator", "ab", InputParameters.Params{
				"inputs": []string{"a", "b"}, "stitch_boundaries_pairs": [][]string{{"right", "left"}},
				"clear_stitched_boundary_ids": clear}},
		)
		assert.Equal(t, 8, m.NElem())
		assert.Equal(t, 15, m.NNodes())
		assertBox(t, m, r3.Vec{}, r3.Vec{X: 2, Y: 1})
		assert.Equal(t, 4, countNamedSides(t, m, "bottom"))
		assert.Equal(t, 4, countNamedSides(t, m, "top"))
		want := 4
		if clear {
			want = 2
		}
		assert.Equal(t, want, countNamedSides(t, m, "left"), "clear %v", clear)
		assert.Equal(t, want, countNamedSides(t, m, "right"), "clear %v", clear)
		assert.Len(t, m.BoundaryInfo().SidesetNames(), 4)
		// The seam is interior
		assert.Len(t, m.ExternalSides(), 12)
	}

	p := buildPipeline(t, nil, square("a", 1, 1, 0, 0, 1, 1), square("b", 1, 1, 1, 0, 2, 1))
	err := p.Add("StitchedMeshGenerator", "ab", InputParameters.Params{
		"inputs": []string{"a", "b"}, "stitch_boundaries_pairs": [][]string{{"right", "left"}, {"top", "bottom"}}})
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "stitch_boundaries_pairs", pe.Param)
}

func TestPatternedMesh(t *testing.T) {
	m := runBlocks(t,
		square("cell", 1, 1, 0, 0, 1, 1),
		genBlock{"PatternedMeshGenerator", "lattice", InputParameters.Params{
			"inputs": "cell", "pattern": [][]int{{0, 0}, {0, 0}}, "x_width": 1, "y_width": 1}},
	)
	assert.Equal(t, 4, m.NElem())
	assert.Equal(t, 9, m.NNodes())
	assertBox(t, m, r3.Vec{}, r3.Vec{X: 2, Y: 2})
	for _, side := range []string{"left", "right", "top", "bottom"} {
		assert.Equal(t, 2, countNamedSides(t, m, side), side)
	}
	assert.Len(t, m.BoundaryInfo().SidesetIDs(), 4)

	// Rows of different cells, the first row is on top
	m = runBlocks(t,
		square("a", 1, 1, 0, 0, 1, 1),
		square("b", 1, 2, 0, 0, 1, 1),
		genBlock{"PatternedMeshGenerator", "lattice", InputParameters.Params{
			"inputs": []string{"a", "b"}, "pattern": [][]int{{1}, {0}, {0}}, "x_width": 1, "y_width": 1}},
	)
	assert.Equal(t, 4, m.NElem())
	assertBox(t, m, r3.Vec{}, r3.Vec{X: 1, Y: 3})
	assert.Equal(t, 1, countNamedSides(t, m, "top"))
	assert.Equal(t, 1, countNamedSides(t, m, "bottom"))
	assert.Equal(t, 4, countNamedSides(t, m, "left"))
	// The finer cell is on top
	for e := range m.Elements() {
		if c := e.Centroid(); c.Y > 2 {
			lo, hi := e.Nodes[0].Y, e.Nodes[2].Y
			assert.InDelta(t, 0.5, hi-lo, 1.e-12)
		}
	}

	p := buildPipeline(t, nil, square("cell", 1, 1, 0, 0, 1, 1))
	err := p.Add("PatternedMeshGenerator", "lattice", InputParameters.Params{
		"inputs": "cell", "pattern": [][]int{{0, 1}}, "x_width": 1, "y_width": 1})
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "pattern", pe.Param)

	// A missing boundary is reported under the parameter that named it
	for param, pattern := range map[string][][]int{
		"left_boundary":   {{0, 0}},
		"right_boundary":  {{0, 0}},
		"top_boundary":    {{0}, {0}},
		"bottom_boundary": {{0}, {0}},
	} {
		p = buildPipeline(t, nil, square("cell", 1, 1, 0, 0, 1, 1),
			genBlock{"PatternedMeshGenerator", "lattice", InputParameters.Params{
				"inputs": "cell", "pattern": pattern, "x_width": 1, "y_width": 1, param: "nowhere"}})
		_, err = p.Run(context.Background())
		require.ErrorAs(t, err, &pe, param)
		assert.Equal(t, param, pe.Param)
	}
}

func TestStack(t *testing.T) {
	m := runBlocks(t,
		square("layer", 1, 1, 0, 0, 1, 1),
		genBlock{"StackGenerator", "stack", InputParameters.Params{
			"inputs": []string{"layer", "layer", "layer"}, "dim": 2, "bottom_height": 1}},
	)
	assert.Equal(t, 3, m.NElem())
	assert.Equal(t, 8, m.NNodes())
	assertBox(t, m, r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 4})
	assert.Equal(t, 1, countNamedSides(t, m, "top"))
	assert.Equal(t, 1, countNamedSides(t, m, "bottom"))
	assert.Equal(t, 3, countNamedSides(t, m, "left"))

	m = runBlocks(t,
		genBlock{"GeneratedMeshGenerator", "slab", InputParameters.Params{"dim": 3, "nx": 2, "ny": 2}},
		genBlock{"StackGenerator", "stack", InputParameters.Params{"inputs": []string{"slab", "slab"}, "dim": 3}},
	)
	assert.Equal(t, 8, m.NElem())
	assertBox(t, m, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 2})
	assert.Equal(t, 4, countNamedSides(t, m, "front"))

	p := buildPipeline(t, nil,
		square("layer", 1, 1, 0, 0, 1, 1),
		genBlock{"StackGenerator", "stack", InputParameters.Params{"inputs": []string{"layer", "layer"}, "dim": 3}},
	)
	_, err := p.Run(context.Background())
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "dim", pe.Param)
}

func TestTiledMesh(t *testing.T) {
	m := runBlocks(t,
		square("tile", 1, 1, 0, 0, 1, 1),
		genBlock{"TiledMeshGenerator", "tiled", InputParameters.Params{"input": "tile", "x_tiles": 3, "y_tiles": 2}},
	)
	assert.Equal(t, 6, m.NElem())
	assert.Equal(t, 12, m.NNodes())
	assertBox(t, m, r3.Vec{}, r3.Vec{X: 3, Y: 2})
	assert.Equal(t, 2, countNamedSides(t, m, "left"))
	assert.Equal(t, 2, countNamedSides(t, m, "right"))
	assert.Equal(t, 3, countNamedSides(t, m, "bottom"))
	assert.Equal(t, 3, countNamedSides(t, m, "top"))

	p := buildPipeline(t, nil,
		square("tile", 1, 1, 0, 0, 1, 1),
		genBlock{"TiledMeshGenerator", "tiled", InputParameters.Params{"input": "tile", "z_tiles": 2}},
	)
	_, err := p.Run(context.Background())
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "z_tiles", pe.Param)
}

func TestPortionMesh(t *testing.T) {
	m := runBlocks(t, genBlock{"PortionMeshGenerator", "disk", InputParameters.Params{"portion": "full"}})
	assert.Equal(t, 16, m.NElem())
	assert.Equal(t, 25, m.NNodes())
	assertBox(t, m, r3.Vec{X: -1, Y: -1}, r3.Vec{X: 1, Y: 1})
	for _, side := range []string{"left", "right", "top", "bottom"} {
		assert.Equal(t, 4, countNamedSides(t, m, side), side)
	}
	assert.Len(t, m.ExternalSides(), 16)
	// Sides carry the label of where they ended up
	bi := m.BoundaryInfo()
	for _, bs := range bi.SideList() {
		n, ok := bs.Elem.SideNormal(bs.Side)
		require.True(t, ok)
		want := map[string]r3.Vec{"left": {X: -1}, "right": {X: 1}, "top": {Y: 1}, "bottom": {Y: -1}}[bi.SidesetName(bs.ID)]
		assert.InDelta(t, 0, r3.Norm(r3.Sub(n, want)), 1.e-12, "%s", bi.SidesetName(bs.ID))
	}

	m = runBlocks(t, genBlock{"PortionMeshGenerator", "half", InputParameters.Params{
		"portion": "top_half", "quadrant_size": 2}})
	assert.Equal(t, 8, m.NElem())
	assertBox(t, m, r3.Vec{X: -2}, r3.Vec{X: 2, Y: 2})
	assert.Equal(t, 4, countNamedSides(t, m, "bottom"))
	assert.Equal(t, 2, countNamedSides(t, m, "left"))

	m = runBlocks(t,
		square("q", 1, 1, 0, 0, 1, 1),
		genBlock{"PortionMeshGenerator", "corner", InputParameters.Params{"input": "q", "portion": "bottom_left"}},
	)
	assertBox(t, m, r3.Vec{X: -1, Y: -1}, r3.Vec{})
	assert.Equal(t, 1, countNamedSides(t, m, "left"))
	e := m.Elem(0)
	n, ok := e.SideNormal(1)
	require.True(t, ok)
	assert.InDelta(t, -1, n.X, 1.e-12)
	assert.True(t, m.BoundaryInfo().HasBoundaryID(e, 1, m.BoundaryInfo().IDByName("left")))
}

func TestElementTypeConverter(t *testing.T) {
	m := runBlocks(t,
		square("sq", 2, 2, 0, 0, 1, 1),
		genBlock{"ElementTypeConverterGenerator", "tri", InputParameters.Params{
			"input": "sq", "tri_subdomain_id": 3, "tri_subdomain_name": "tris"}},
	)
	assert.Equal(t, 8, m.NElem())
	assert.Equal(t, 9, m.NNodes())
	assert.InDelta(t, 1, area(m), 1.e-12)
	for e := range m.Elements() {
		assert.Equal(t, mesh.Triangle, e.Type)
		assert.Equal(t, mesh.SubdomainID(3), e.SubdomainID)
	}
	assert.Equal(t, "tris", m.SubdomainName(3))
	for _, side := range []string{"left", "right", "top", "bottom"} {
		assert.Equal(t, 2, countNamedSides(t, m, side), side)
	}
	assert.Len(t, m.ExternalSides(), 8)

	m = runBlocks(t, append(banded(), genBlock{"ElementTypeConverterGenerator", "tri", InputParameters.Params{
		"input": "band", "block": "2"}})...)
	assert.Equal(t, 20, m.NElem())
	assert.Equal(t, 8, countBlock(m, 2))

	p := buildPipeline(t, nil, append(banded(), genBlock{"ElementTypeConverterGenerator", "tri", InputParameters.Params{
		"input": "band", "block": "2", "tri_subdomain_id": 0}})...)
	_, err := p.Run(context.Background())
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "tri_subdomain_id", pe.Param)
}

func TestXYDelaunay(t *testing.T) {
	blocks := func(params InputParameters.Params) []genBlock {
		params["boundary"] = "frame"
		params["output_boundary"] = "outer"
		bl := []genBlock{square("frame", 4, 4, 0, 0, 1, 1)}
		if params.Has("holes") {
			bl = append(bl, square("hole", 1, 1, 0.4, 0.4, 0.6, 0.6))
		}
		return append(bl, genBlock{"XYDelaunayGenerator", "fill", params})
	}
	inHole := func(m *mesh.Mesh) (n int) {
		for e := range m.Elements() {
			if c := e.Centroid(); c.X > 0.4 && c.X < 0.6 && c.Y > 0.4 && c.Y < 0.6 {
				n++
			}
		}
		return
	}

	m := runBlocks(t, blocks(InputParameters.Params{
		"holes": "hole", "hole_boundaries": "inner", "interior_points": [][]float64{{0.2, 0.8, 0}}})...)
	for e := range m.Elements() {
		assert.Equal(t, mesh.Triangle, e.Type)
	}
	assert.InDelta(t, 1-0.04, area(m), 1.e-12)
	assert.Zero(t, inHole(m))
	bi := m.BoundaryInfo()
	assert.Equal(t, mesh.BoundaryID(0), bi.IDByName("outer"))
	assert.Equal(t, mesh.BoundaryID(1), bi.IDByName("inner"))
	assert.Equal(t, 16, countSides(m, 0))
	assert.Equal(t, 4, countSides(m, 1))
	found := false
	for n := range m.Nodes() {
		if math.Abs(n.X-0.2) < 1.e-12 && math.Abs(n.Y-0.8) < 1.e-12 {
			found = true
		}
	}
	assert.True(t, found)

	// Filling without holes, with and without boundary refinement
	m = runBlocks(t, blocks(InputParameters.Params{})...)
	assert.InDelta(t, 1, area(m), 1.e-12)
	assert.Equal(t, 16, countNamedSides(t, m, "outer"))
	assert.Len(t, m.ExternalSides(), 16)
	assert.Equal(t, mesh.BoundaryID(0), m.BoundaryInfo().IDByName("outer"))

	m = runBlocks(t, blocks(InputParameters.Params{"add_nodes_per_boundary_segment": 1, "output_subdomain_id": 2})...)
	assert.InDelta(t, 1, area(m), 1.e-12)
	assert.Equal(t, 32, countNamedSides(t, m, "outer"))
	assert.Equal(t, []mesh.SubdomainID{2}, m.SubdomainIDs())

	// A stitched hole is filled with its own elements
	m = runBlocks(t, blocks(InputParameters.Params{
		"holes": "hole", "stitch_holes": []bool{true}, "output_subdomain_id": 1})...)
	assert.InDelta(t, 1, area(m), 1.e-12)
	assert.Equal(t, 1, inHole(m))
	assert.Equal(t, 16, countNamedSides(t, m, "outer"))
	assert.Len(t, m.ExternalSides(), 16)
	assert.ElementsMatch(t, []mesh.SubdomainID{0, 1}, m.SubdomainIDs())
}

func TestXYDelaunayErrors(t *testing.T) {
	p := buildPipeline(t, nil, square("frame", 2, 2, 0, 0, 1, 1), square("hole", 1, 1, 0.4, 0.4, 0.6, 0.6))
	err := p.Add("XYDelaunayGenerator", "fill", InputParameters.Params{
		"boundary": "frame", "holes": "hole", "stitch_holes": []bool{true, false}})
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "stitch_holes", pe.Param)

	// The fill and the hole claim the same subdomain name for different ids
	p = buildPipeline(t, nil,
		square("frame", 2, 2, 0, 0, 1, 1),
		genBlock{"GeneratedMeshGenerator", "hole", InputParameters.Params{
			"dim": 2, "xmin": 0.4, "ymin": 0.4, "xmax": 0.6, "ymax": 0.6, "subdomain_id": 1, "subdomain_name": "fill"}},
		genBlock{"XYDelaunayGenerator", "fill", InputParameters.Params{
			"boundary": "frame", "holes": "hole", "stitch_holes": []bool{true}, "output_subdomain_name": "fill"}},
	)
	_, err = p.Run(context.Background())
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "holes", pe.Param)
}

const oneQuadNeu = `        CONTROL INFO 2.0.0
** GAMBIT NEUTRAL FILE
one quad
PROGRAM:                Gambit     VERSION:  2.4.6
Mon Jan  1 00:00:00 2024
     NUMNP     NELEM     NGRPS    NBSETS     NDFCD     NDFVL
         4         1         1         1         2         2
ENDOFSECTION
   NODAL COORDINATES 2.0.0
         1   0.00000000000e+00   0.00000000000e+00
         2   1.00000000000e+00   0.00000000000e+00
         3   1.00000000000e+00   1.00000000000e+00
         4   0.00000000000e+00   1.00000000000e+00
ENDOFSECTION
      ELEMENTS/CELLS 2.0.0
         1  2  4         1         2         3         4
ENDOFSECTION
       ELEMENT GROUP 2.0.0
GROUP:           1 ELEMENTS:           1 MATERIAL:           2 NFLAGS:           1
fluid
       0
       1
ENDOFSECTION
 BOUNDARY CONDITIONS 2.0.0
wall                       1       1       0       6
         1         2         1
ENDOFSECTION
`

func TestFileMesh(t *testing.T) {
	file := filepath.Join(t.TempDir(), "quad.neu")
	require.NoError(t, os.WriteFile(file, []byte(oneQuadNeu), 0644))
	m := runBlocks(t,
		genBlock{"FileMeshGenerator", "file", InputParameters.Params{"file": file}},
		genBlock{"SideSetsFromNormalsGenerator", "walls", InputParameters.Params{
			"input": "file", "normals": [][]float64{{0, 1, 0}}, "new_boundary": "lid"}},
	)
	assert.Equal(t, 1, m.NElem())
	_, ok := m.SubdomainIDByName("fluid")
	assert.True(t, ok)
	assert.Equal(t, 1, countNamedSides(t, m, "wall"))
	assert.Equal(t, 1, countNamedSides(t, m, "lid"))

	p := buildPipeline(t, nil, genBlock{"FileMeshGenerator", "file", InputParameters.Params{"file": "mesh.vtk"}})
	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "unsupported mesh format")
}

const oneTriSU2 = `% one triangle
NDIME= 2
NELEM= 1
5 0 1 2 0
NPOIN= 3
0 0 0
1 0 1
0 1 2
NMARK= 1
MARKER_TAG= floor
MARKER_ELEMS= 1
3 0 1
`

func TestFileMeshByExtension(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tri.su2")
	require.NoError(t, os.WriteFile(file, []byte(oneTriSU2), 0644))
	m := runBlocks(t, genBlock{"FileMeshGenerator", "file", InputParameters.Params{"file": file}})
	assert.Equal(t, 1, m.NElem())
	assert.Equal(t, mesh.Triangle, m.Elem(0).Type)
	assert.Equal(t, 1, countNamedSides(t, m, "floor"))
}
