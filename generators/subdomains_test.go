package generators

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func countBlock(m *mesh.Mesh, id mesh.SubdomainID) (n int) {
	for e := range m.Elements() {
		if e.SubdomainID == id {
			n++
		}
	}
	return
}

func paint(t *testing.T, grid genBlock, params InputParameters.Params) *mesh.Mesh {
	t.Helper()
	params["input"] = grid.name
	return runBlocks(t, grid, genBlock{"SubdomainsFromPointsGenerator", "paint", params})
}

func TestSubdomainFloodSpreads(t *testing.T) {
	m := paint(t, square("grid", 3, 3, 0, 0, 3, 3), InputParameters.Params{
		"points": [][]float64{{1.5, 1.5, 0}}, "new_subdomain": "all", "normal_tol": 2})
	id, ok := m.SubdomainIDByName("all")
	require.True(t, ok)
	assert.Equal(t, mesh.SubdomainID(1), id)
	assert.Equal(t, 9, countBlock(m, id))
}

func TestSubdomainMaxDistance(t *testing.T) {
	for _, tc := range []struct {
		dist float64
		want int
	}{
		{2, 3},
		{math.Nextafter(2, 0), 2},
		{0, 5},
	} {
		m := paint(t, square("row", 5, 1, 0, 0, 5, 1), InputParameters.Params{
			"points": [][]float64{{0.5, 0.5, 0}}, "new_subdomain": "near",
			"max_centroid_distance": []float64{tc.dist}})
		assert.Equal(t, tc.want, countBlock(m, 1), "distance %v", tc.dist)
	}

	p := NewPipeline(nil)
	require.NoError(t, p.Add("GeneratedMeshGenerator", "row", InputParameters.Params{"dim": 2}))
	err := p.Add("SubdomainsFromPointsGenerator", "paint", InputParameters.Params{
		"input": "row", "points": [][]float64{{0.5, 0.5, 0}}, "new_subdomain": "near",
		"max_centroid_distance": []float64{-1}})
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "max_centroid_distance", pe.Param)
}

func TestSubdomainsFloodOnce(t *testing.T) {
	points := [][]float64{{0.25, 0.25, 0}, {0.75, 0.75, 0}}
	m := paint(t, square("grid", 2, 2, 0, 0, 1, 1), InputParameters.Params{
		"points": points, "new_subdomain": []string{"a", "b"}})
	assert.Equal(t, 4, countBlock(m, 2))

	m = paint(t, square("grid", 2, 2, 0, 0, 1, 1), InputParameters.Params{
		"points": points, "new_subdomain": []string{"a", "b"}, "flood_elements_once": true})
	assert.Equal(t, 4, countBlock(m, 1))
	assert.Equal(t, "b", m.SubdomainName(2))

	// Names resolve to existing ids, numbers are used as given
	m = paint(t, square("grid", 2, 2, 0, 0, 1, 1), InputParameters.Params{
		"points": [][]float64{{0.25, 0.25, 0}}, "new_subdomain": "5"})
	assert.Equal(t, 4, countBlock(m, 5))
	assert.Empty(t, m.SubdomainNames())
}

func TestSubdomainNormalFlips(t *testing.T) {
	box := genBlock{"BoxSurfaceGenerator", "box", nil}
	params := func(flips bool) InputParameters.Params {
		return InputParameters.Params{
			"points": [][]float64{{0, 0.5, 0.5}}, "new_subdomain": "shell",
			"fixed_normal": true, "normal_tol": 1.1, "allow_normal_flips": flips,
		}
	}
	// The +x face opposes the seed normal and is only taken after a flip
	m := paint(t, box, params(false))
	assert.Equal(t, 5, countBlock(m, 1))

	m = paint(t, box, params(true))
	assert.Equal(t, 6, countBlock(m, 1))
	for e := range m.Elements() {
		n, ok := e.Normal()
		require.True(t, ok)
		assert.Less(t, n.X, 0.5, "element %d", e.ID)
	}

	p := NewPipeline(nil)
	require.NoError(t, p.Add("BoxSurfaceGenerator", "box", nil))
	err := p.Add("SubdomainsFromPointsGenerator", "paint", InputParameters.Params{
		"input": "box", "points": [][]float64{{0, 0.5, 0.5}}, "new_subdomain": "s", "flipped_normal_tol": 0.2})
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "flipped_normal_tol", pe.Param)
}

func TestSurfaceSubdomainsFromAllNormals(t *testing.T) {
	p := buildPipeline(t, nil,
		genBlock{"BoxSurfaceGenerator", "box", nil},
		genBlock{"SurfaceSubdomainsFromAllNormalsGenerator", "faces", InputParameters.Params{
			"input": "box", "new_subdomain_prefix": "face"}},
	)
	m, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.SubdomainIDs(), 6)
	for k := 0; k < 6; k++ {
		id, ok := m.SubdomainIDByName(fmt.Sprintf("face%d", k))
		require.True(t, ok)
		assert.Equal(t, 1, countBlock(m, id))
	}
	normals, err := GetProperty[map[mesh.SubdomainID]r3.Vec](p.Properties(), "faces", SubdomainNormalsProperty)
	require.NoError(t, err)
	require.Len(t, normals, 6)
	for id, n := range normals {
		e := func() *mesh.Elem {
			for e := range m.Elements() {
				if e.SubdomainID == id {
					return e
				}
			}
			return nil
		}()
		require.NotNil(t, e)
		en, _ := e.Normal()
		assert.InDelta(t, 1, r3.Dot(n, en), 1.e-12)
	}

	// A flat sheet is a single subdomain
	m = runBlocks(t,
		square("sq", 3, 2, 0, 0, 1, 1),
		genBlock{"SurfaceSubdomainsFromAllNormalsGenerator", "faces", InputParameters.Params{"input": "sq"}},
	)
	assert.Equal(t, []mesh.SubdomainID{1}, m.SubdomainIDs())
}

func TestSubdomainsRejectVolumeElements(t *testing.T) {
	p := buildPipeline(t, nil,
		genBlock{"GeneratedMeshGenerator", "cube", InputParameters.Params{"dim": 3}},
		genBlock{"SurfaceSubdomainsFromAllNormalsGenerator", "faces", InputParameters.Params{"input": "cube"}},
	)
	_, err := p.Run(context.Background())
	var me *MeshError
	require.ErrorAs(t, err, &me)
}
