package generators

import (
	"context"
	"errors"
	"testing"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRegisteredTypes(t *testing.T) {
	types := RegisteredTypes()
	for _, want := range []string{
		"GeneratedMeshGenerator", "SideSetsFromNormalsGenerator", "SubdomainsFromPointsGenerator",
		"StitchedMeshGenerator", "XYDelaunayGenerator", "PortionMeshGenerator",
	} {
		assert.Contains(t, types, want)
	}
	assert.IsNonDecreasing(t, types)
	assert.Panics(t, func() { Register("GeneratedMeshGenerator", NewGeneratedMeshGenerator) })
}

func TestPipelineBuild(t *testing.T) {
	var pp InputParameters.PipelineParameters
	require.NoError(t, pp.Parse([]byte(`
Generators:
  - name: cell
    type: GeneratedMeshGenerator
    params: {dim: 2, nx: 2, ny: 2}
  - name: walls
    type: SideSetsFromNormalsGenerator
    params:
      input: cell
      normals: [[-1, 0, 0], [1, 0, 0]]
      new_boundary: [west, east]
`)))
	p := NewPipeline(nil)
	require.NoError(t, p.Build(&pp))
	m, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, m.NElem())
	assert.Equal(t, 2, countNamedSides(t, m, "west"))
	assert.Equal(t, 2, countNamedSides(t, m, "east"))

	// Every construction error is reported
	pp = InputParameters.PipelineParameters{Generators: []InputParameters.GeneratorBlock{
		{Name: "a", Type: "NoSuchGenerator"},
		{Name: "b", Type: "GeneratedMeshGenerator", Params: InputParameters.Params{}},
	}}
	err = NewPipeline(nil).Build(&pp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchGenerator")
	var pe *InputParameters.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "dim", pe.Param)
	assert.Equal(t, "b", pe.Generator)
}

func TestPipelineCycle(t *testing.T) {
	p := buildPipeline(t, nil,
		genBlock{"TiledMeshGenerator", "a", InputParameters.Params{"input": "b"}},
		genBlock{"TiledMeshGenerator", "b", InputParameters.Params{"input": "a"}},
		genBlock{"TiledMeshGenerator", "c", InputParameters.Params{"input": "b"}},
	)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))
	assert.Contains(t, err.Error(), "[a b]")

	p = buildPipeline(t, nil, genBlock{"TiledMeshGenerator", "self", InputParameters.Params{"input": "self"}})
	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrDependencyCycle)

	p = buildPipeline(t, nil, genBlock{"TiledMeshGenerator", "lost", InputParameters.Params{"input": "nowhere"}})
	_, err = p.Run(context.Background())
	assert.ErrorContains(t, err, `input "nowhere" does not exist`)
}

func TestPipelineFinalAndCopies(t *testing.T) {
	blocks := []genBlock{
		square("sq", 2, 2, 0, 0, 1, 1),
		{"SideSetsFromNormalsGenerator", "w", InputParameters.Params{
			"input": "sq", "normals": [][]float64{{-1, 0, 0}}, "new_boundary": "west"}},
		{"SideSetsFromNormalsGenerator", "e", InputParameters.Params{
			"input": "sq", "normals": [][]float64{{1, 0, 0}}, "new_boundary": "east"}},
	}

	// Two sinks and no selection
	_, err := buildPipeline(t, nil, blocks...).Run(context.Background())
	assert.ErrorContains(t, err, "select the final one")

	// Each consumer works on its own copy
	for final, want := range map[string]string{"w": "west", "e": "east"} {
		p := buildPipeline(t, nil, blocks...)
		p.SetFinal(final)
		m, err := p.Run(context.Background())
		require.NoError(t, err)
		other := map[string]string{"west": "east", "east": "west"}[want]
		assert.Equal(t, 2, countNamedSides(t, m, want))
		assert.Equal(t, mesh.InvalidBoundaryID, m.BoundaryInfo().IDByName(other))
	}

	// An intermediate mesh selected as final is not changed downstream
	p := buildPipeline(t, nil, blocks...)
	p.SetFinal("sq")
	m, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.BoundaryInfo().SidesetIDs(), 4)
}

func TestPipelineDuplicateName(t *testing.T) {
	p := buildPipeline(t, nil, square("sq", 1, 1, 0, 0, 1, 1))
	assert.ErrorContains(t, p.Add("GeneratedMeshGenerator", "sq", InputParameters.Params{"dim": 1}), "defined twice")
	assert.Error(t, p.Add("GeneratedMeshGenerator", "", InputParameters.Params{"dim": 1}))
}

func TestSubgenerator(t *testing.T) {
	p := buildPipeline(t, nil, genBlock{"PortionMeshGenerator", "disk", InputParameters.Params{
		"portion": "top_half", "quadrant_elements": 1}})
	assert.Contains(t, p.byName, "disk_quadrant")
	sorted, err := p.order()
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "disk_quadrant", sorted[0].name)
	m, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, m.NElem())
}

func TestProperties(t *testing.T) {
	p := buildPipeline(t, nil,
		square("sq", 1, 1, 0, 0, 1, 1),
		genBlock{"SideSetsFromNormalsGenerator", "walls", InputParameters.Params{
			"input": "sq", "normals": [][]float64{{0, 2, 0}}, "new_boundary": "north"}},
	)
	assert.True(t, p.Properties().Has("walls", BoundaryNormalsProperty))
	assert.Equal(t, []string{"walls/" + BoundaryNormalsProperty}, p.Properties().Names())
	m, err := p.Run(context.Background())
	require.NoError(t, err)

	normals, err := GetProperty[map[mesh.BoundaryID]r3.Vec](p.Properties(), "walls", BoundaryNormalsProperty)
	require.NoError(t, err)
	assert.Equal(t, map[mesh.BoundaryID]r3.Vec{m.BoundaryInfo().IDByName("north"): {Y: 1}}, normals)

	_, err = GetProperty[int](p.Properties(), "walls", BoundaryNormalsProperty)
	assert.Error(t, err)
	_, err = GetProperty[int](p.Properties(), "walls", "missing")
	assert.Error(t, err)

	pm := NewPropertyMap()
	v, err := DeclareProperty(pm, "g", "count", 3)
	require.NoError(t, err)
	*v = 7
	again, err := DeclareProperty(pm, "g", "count", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, *again)
	_, err = DeclareProperty(pm, "g", "count", "text")
	assert.Error(t, err)
}
