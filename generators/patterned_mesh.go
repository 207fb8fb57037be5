package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// PatternedMeshGenerator lays its inputs out on a grid. Row i of pattern
// holds the input indices of the cells from left to right, rows run from
// top to bottom and every cell is x_width by y_width. Cells are stitched
// right to left within a row, then every row is stitched below the first.
// The finished mesh is shifted so the bottom row starts at y = 0.
type PatternedMeshGenerator struct {
	Base
	inputs                   []*mesh.Handle
	pattern                  [][]int
	xWidth, yWidth           float64
	left, right, top, bottom string
	stitch                   stitchSettings
}

func NewPatternedMeshGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &PatternedMeshGenerator{Base: newBase(bc, name, "PatternedMeshGenerator")}
	var err error
	if g.inputs, err = bc.GetMeshes(params, "inputs"); err != nil {
		return nil, err
	}
	if err = params.Required("pattern", "x_width", "y_width"); err != nil {
		return nil, g.check(err)
	}
	if g.pattern, err = params.IntMatrix("pattern"); err != nil {
		return nil, g.check(err)
	}
	if len(g.pattern) == 0 {
		return nil, g.paramErrorf("pattern", "needs at least one row")
	}
	for i, row := range g.pattern {
		if len(row) == 0 {
			return nil, g.paramErrorf("pattern", "row %d is empty", i)
		}
		for _, k := range row {
			if k < 0 || k >= len(g.inputs) {
				return nil, g.paramErrorf("pattern", "index %d does not name one of the %d inputs", k, len(g.inputs))
			}
		}
	}
	if g.xWidth, err = params.Float("x_width", 0); err != nil {
		return nil, g.check(err)
	}
	if g.yWidth, err = params.Float("y_width", 0); err != nil {
		return nil, g.check(err)
	}
	if g.xWidth <= 0 || g.yWidth <= 0 {
		return nil, g.paramErrorf("x_width", "cell widths must be positive")
	}
	for param, dst := range map[string]*string{
		"left_boundary":   &g.left,
		"right_boundary":  &g.right,
		"top_boundary":    &g.top,
		"bottom_boundary": &g.bottom,
	} {
		def := param[:len(param)-len("_boundary")]
		if *dst, err = params.String(param, def); err != nil {
			return nil, g.check(err)
		}
	}
	// Stitched cell sides always become interior
	if g.stitch, err = readStitchSettings(&g.Base, params, true); err != nil {
		return nil, err
	}
	g.stitch.opts.ClearStitchedIDs = true
	return g, nil
}

func (g *PatternedMeshGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	meshes, err := takeAll(g.inputs)
	if err != nil {
		return nil, err
	}
	if err = g.requireSerial(meshes...); err != nil {
		return nil, err
	}

	rows := make([]*mesh.Mesh, len(g.pattern))
	for i, row := range g.pattern {
		for j, k := range row {
			// Shift the mesh into position
			shift := r3.Vec{X: float64(j) * g.xWidth, Y: -float64(i) * g.yWidth}
			cell := meshes[k]
			cell.Translate(shift)
			if j == 0 {
				rows[i] = cell.Clone()
			} else {
				err = g.stitchByName(rows[i], cell,
					namedBoundary{"right_boundary", g.right}, namedBoundary{"left_boundary", g.left}, g.stitch.opts)
			}
			// Shift the mesh back to where it was
			cell.Translate(r3.Scale(-1, shift))
			if err != nil {
				return nil, err
			}
		}
	}
	// Now stitch together the rows
	for i := 1; i < len(rows); i++ {
		if err = g.stitchByName(rows[0], rows[i],
			namedBoundary{"bottom_boundary", g.bottom}, namedBoundary{"top_boundary", g.top}, g.stitch.opts); err != nil {
			return nil, err
		}
	}
	result := rows[0]
	result.Translate(r3.Vec{Y: float64(len(rows)-1) * g.yWidth})
	return result, nil
}
