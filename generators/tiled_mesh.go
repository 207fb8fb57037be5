package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// TiledMeshGenerator repeats its input along x, y and z. The input must be
// a box whose opposite boundaries match node for node.
type TiledMeshGenerator struct {
	Base
	input  *mesh.Handle
	tiles  [3]int
	names  [3][2]string // low and high boundary per axis
	stitch stitchSettings
}

func NewTiledMeshGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &TiledMeshGenerator{Base: newBase(bc, name, "TiledMeshGenerator")}
	var err error
	if g.input, err = bc.GetMesh(params, "input"); err != nil {
		return nil, err
	}
	for d, axis := range []string{"x", "y", "z"} {
		if g.tiles[d], err = params.Int(axis+"_tiles", 1); err != nil {
			return nil, g.check(err)
		}
		if g.tiles[d] < 1 {
			return nil, g.paramErrorf(axis+"_tiles", "needs at least one tile, got %d", g.tiles[d])
		}
		for s := range 2 {
			if g.names[d][s], err = params.String(tileSides[d][s]+"_boundary", tileSides[d][s]); err != nil {
				return nil, g.check(err)
			}
		}
	}
	if g.stitch, err = readStitchSettings(&g.Base, params, true); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *TiledMeshGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	m, err := g.input.Take()
	if err != nil {
		return nil, err
	}
	if err = g.requireSerial(m); err != nil {
		return nil, err
	}
	if g.tiles[2] > 1 && m.Dim() < 3 {
		return nil, g.paramErrorf("z_tiles", "a %dD mesh can not be tiled along z", m.Dim())
	}
	lo, hi := m.BoundingBox()
	width := r3.Sub(hi, lo)
	steps := [3]r3.Vec{{X: width.X}, {Y: width.Y}, {Z: width.Z}}
	for d := range 3 {
		if g.tiles[d] == 1 {
			continue
		}
		base := m.Clone()
		for i := 1; i < g.tiles[d]; i++ {
			tile := base.Clone()
			tile.Translate(r3.Scale(float64(i), steps[d]))
			if err = g.stitchByName(m, tile, g.side(d, 1), g.side(d, 0), g.stitch.opts); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// tileSides are the default low and high boundary names per axis
var tileSides = [3][2]string{{"left", "right"}, {"bottom", "top"}, {"back", "front"}}

// side returns the low (s = 0) or high (s = 1) boundary along axis d
func (g *TiledMeshGenerator) side(d, s int) namedBoundary {
	return namedBoundary{tileSides[d][s] + "_boundary", g.names[d][s]}
}
