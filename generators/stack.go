package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// StackGenerator piles its inputs on top of each other, along y for 2D
// meshes and along z for 3D meshes
type StackGenerator struct {
	Base
	inputs       []*mesh.Handle
	dim          int
	bottomHeight float64
	top, bottom  string
	stitch       stitchSettings
}

func NewStackGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &StackGenerator{Base: newBase(bc, name, "StackGenerator")}
	var err error
	if g.inputs, err = bc.GetMeshes(params, "inputs"); err != nil {
		return nil, err
	}
	if err = params.Required("dim"); err != nil {
		return nil, g.check(err)
	}
	if g.dim, err = params.Int("dim", 0); err != nil {
		return nil, g.check(err)
	}
	defTop, defBottom := "top", "bottom"
	switch g.dim {
	case 2:
	case 3:
		defTop, defBottom = "front", "back"
	default:
		return nil, g.paramErrorf("dim", "only 2D and 3D meshes can be stacked, got %d", g.dim)
	}
	if g.bottomHeight, err = params.Float("bottom_height", 0); err != nil {
		return nil, g.check(err)
	}
	if g.top, err = params.String("top_boundary", defTop); err != nil {
		return nil, g.check(err)
	}
	if g.bottom, err = params.String("bottom_boundary", defBottom); err != nil {
		return nil, g.check(err)
	}
	if g.stitch, err = readStitchSettings(&g.Base, params, true); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *StackGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	meshes, err := takeAll(g.inputs)
	if err != nil {
		return nil, err
	}
	if err = g.requireSerial(meshes...); err != nil {
		return nil, err
	}
	for i, m := range meshes {
		if m.Dim() != g.dim {
			return nil, g.paramErrorf("dim", "input %d is a %dD mesh", i, m.Dim())
		}
	}
	axis := func(v r3.Vec) float64 {
		if g.dim == 2 {
			return v.Y
		}
		return v.Z
	}
	along := func(d float64) r3.Vec {
		if g.dim == 2 {
			return r3.Vec{Y: d}
		}
		return r3.Vec{Z: d}
	}

	dst := meshes[0]
	lo, _ := dst.BoundingBox()
	dst.Translate(along(g.bottomHeight - axis(lo)))
	for _, src := range meshes[1:] {
		_, height := dst.BoundingBox()
		srcLo, _ := src.BoundingBox()
		src.Translate(along(axis(height) - axis(srcLo)))
		if err = g.stitchByName(dst, src,
			namedBoundary{"top_boundary", g.top}, namedBoundary{"bottom_boundary", g.bottom}, g.stitch.opts); err != nil {
			return nil, err
		}
	}
	return dst, nil
}
