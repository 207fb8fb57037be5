package generators

import (
	"context"
	"fmt"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
)

// PortionMeshGenerator builds a half or a full mesh out of a quadrant mesh
// lying in x >= 0, y >= 0 with its left and bottom boundaries on the axes.
// Copies are rotated by quarter turns about z and their boundary ids are
// relabelled so that every named boundary keeps its physical side.
type PortionMeshGenerator struct {
	Base
	input    *mesh.Handle
	portion  string
	boundary [4]string // left, bottom, right, top
	stitch   stitchSettings
}

// portionSides are the quadrant boundaries in the order of the boundary field
var portionSides = [4]string{"left", "bottom", "right", "top"}

var portionTurns = map[string][]int{
	"top_right":    {0},
	"top_left":     {1},
	"bottom_left":  {2},
	"bottom_right": {3},
	"top_half":     {0, 1},
	"bottom_half":  {3, 2},
	"right_half":   {0, 3},
	"left_half":    {1, 2},
	"full":         {0, 1, 3, 2},
}

func NewPortionMeshGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &PortionMeshGenerator{Base: newBase(bc, name, "PortionMeshGenerator")}
	var err error
	if params.Has("input") {
		if g.input, err = bc.GetMesh(params, "input"); err != nil {
			return nil, err
		}
	} else {
		// Without an input the quadrant is a structured square
		size, err := params.Float("quadrant_size", 1)
		if err != nil {
			return nil, g.check(err)
		}
		n, err := params.Int("quadrant_elements", 2)
		if err != nil {
			return nil, g.check(err)
		}
		if g.input, err = bc.AddMeshSubgenerator("GeneratedMeshGenerator", name+"_quadrant", InputParameters.Params{
			"dim": 2, "nx": n, "ny": n, "xmax": size, "ymax": size,
		}); err != nil {
			return nil, err
		}
	}
	if g.portion, err = params.OneOf("portion", "full", "full", "top_right", "top_left", "bottom_left",
		"bottom_right", "top_half", "bottom_half", "right_half", "left_half"); err != nil {
		return nil, g.check(err)
	}
	for k, side := range portionSides {
		if g.boundary[k], err = params.String(side+"_boundary", side); err != nil {
			return nil, g.check(err)
		}
	}
	if g.stitch, err = readStitchSettings(&g.Base, params, true); err != nil {
		return nil, err
	}
	g.stitch.opts.ClearStitchedIDs = true
	return g, nil
}

func (g *PortionMeshGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	q, err := g.input.Take()
	if err != nil {
		return nil, err
	}
	if err = g.requireSerial(q); err != nil {
		return nil, err
	}
	var ids []mesh.BoundaryID
	for k, name := range g.boundary {
		id, err := g.boundaryOf(q, portionSides[k]+"_boundary", name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	var parts []*mesh.Mesh
	for _, turns := range portionTurns[g.portion] {
		part, err := g.rotated(q, ids, turns)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	const left, bottom, right, top = 0, 1, 2, 3
	join := func(dst, src *mesh.Mesh, dstSide, srcSide int) error {
		return g.stitchByName(dst, src,
			namedBoundary{portionSides[dstSide] + "_boundary", g.boundary[dstSide]},
			namedBoundary{portionSides[srcSide] + "_boundary", g.boundary[srcSide]}, g.stitch.opts)
	}
	switch g.portion {
	case "top_half", "bottom_half":
		// Second quadrant lies to the left of the first
		err = join(parts[0], parts[1], left, right)
	case "right_half", "left_half":
		// Second quadrant lies below the first
		err = join(parts[0], parts[1], bottom, top)
	case "full":
		if err = join(parts[0], parts[1], left, right); err == nil {
			if err = join(parts[2], parts[3], left, right); err == nil {
				err = join(parts[0], parts[2], bottom, top)
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return parts[0], nil
}

// rotated returns a copy of q turned by quarter turns counter clockwise with
// the boundary ids moved back onto their physical sides
func (g *PortionMeshGenerator) rotated(q *mesh.Mesh, ids []mesh.BoundaryID, turns int) (*mesh.Mesh, error) {
	c := q.Clone()
	if turns == 0 {
		return c, nil
	}
	c.RotateZ(90 * float64(turns))
	meshutils.RotateBoundaryNames(c, ids, turns)
	perm := make(map[mesh.BoundaryID]mesh.BoundaryID, len(ids))
	for k, id := range ids {
		perm[id] = ids[(k+turns)%len(ids)]
	}
	if _, err := meshutils.PermuteBoundaryIDs(c, perm); err != nil {
		return nil, fmt.Errorf("%s: relabelling quadrant: %w", g.name, err)
	}
	return c, nil
}
