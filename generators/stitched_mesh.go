package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
)

// StitchedMeshGenerator welds its inputs together in order, input k+1 is
// stitched onto the result so far along the k-th boundary pair
type StitchedMeshGenerator struct {
	Base
	inputs         []*mesh.Handle
	pairs          [][2]string
	stitch         stitchSettings
	preventOverlap bool
	mergeSameName  bool
}

func NewStitchedMeshGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &StitchedMeshGenerator{Base: newBase(bc, name, "StitchedMeshGenerator")}
	var err error
	if g.inputs, err = bc.GetMeshes(params, "inputs"); err != nil {
		return nil, err
	}
	if len(g.inputs) < 2 {
		return nil, g.paramErrorf("inputs", "at least two meshes are needed")
	}
	if err = params.Required("stitch_boundaries_pairs"); err != nil {
		return nil, g.check(err)
	}
	if g.pairs, err = params.StringPairs("stitch_boundaries_pairs"); err != nil {
		return nil, g.check(err)
	}
	if len(g.pairs) != len(g.inputs)-1 {
		return nil, g.paramErrorf("stitch_boundaries_pairs", "%d pairs given for %d inputs", len(g.pairs), len(g.inputs))
	}
	if g.stitch, err = readStitchSettings(&g.Base, params, true); err != nil {
		return nil, err
	}
	if g.preventOverlap, err = params.Bool("prevent_boundary_ids_overlap", true); err != nil {
		return nil, g.check(err)
	}
	if g.mergeSameName, err = params.Bool("merge_boundaries_with_same_name", true); err != nil {
		return nil, g.check(err)
	}
	return g, nil
}

func (g *StitchedMeshGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	meshes, err := takeAll(g.inputs)
	if err != nil {
		return nil, err
	}
	if err = g.requireSerial(meshes...); err != nil {
		return nil, err
	}
	dst := meshes[0]
	for i, src := range meshes[1:] {
		dstID, err := g.boundaryOf(dst, "stitch_boundaries_pairs", g.pairs[i][0])
		if err != nil {
			return nil, err
		}
		srcID, err := g.boundaryOf(src, "stitch_boundaries_pairs", g.pairs[i][1])
		if err != nil {
			return nil, err
		}
		if g.preventOverlap {
			// Shift every id of src above the ids of dst so unrelated
			// boundaries sharing a number stay apart
			offset := meshutils.NextFreeBoundaryID(dst)
			perm := make(map[mesh.BoundaryID]mesh.BoundaryID)
			for _, id := range src.BoundaryInfo().BoundaryIDs() {
				perm[id] = id + offset
			}
			if _, err = meshutils.PermuteBoundaryIDs(src, perm); err != nil {
				return nil, g.meshErrorf("%v", err)
			}
			srcID += offset
		}
		if _, err = dst.StitchMeshes(src, dstID, srcID, g.stitch.opts); err != nil {
			return nil, g.meshErrorf("stitching input %d: %v", i+1, err)
		}
	}
	if g.mergeSameName {
		meshutils.MergeBoundaryIDsWithSameName(dst)
	}
	return dst, nil
}
