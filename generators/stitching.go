package generators

import (
	"fmt"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/meshutils"
)

// stitchSettings are the node matching parameters shared by the generators
// that weld meshes together
type stitchSettings struct {
	opts mesh.StitchOptions
}

func readStitchSettings(b *Base, params InputParameters.Params, clearDefault bool) (s stitchSettings, err error) {
	algorithm, err := params.OneOf("algorithm", "BINARY", "BINARY", "EXHAUSTIVE")
	if err != nil {
		return s, b.check(err)
	}
	s.opts.UseBinarySearch = algorithm == "BINARY"
	if s.opts.Tolerance, err = params.Float("tolerance", mesh.DefaultStitchTolerance); err != nil {
		return s, b.check(err)
	}
	if s.opts.Tolerance < 0 {
		return s, b.paramErrorf("tolerance", "must not be negative")
	}
	if s.opts.Verbose, err = params.Bool("verbose_stitching", false); err != nil {
		return s, b.check(err)
	}
	if s.opts.ClearStitchedIDs, err = params.Bool("clear_stitched_boundary_ids", clearDefault); err != nil {
		return s, b.check(err)
	}
	return s, nil
}

// boundaryOf resolves a boundary that must have sides in m
func (b *Base) boundaryOf(m *mesh.Mesh, param, name string) (mesh.BoundaryID, error) {
	id := meshutils.GetBoundaryID(m, name)
	if id == mesh.InvalidBoundaryID || !m.BoundaryInfo().HasID(id) {
		return id, b.paramErrorf(param, "boundary %q not found in the mesh", name)
	}
	return id, nil
}

// namedBoundary is a boundary name together with the parameter it came from
type namedBoundary struct {
	param, name string
}

// stitchByName welds boundary srcB of src onto boundary dstB of dst
func (b *Base) stitchByName(dst, src *mesh.Mesh, dstB, srcB namedBoundary, opts mesh.StitchOptions) error {
	dstID, err := b.boundaryOf(dst, dstB.param, dstB.name)
	if err != nil {
		return err
	}
	srcID, err := b.boundaryOf(src, srcB.param, srcB.name)
	if err != nil {
		return err
	}
	if _, err = dst.StitchMeshes(src, dstID, srcID, opts); err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	return nil
}

// requireSerial rejects distributed inputs of the composition generators
func (b *Base) requireSerial(meshes ...*mesh.Mesh) error {
	for _, m := range meshes {
		if !m.IsSerial() {
			return b.meshErrorf("stitching needs serial meshes")
		}
	}
	return nil
}
