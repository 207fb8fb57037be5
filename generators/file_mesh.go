package generators

import (
	"context"

	"github.com/mitchellh/go-homedir"
	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/mesh/readers"
)

// FileMeshGenerator reads a Gambit (.neu), Gmsh (.msh) or SU2 (.su2) mesh file
type FileMeshGenerator struct {
	Base
	file string
}

func NewFileMeshGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &FileMeshGenerator{Base: newBase(bc, name, "FileMeshGenerator")}
	if err := params.Required("file"); err != nil {
		return nil, g.check(err)
	}
	file, err := params.String("file", "")
	if err != nil {
		return nil, g.check(err)
	}
	if g.file, err = homedir.Expand(file); err != nil {
		return nil, g.paramErrorf("file", "%v", err)
	}
	return g, nil
}

func (g *FileMeshGenerator) Generate(_ context.Context) (*mesh.Mesh, error) {
	m, err := readers.ReadMeshFile(g.file)
	if err != nil {
		return nil, g.meshErrorf("%v", err)
	}
	return m, nil
}
