// Package generators implements the mesh generators and the pipeline that
// chains them. Every generator consumes the meshes of the generators named
// in its parameters and produces exactly one mesh.
package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/utils"
)

// Generator produces one mesh. Constructors validate the parameters, the
// mesh work happens in Generate.
type Generator interface {
	Name() string
	Generate(ctx context.Context) (*mesh.Mesh, error)
}

// Constructor builds a generator from its parameter block
type Constructor func(bc *BuildContext, name string, params InputParameters.Params) (Generator, error)

// Base carries what every generator shares
type Base struct {
	name     string
	typeName string
	bc       *BuildContext
}

func newBase(bc *BuildContext, name, typeName string) Base {
	return Base{name: name, typeName: typeName, bc: bc}
}

func (b *Base) Name() string     { return b.name }
func (b *Base) TypeName() string { return b.typeName }

func (b *Base) comm() *utils.Comm { return b.bc.p.comm }

func (b *Base) properties() *PropertyMap { return b.bc.p.props }

// BuildContext is handed to a constructor to declare the meshes it consumes
type BuildContext struct {
	p      *Pipeline
	name   string
	inputs []*mesh.Handle
}

// GetMesh declares a dependency on the generator named by param
func (bc *BuildContext) GetMesh(params InputParameters.Params, param string) (*mesh.Handle, error) {
	producer, err := params.String(param, "")
	if err != nil {
		return nil, bc.check(err)
	}
	if producer == "" {
		return nil, &InputParameters.ParamError{Generator: bc.name, Param: param, Msg: "required parameter is missing"}
	}
	return bc.consume(producer), nil
}

// GetMeshes declares a dependency on every generator listed by param
func (bc *BuildContext) GetMeshes(params InputParameters.Params, param string) (handles []*mesh.Handle, err error) {
	producers, err := params.Strings(param)
	if err != nil {
		return nil, bc.check(err)
	}
	if len(producers) == 0 {
		return nil, &InputParameters.ParamError{Generator: bc.name, Param: param, Msg: "at least one input is required"}
	}
	for _, producer := range producers {
		handles = append(handles, bc.consume(producer))
	}
	return
}

// AddMeshSubgenerator adds a generator owned by the one being built and
// returns the handle its mesh arrives in
func (bc *BuildContext) AddMeshSubgenerator(typeName, name string, params InputParameters.Params) (*mesh.Handle, error) {
	if err := bc.p.Add(typeName, name, params); err != nil {
		return nil, err
	}
	return bc.consume(name), nil
}

func (bc *BuildContext) consume(producer string) *mesh.Handle {
	h := mesh.NewHandle(producer)
	bc.inputs = append(bc.inputs, h)
	return h
}

func (bc *BuildContext) check(err error) error {
	b := Base{name: bc.name}
	return b.check(err)
}

// takeAll moves the meshes out of handles in order
func takeAll(handles []*mesh.Handle) (meshes []*mesh.Mesh, err error) {
	meshes = make([]*mesh.Mesh, len(handles))
	for i, h := range handles {
		if meshes[i], err = h.Take(); err != nil {
			return nil, err
		}
	}
	return
}
