package generators

import (
	"context"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/ctxlog"
	"github.com/notargets/gomeshgen/mesh"
)

// PartitionGenerator distributes its input over the ranks of the pipeline,
// every rank keeps its owned elements plus one ghost layer
type PartitionGenerator struct {
	Base
	input *mesh.Handle
}

func NewPartitionGenerator(bc *BuildContext, name string, params InputParameters.Params) (Generator, error) {
	g := &PartitionGenerator{Base: newBase(bc, name, "PartitionGenerator")}
	var err error
	if g.input, err = bc.GetMesh(params, "input"); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *PartitionGenerator) Generate(ctx context.Context) (*mesh.Mesh, error) {
	m, err := g.input.Take()
	if err != nil {
		return nil, err
	}
	comm := g.comm()
	if comm.Size() == 1 {
		return m, nil
	}
	if !m.IsSerial() {
		return nil, g.meshErrorf("input is already distributed")
	}
	parts, err := m.Partition(comm.Size())
	if err != nil {
		return nil, g.meshErrorf("%v", err)
	}
	local := parts[comm.Rank()]
	ctxlog.FromContext(ctx).Debug("partitioned", "rank", comm.Rank(), "elements", local.NElem())
	return local, nil
}
