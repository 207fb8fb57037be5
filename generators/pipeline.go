package generators

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/ctxlog"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/utils"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type stage struct {
	id       int64
	name     string
	typeName string
	gen      Generator
	inputs   []*mesh.Handle
}

// Pipeline owns a set of named generators and runs them in dependency
// order, moving every mesh to the generators that consume it
type Pipeline struct {
	comm   *utils.Comm
	props  *PropertyMap
	stages []*stage
	byName map[string]*stage
	final  string
}

// NewPipeline creates an empty pipeline running on comm, nil runs serial
func NewPipeline(comm *utils.Comm) *Pipeline {
	if comm == nil {
		comm = utils.Serial()
	}
	return &Pipeline{
		comm:   comm,
		props:  NewPropertyMap(),
		byName: make(map[string]*stage),
	}
}

func (p *Pipeline) Properties() *PropertyMap { return p.props }

// SetFinal selects the generator whose mesh Run returns
func (p *Pipeline) SetFinal(name string) { p.final = name }

// Add constructs a generator of a registered type
func (p *Pipeline) Add(typeName, name string, params InputParameters.Params) error {
	if name == "" {
		return fmt.Errorf("%s generator has no name", typeName)
	}
	if _, dup := p.byName[name]; dup {
		return fmt.Errorf("generator %q is defined twice", name)
	}
	ctor, ok := lookup(typeName)
	if !ok {
		return fmt.Errorf("generator %q: unknown type %q", name, typeName)
	}
	if params == nil {
		params = InputParameters.Params{}
	}
	s := &stage{name: name, typeName: typeName}
	p.byName[name] = s
	bc := &BuildContext{p: p, name: name}
	gen, err := ctor(bc, name, params)
	if err != nil {
		delete(p.byName, name)
		return err
	}
	s.gen, s.inputs = gen, bc.inputs
	s.id = int64(len(p.stages))
	p.stages = append(p.stages, s)
	return nil
}

// Build adds every generator block, all construction errors are reported
// together
func (p *Pipeline) Build(pp *InputParameters.PipelineParameters) (err error) {
	for _, blk := range pp.Generators {
		err = multierr.Append(err, p.Add(blk.Type, blk.Name, blk.Params))
	}
	if pp.Final != "" {
		p.final = pp.Final
	}
	return
}

// order sorts the generators so that producers run before consumers, ties
// keep the order of definition
func (p *Pipeline) order() (sorted []*stage, err error) {
	g := simple.NewDirectedGraph()
	for _, s := range p.stages {
		g.AddNode(simple.Node(s.id))
	}
	for _, s := range p.stages {
		for _, h := range s.inputs {
			producer, ok := p.byName[h.Name()]
			if !ok {
				return nil, fmt.Errorf("generator %q: input %q does not exist", s.name, h.Name())
			}
			if producer == s {
				return nil, fmt.Errorf("%w: %q consumes its own mesh", ErrDependencyCycle, s.name)
			}
			g.SetEdge(g.NewEdge(simple.Node(producer.id), simple.Node(s.id)))
		}
	}
	nodes, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			var names [][]string
			for _, component := range cycles {
				var cycle []string
				for _, n := range component {
					cycle = append(cycle, p.stages[n.ID()].name)
				}
				sort.Strings(cycle)
				names = append(names, cycle)
			}
			return nil, fmt.Errorf("%w: %v", ErrDependencyCycle, names)
		}
		return nil, err
	}
	for _, n := range nodes {
		sorted = append(sorted, p.stages[n.ID()])
	}
	return
}

// finalStage is the explicitly selected generator or the only one whose
// mesh nobody consumes
func (p *Pipeline) finalStage() (*stage, error) {
	if p.final != "" {
		s, ok := p.byName[p.final]
		if !ok {
			return nil, fmt.Errorf("final generator %q does not exist", p.final)
		}
		return s, nil
	}
	consumed := make(map[string]bool)
	for _, s := range p.stages {
		for _, h := range s.inputs {
			consumed[h.Name()] = true
		}
	}
	var sinks []string
	var sink *stage
	for _, s := range p.stages {
		if !consumed[s.name] {
			sinks = append(sinks, s.name)
			sink = s
		}
	}
	switch len(sinks) {
	case 0:
		return nil, errors.New("pipeline has no generators")
	case 1:
		return sink, nil
	}
	return nil, fmt.Errorf("generators %v are not consumed by any other, select the final one", sinks)
}

// Run generates every mesh and returns the final one
func (p *Pipeline) Run(ctx context.Context) (result *mesh.Mesh, err error) {
	sorted, err := p.order()
	if err != nil {
		return nil, err
	}
	final, err := p.finalStage()
	if err != nil {
		return nil, err
	}
	consumers := make(map[string][]*mesh.Handle)
	for _, s := range sorted {
		for _, h := range s.inputs {
			consumers[h.Name()] = append(consumers[h.Name()], h)
		}
	}

	for _, s := range sorted {
		var (
			logger = ctxlog.FromContext(ctx).With("generator", s.name, "type", s.typeName)
			gctx   = ctxlog.WithLogger(ctx, logger)
			m      *mesh.Mesh
		)
		logger.Debug("generating")
		if m, err = s.gen.Generate(gctx); err != nil {
			var (
				pe *InputParameters.ParamError
				me *MeshError
			)
			if errors.As(err, &pe) || errors.As(err, &me) {
				return nil, err
			}
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		if m == nil {
			return nil, &MeshError{Generator: s.name, Msg: "generated no mesh"}
		}
		logger.Info("generated", "elements", m.NElem(), "nodes", m.NNodes())

		// Every consumer but the last gets a copy, the last one the original
		handles := consumers[s.name]
		if s == final {
			if len(handles) > 0 {
				result = m.Clone()
			} else {
				result = m
			}
		}
		for i, h := range handles {
			if i < len(handles)-1 {
				h.Set(m.Clone())
			} else {
				h.Set(m)
			}
		}
	}
	return result, nil
}
