package generators

import (
	"github.com/notargets/gomeshgen/InputParameters"
	"gonum.org/v1/gonum/spatial/r3"
)

// readVec reads an optional point or direction given as 2 or 3 numbers
func readVec(params InputParameters.Params, name string) (v r3.Vec, ok bool, err error) {
	if !params.Has(name) {
		return
	}
	x, err := params.Floats(name)
	if err != nil {
		return
	}
	if len(x) < 2 || len(x) > 3 {
		err = &InputParameters.ParamError{Param: name, Msg: "expected 2 or 3 components"}
		return
	}
	v = r3.Vec{X: x[0], Y: x[1]}
	if len(x) == 3 {
		v.Z = x[2]
	}
	return v, true, nil
}

// readVecs reads a list of points, each with 2 or 3 components
func readVecs(params InputParameters.Params, name string) (vs []r3.Vec, err error) {
	if !params.Has(name) {
		return
	}
	var rows [][]float64
	if rows, err = params.FloatTuples(name, 3); err != nil {
		if rows, err = params.FloatTuples(name, 2); err != nil {
			return nil, &InputParameters.ParamError{Param: name, Msg: "expected a list of points with 2 or 3 components"}
		}
	}
	for _, x := range rows {
		v := r3.Vec{X: x[0], Y: x[1]}
		if len(x) == 3 {
			v.Z = x[2]
		}
		vs = append(vs, v)
	}
	return
}

// unitVec normalizes a user direction, the zero vector is rejected
func (b *Base) unitVec(param string, v r3.Vec) (r3.Vec, error) {
	norm := r3.Norm(v)
	if norm == 0 {
		return v, b.paramErrorf(param, "the zero vector has no direction")
	}
	return r3.Scale(1/norm, v), nil
}
