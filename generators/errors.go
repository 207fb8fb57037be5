package generators

import (
	"errors"
	"fmt"

	"github.com/notargets/gomeshgen/InputParameters"
)

// MeshError reports a mesh that can not be processed as asked, as opposed
// to a bad parameter value
type MeshError struct {
	Generator string
	Msg       string
}

func (e *MeshError) Error() string {
	return fmt.Sprintf("%s: %s", e.Generator, e.Msg)
}

// ErrDependencyCycle is returned when the generators can not be ordered
var ErrDependencyCycle = errors.New("generator dependency cycle")

func (b *Base) paramErrorf(param, format string, args ...interface{}) error {
	return &InputParameters.ParamError{
		Generator: b.name,
		Param:     param,
		Msg:       fmt.Sprintf(format, args...),
	}
}

func (b *Base) meshErrorf(format string, args ...interface{}) error {
	return &MeshError{Generator: b.name, Msg: fmt.Sprintf(format, args...)}
}

// check attaches the generator name to parameter errors coming back from
// the Params accessors
func (b *Base) check(err error) error {
	var pe *InputParameters.ParamError
	if errors.As(err, &pe) && pe.Generator == "" {
		pe.Generator = b.name
	}
	return err
}
