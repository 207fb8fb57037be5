package InputParameters

import (
	"fmt"
	"math"
	"strconv"
)

// ParamError is a configuration error attached to one named parameter
type ParamError struct {
	Generator string
	Param     string
	Msg       string
}

func (e *ParamError) Error() string {
	if e.Generator == "" {
		return fmt.Sprintf("parameter %q: %s", e.Param, e.Msg)
	}
	return fmt.Sprintf("%s: parameter %q: %s", e.Generator, e.Param, e.Msg)
}

// Params are the raw values of one generator block. Values decoded from YAML
// arrive as float64, string, bool and []interface{}, values set from Go may
// use the concrete slice types.
type Params map[string]interface{}

func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

func (p Params) errorf(name, format string, args ...interface{}) error {
	return &ParamError{Param: name, Msg: fmt.Sprintf(format, args...)}
}

func (p Params) Required(names ...string) error {
	for _, name := range names {
		if !p.Has(name) {
			return p.errorf(name, "required parameter is missing")
		}
	}
	return nil
}

func (p Params) String(name, def string) (string, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	return toString(v, func() error { return p.errorf(name, "expected a string, got %v", v) })
}

func toString(v interface{}, fail func() error) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	}
	return "", fail()
}

func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, p.errorf(name, "expected a number, got %v", v)
	}
	return f, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func (p Params) Int(name string, def int) (int, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	i, ok := toInt(v)
	if !ok {
		return 0, p.errorf(name, "expected an integer, got %v", v)
	}
	return i, nil
}

func toInt(v interface{}) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, p.errorf(name, "expected true or false, got %v", v)
	}
	return b, nil
}

func (p Params) list(name string) ([]interface{}, bool, error) {
	v, ok := p[name]
	if !ok {
		return nil, false, nil
	}
	switch x := v.(type) {
	case []interface{}:
		return x, true, nil
	case []string:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true, nil
	case []float64:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true, nil
	case []int:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true, nil
	case [][]int:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true, nil
	case [][]float64:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true, nil
	case []bool:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true, nil
	case [][]string:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true, nil
	case string:
		// a single value given where a list is expected
		return []interface{}{x}, true, nil
	}
	return nil, true, p.errorf(name, "expected a list, got %v", v)
}

// Strings returns a list of strings, numbers are formatted
func (p Params) Strings(name string) (out []string, err error) {
	items, _, err := p.list(name)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		s, serr := toString(it, func() error { return p.errorf(name, "expected strings, got %v", it) })
		if serr != nil {
			return nil, serr
		}
		out = append(out, s)
	}
	return
}

func (p Params) Floats(name string) (out []float64, err error) {
	items, _, err := p.list(name)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		f, ok := toFloat(it)
		if !ok {
			return nil, p.errorf(name, "expected numbers, got %v", it)
		}
		out = append(out, f)
	}
	return
}

func (p Params) Ints(name string) (out []int, err error) {
	items, _, err := p.list(name)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		i, ok := toInt(it)
		if !ok {
			return nil, p.errorf(name, "expected integers, got %v", it)
		}
		out = append(out, i)
	}
	return
}

func (p Params) Bools(name string) (out []bool, err error) {
	items, _, err := p.list(name)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		b, ok := it.(bool)
		if !ok {
			return nil, p.errorf(name, "expected true or false, got %v", it)
		}
		out = append(out, b)
	}
	return
}

func (p Params) sub(name string, row interface{}) Params {
	return Params{name: row}
}

// IntMatrix returns a list of integer rows, rows may differ in length
func (p Params) IntMatrix(name string) (out [][]int, err error) {
	rows, _, err := p.list(name)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		vals, rerr := p.sub(name, row).Ints(name)
		if rerr != nil {
			return nil, rerr
		}
		out = append(out, vals)
	}
	return
}

// FloatTuples returns a list of rows of exactly n numbers
func (p Params) FloatTuples(name string, n int) (out [][]float64, err error) {
	rows, _, err := p.list(name)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		vals, rerr := p.sub(name, row).Floats(name)
		if rerr != nil {
			return nil, rerr
		}
		if len(vals) != n {
			return nil, p.errorf(name, "expected %d components per entry, got %v", n, vals)
		}
		out = append(out, vals)
	}
	return
}

// StringPairs returns a list of two entry string rows
func (p Params) StringPairs(name string) (out [][2]string, err error) {
	rows, _, err := p.list(name)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		vals, rerr := p.sub(name, row).Strings(name)
		if rerr != nil {
			return nil, rerr
		}
		if len(vals) != 2 {
			return nil, p.errorf(name, "expected pairs, got %v", vals)
		}
		out = append(out, [2]string{vals[0], vals[1]})
	}
	return
}

// OneOf returns a string that must be one of the choices
func (p Params) OneOf(name, def string, choices ...string) (string, error) {
	v, err := p.String(name, def)
	if err != nil {
		return "", err
	}
	for _, c := range choices {
		if v == c {
			return v, nil
		}
	}
	return "", p.errorf(name, "%q is not one of %v", v, choices)
}
