package generators

import (
	"fmt"
	"sort"
)

type propertyKey struct {
	owner, name string
}

// PropertyMap holds the typed values generators publish alongside their
// meshes, keyed by the publishing generator and the property name
type PropertyMap struct {
	values map[propertyKey]any
}

func NewPropertyMap() *PropertyMap {
	return &PropertyMap{values: make(map[propertyKey]any)}
}

// DeclareProperty registers a property of owner initialized to def and
// returns the storage the owner writes into. Declaring the same property
// twice returns the existing storage when the types agree.
func DeclareProperty[T any](pm *PropertyMap, owner, name string, def T) (*T, error) {
	key := propertyKey{owner, name}
	if v, ok := pm.values[key]; ok {
		p, ok := v.(*T)
		if !ok {
			return nil, fmt.Errorf("property %s/%s already declared as %T", owner, name, v)
		}
		return p, nil
	}
	p := new(T)
	*p = def
	pm.values[key] = p
	return p, nil
}

// GetProperty returns the current value of a declared property
func GetProperty[T any](pm *PropertyMap, owner, name string) (val T, err error) {
	v, ok := pm.values[propertyKey{owner, name}]
	if !ok {
		return val, fmt.Errorf("property %s/%s has not been declared", owner, name)
	}
	p, ok := v.(*T)
	if !ok {
		return val, fmt.Errorf("property %s/%s is a %T, not a %T", owner, name, v, &val)
	}
	return *p, nil
}

func (pm *PropertyMap) Has(owner, name string) bool {
	_, ok := pm.values[propertyKey{owner, name}]
	return ok
}

// Names lists the declared properties as owner/name
func (pm *PropertyMap) Names() (names []string) {
	for k := range pm.values {
		names = append(names, k.owner+"/"+k.name)
	}
	sort.Strings(names)
	return
}
