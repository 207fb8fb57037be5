package generators

import (
	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

type cachedNormal struct {
	n  r3.Vec
	ok bool
}

// normalCache evaluates side and element normals at most once per
// generate call. It is created in setup and dropped in finalize so that no
// scratch survives between meshes.
type normalCache struct {
	sides map[*mesh.Elem][]*cachedNormal
	elems map[*mesh.Elem]cachedNormal
}

func newNormalCache() *normalCache {
	return &normalCache{
		sides: make(map[*mesh.Elem][]*cachedNormal),
		elems: make(map[*mesh.Elem]cachedNormal),
	}
}

// side returns the outward unit normal of a side, ok is false on a
// degenerate side
func (nc *normalCache) side(e *mesh.Elem, side int) (r3.Vec, bool) {
	cache, found := nc.sides[e]
	if !found {
		cache = make([]*cachedNormal, e.NSides())
		nc.sides[e] = cache
	}
	if cache[side] == nil {
		n, ok := e.SideNormal(side)
		cache[side] = &cachedNormal{n: n, ok: ok}
	}
	return cache[side].n, cache[side].ok
}

// elem returns the unit normal of a 2D element
func (nc *normalCache) elem(e *mesh.Elem) (r3.Vec, bool) {
	if c, found := nc.elems[e]; found {
		return c.n, c.ok
	}
	n, ok := e.Normal()
	nc.elems[e] = cachedNormal{n: n, ok: ok}
	return n, ok
}

// forget drops the cached normals of e after its nodes moved or its winding
// changed
func (nc *normalCache) forget(e *mesh.Elem) {
	delete(nc.sides, e)
	delete(nc.elems, e)
}
