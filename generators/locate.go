package generators

import (
	"math"

	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// locateElement returns the element whose bounding box holds p, preferring
// the nearest centroid when boxes overlap. It returns nil when p lies
// outside every element held by m.
func locateElement(m *mesh.Mesh, p r3.Vec) (found *mesh.Elem) {
	best := math.Inf(1)
	for e := range m.Elements() {
		lo, hi := e.Nodes[0].Vec, e.Nodes[0].Vec
		for _, n := range e.Nodes[1:] {
			lo = r3.Vec{X: math.Min(lo.X, n.X), Y: math.Min(lo.Y, n.Y), Z: math.Min(lo.Z, n.Z)}
			hi = r3.Vec{X: math.Max(hi.X, n.X), Y: math.Max(hi.Y, n.Y), Z: math.Max(hi.Z, n.Z)}
		}
		tol := utils.NODETOL * (1 + r3.Norm(r3.Sub(hi, lo)))
		if p.X < lo.X-tol || p.X > hi.X+tol || p.Y < lo.Y-tol || p.Y > hi.Y+tol ||
			p.Z < lo.Z-tol || p.Z > hi.Z+tol {
			continue
		}
		if d := r3.Norm2(r3.Sub(p, e.Centroid())); d < best {
			found, best = e, d
		}
	}
	return
}

// nearestExternalSide returns the side of e without a neighbor whose
// centroid is closest to p, or -1
func nearestExternalSide(e *mesh.Elem, p r3.Vec) (side int) {
	side = -1
	best := math.Inf(1)
	for s := 0; s < e.NSides(); s++ {
		if e.Neighbor(s) != nil {
			continue
		}
		var c r3.Vec
		nodes := e.SideNodes(s)
		for _, n := range nodes {
			c = r3.Add(c, n.Vec)
		}
		c = r3.Scale(1/float64(len(nodes)), c)
		if d := r3.Norm2(r3.Sub(p, c)); d < best {
			side, best = s, d
		}
	}
	return
}
