package mesh

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Translate moves every node by d
func (m *Mesh) Translate(d r3.Vec) {
	for n := range m.Nodes() {
		n.Vec = r3.Add(n.Vec, d)
	}
}

// RotateZ rotates the mesh counter clockwise about the z axis. Quarter turns
// are applied exactly so that stitched copies stay coincident.
func (m *Mesh) RotateZ(degrees float64) {
	var (
		rad      = degrees * math.Pi / 180
		sin, cos = math.Sincos(rad)
	)
	if q := degrees / 90; q == math.Trunc(q) {
		switch ((int(q) % 4) + 4) % 4 {
		case 0:
			sin, cos = 0, 1
		case 1:
			sin, cos = 1, 0
		case 2:
			sin, cos = 0, -1
		case 3:
			sin, cos = -1, 0
		}
	}
	for n := range m.Nodes() {
		x, y := n.X, n.Y
		n.X = cos*x - sin*y
		n.Y = sin*x + cos*y
	}
}

// Scale multiplies every coordinate component wise
func (m *Mesh) Scale(s r3.Vec) {
	for n := range m.Nodes() {
		n.X *= s.X
		n.Y *= s.Y
		n.Z *= s.Z
	}
}

// BoundingBox returns the min and max corners, zero vectors for an empty mesh
func (m *Mesh) BoundingBox() (lo, hi r3.Vec) {
	var xs, ys, zs []float64
	for n := range m.Nodes() {
		xs = append(xs, n.X)
		ys = append(ys, n.Y)
		zs = append(zs, n.Z)
	}
	if len(xs) == 0 {
		return
	}
	lo = r3.Vec{X: floats.Min(xs), Y: floats.Min(ys), Z: floats.Min(zs)}
	hi = r3.Vec{X: floats.Max(xs), Y: floats.Max(ys), Z: floats.Max(zs)}
	return
}
