// Package meshutils holds the geometric predicates and the id bookkeeping
// shared by the generators.
package meshutils

import (
	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// NormalsWithinTol is a cosine distance test, tol = 0 requires exact
// alignment while tol = 2 accepts any pair of unit vectors.
func NormalsWithinTol(n1, n2 r3.Vec, tol float64) bool {
	return 1-r3.Dot(n1, n2) <= tol
}

// ElementSubdomainIDInList reports whether the subdomain of e is in ids
func ElementSubdomainIDInList(e *mesh.Elem, ids []mesh.SubdomainID) bool {
	for _, id := range ids {
		if e.SubdomainID == id {
			return true
		}
	}
	return false
}

// ElemSideIncludedBoundary reports whether (e, side) carries any of ids
func ElemSideIncludedBoundary(e *mesh.Elem, side int, ids []mesh.BoundaryID, bi *mesh.BoundaryInfo) bool {
	for _, id := range ids {
		if bi.HasBoundaryID(e, side, id) {
			return true
		}
	}
	return false
}

// ElemSideExcludedBoundary reports whether (e, side) carries any of ids and
// therefore must be rejected
func ElemSideExcludedBoundary(e *mesh.Elem, side int, ids []mesh.BoundaryID, bi *mesh.BoundaryInfo) bool {
	return ElemSideIncludedBoundary(e, side, ids, bi)
}

// WithinDistance compares squared distances, inclusive of the limit
func WithinDistance(a, b r3.Vec, maxDistSquared float64) bool {
	return r3.Norm2(r3.Sub(a, b)) <= maxDistSquared
}
