package meshutils

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/notargets/gomeshgen/mesh"
)

// AnyBoundaryName selects every boundary of a mesh
const AnyBoundaryName = "ANY_BOUNDARY_ID"

// GetBoundaryID resolves a boundary name or a numeric id string
func GetBoundaryID(m *mesh.Mesh, name string) mesh.BoundaryID {
	if id := m.BoundaryInfo().IDByName(name); id != mesh.InvalidBoundaryID {
		return id
	}
	if id, err := strconv.Atoi(name); err == nil && id >= 0 {
		return mesh.BoundaryID(id)
	}
	return mesh.InvalidBoundaryID
}

// GetBoundaryIDs resolves a list of names. Unknown names are either reported
// as InvalidBoundaryID or, with generateUnknown, assigned new ids above the
// current maximum, the same new name always getting the same id.
func GetBoundaryIDs(m *mesh.Mesh, names []string, generateUnknown bool) (ids []mesh.BoundaryID, err error) {
	var (
		next      = NextFreeBoundaryID(m)
		generated = make(map[string]mesh.BoundaryID)
	)
	for _, name := range names {
		if name == AnyBoundaryName {
			if len(names) > 1 {
				return nil, fmt.Errorf("%s must be the only boundary name given, got %v", AnyBoundaryName, names)
			}
			return m.BoundaryInfo().BoundaryIDs(), nil
		}
		id := GetBoundaryID(m, name)
		if id == mesh.InvalidBoundaryID && generateUnknown {
			var ok bool
			if id, ok = generated[name]; !ok {
				id = next
				next++
				generated[name] = id
			}
		}
		ids = append(ids, id)
	}
	return
}

// GetSubdomainIDs resolves subdomain names or numeric ids, every name must
// be known
func GetSubdomainIDs(m *mesh.Mesh, names []string) (ids []mesh.SubdomainID, err error) {
	for _, name := range names {
		if id, ok := m.SubdomainIDByName(name); ok {
			ids = append(ids, id)
			continue
		}
		id, cerr := strconv.Atoi(name)
		if cerr != nil {
			return nil, fmt.Errorf("subdomain %q not found in the mesh", name)
		}
		ids = append(ids, mesh.SubdomainID(id))
	}
	return
}

// NextFreeBoundaryID returns one past the largest boundary id in use
func NextFreeBoundaryID(m *mesh.Mesh) mesh.BoundaryID {
	ids := m.BoundaryInfo().BoundaryIDs()
	if len(ids) == 0 {
		return 0
	}
	return ids[len(ids)-1] + 1
}

// NextFreeSubdomainID returns one past the largest subdomain id in use
// including ids that only appear in the name map
func NextFreeSubdomainID(m *mesh.Mesh) mesh.SubdomainID {
	next := mesh.SubdomainID(0)
	for _, id := range m.SubdomainIDs() {
		if id >= next {
			next = id + 1
		}
	}
	for id := range m.SubdomainNames() {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// ChangeBoundaryID adds newID to every side and node carrying oldID, with
// deleteOld the old id is removed afterwards
func ChangeBoundaryID(m *mesh.Mesh, oldID, newID mesh.BoundaryID, deleteOld bool) {
	bi := m.BoundaryInfo()
	for _, bs := range bi.SideList() {
		if bs.ID == oldID {
			bi.AddSide(bs.Elem, bs.Side, newID)
		}
	}
	for n := range m.Nodes() {
		for _, id := range bi.NodeBoundaryIDs(n) {
			if id == oldID {
				bi.AddNode(n, newID)
			}
		}
	}
	if deleteOld {
		bi.RemoveID(oldID)
	}
}

// RenumberStep is one id move applied by PermuteBoundaryIDs
type RenumberStep struct {
	From, To mesh.BoundaryID
}

// PermuteBoundaryIDs relabels boundary ids so that every entity and name of
// id k ends up on perm[k]. The moves go through unused temporary ids, a swap
// of 0 and 2 is applied as 0->N, 2->N+1, N->2, N+1->0. Targets that are not
// themselves moved must be free.
func PermuteBoundaryIDs(m *mesh.Mesh, perm map[mesh.BoundaryID]mesh.BoundaryID) (steps []RenumberStep, err error) {
	var (
		bi   = m.BoundaryInfo()
		olds []mesh.BoundaryID
		seen = make(map[mesh.BoundaryID]mesh.BoundaryID)
	)
	for from, to := range perm {
		if from == to {
			continue
		}
		if other, dup := seen[to]; dup {
			return nil, fmt.Errorf("boundary ids %d and %d both map to %d", other, from, to)
		}
		seen[to] = from
		olds = append(olds, from)
	}
	sort.Slice(olds, func(i, j int) bool { return olds[i] < olds[j] })
	for _, from := range olds {
		to := perm[from]
		if _, moved := perm[to]; !moved && bi.HasID(to) {
			return nil, fmt.Errorf("boundary id %d is in use and is not part of the permutation", to)
		}
	}

	temp := NextFreeBoundaryID(m)
	for _, id := range append(olds, valuesOf(perm)...) {
		if id >= temp {
			temp = id + 1
		}
	}
	apply := func(from, to mesh.BoundaryID) error {
		if bi.HasID(to) || bi.SidesetName(to) != "" || bi.NodesetName(to) != "" {
			return fmt.Errorf("renumbering %d to %d would merge into an id in use", from, to)
		}
		bi.RenumberID(from, to)
		steps = append(steps, RenumberStep{From: from, To: to})
		return nil
	}
	temps := make([]mesh.BoundaryID, len(olds))
	for i, from := range olds {
		temps[i] = temp + mesh.BoundaryID(i)
		if err = apply(from, temps[i]); err != nil {
			return
		}
	}
	for i, from := range olds {
		if err = apply(temps[i], perm[from]); err != nil {
			return
		}
	}
	return
}

func valuesOf(perm map[mesh.BoundaryID]mesh.BoundaryID) (vals []mesh.BoundaryID) {
	for _, v := range perm {
		vals = append(vals, v)
	}
	return
}

// RotateBoundaryNames shifts the sideset names of ids by quarterTurns
// positions, so that with ids ordered left, bottom, right, top a quarter turn
// counter clockwise names id[k] after the old name of id[k+1]
func RotateBoundaryNames(m *mesh.Mesh, ids []mesh.BoundaryID, quarterTurns int) {
	var (
		bi    = m.BoundaryInfo()
		n     = len(ids)
		names = make([]string, n)
	)
	if n == 0 {
		return
	}
	for k, id := range ids {
		names[k] = bi.SidesetName(id)
	}
	shift := ((quarterTurns % n) + n) % n
	for k, id := range ids {
		bi.SetSidesetName(id, names[(k+shift)%n])
	}
}

// MergeBoundaryIDsWithSameName folds every id sharing a sideset name into
// the smallest id carrying that name
func MergeBoundaryIDsWithSameName(m *mesh.Mesh) {
	var (
		bi     = m.BoundaryInfo()
		byName = make(map[string][]mesh.BoundaryID)
	)
	for id, name := range bi.SidesetNames() {
		byName[name] = append(byName[name], id)
	}
	for _, ids := range byName {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids[1:] {
			bi.RenumberID(id, ids[0])
		}
	}
}
