package mesh

import (
	"sort"
)

// BoundarySide is one (element, side, id) entry of a sideset
type BoundarySide struct {
	Elem *Elem
	Side int
	ID   BoundaryID
}

type sideEntry struct {
	side int
	id   BoundaryID
}

// BoundaryInfo holds the side and node boundary multimaps together with the
// sideset and nodeset names. Adding an entry is an idempotent set insert.
type BoundaryInfo struct {
	sides        map[*Elem][]sideEntry
	nodes        map[*Node][]BoundaryID
	sidesetNames map[BoundaryID]string
	nodesetNames map[BoundaryID]string
	// IDs known to exist on some rank, kept consistent by SetGlobalIDs
	globalIDs map[BoundaryID]struct{}
}

func newBoundaryInfo() *BoundaryInfo {
	return &BoundaryInfo{
		sides:        make(map[*Elem][]sideEntry),
		nodes:        make(map[*Node][]BoundaryID),
		sidesetNames: make(map[BoundaryID]string),
		nodesetNames: make(map[BoundaryID]string),
		globalIDs:    make(map[BoundaryID]struct{}),
	}
}

// AddSide adds id to (e, side)
func (bi *BoundaryInfo) AddSide(e *Elem, side int, id BoundaryID) {
	if e == nil || e == RemoteElem || id == InvalidBoundaryID {
		return
	}
	if bi.HasBoundaryID(e, side, id) {
		return
	}
	bi.sides[e] = append(bi.sides[e], sideEntry{side: side, id: id})
}

// RemoveSide removes id from (e, side) and reports whether it was present
func (bi *BoundaryInfo) RemoveSide(e *Elem, side int, id BoundaryID) bool {
	entries := bi.sides[e]
	for i, se := range entries {
		if se.side == side && se.id == id {
			bi.setEntries(e, append(entries[:i:i], entries[i+1:]...))
			return true
		}
	}
	return false
}

// RemoveSideIDs removes every id from (e, side)
func (bi *BoundaryInfo) RemoveSideIDs(e *Elem, side int) {
	var kept []sideEntry
	for _, se := range bi.sides[e] {
		if se.side != side {
			kept = append(kept, se)
		}
	}
	bi.setEntries(e, kept)
}

func (bi *BoundaryInfo) setEntries(e *Elem, entries []sideEntry) {
	if len(entries) == 0 {
		delete(bi.sides, e)
		return
	}
	bi.sides[e] = entries
}

func (bi *BoundaryInfo) HasBoundaryID(e *Elem, side int, id BoundaryID) bool {
	for _, se := range bi.sides[e] {
		if se.side == side && se.id == id {
			return true
		}
	}
	return false
}

// SideBoundaryIDs returns the sorted ids on (e, side)
func (bi *BoundaryInfo) SideBoundaryIDs(e *Elem, side int) (ids []BoundaryID) {
	for _, se := range bi.sides[e] {
		if se.side == side {
			ids = append(ids, se.id)
		}
	}
	sortIDs(ids)
	return
}

// AddNode adds id to a node
func (bi *BoundaryInfo) AddNode(n *Node, id BoundaryID) {
	if id == InvalidBoundaryID {
		return
	}
	for _, have := range bi.nodes[n] {
		if have == id {
			return
		}
	}
	bi.nodes[n] = append(bi.nodes[n], id)
}

func (bi *BoundaryInfo) RemoveNode(n *Node, id BoundaryID) {
	ids := bi.nodes[n]
	for i, have := range ids {
		if have == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(bi.nodes, n)
		return
	}
	bi.nodes[n] = ids
}

// NodeBoundaryIDs returns the sorted ids on a node
func (bi *BoundaryInfo) NodeBoundaryIDs(n *Node) (ids []BoundaryID) {
	ids = append(ids, bi.nodes[n]...)
	sortIDs(ids)
	return
}

// BoundaryIDs returns every id in use on this rank plus the ids made
// global by SetGlobalIDs
func (bi *BoundaryInfo) BoundaryIDs() (ids []BoundaryID) {
	set := make(map[BoundaryID]struct{})
	for _, entries := range bi.sides {
		for _, se := range entries {
			set[se.id] = struct{}{}
		}
	}
	for _, nids := range bi.nodes {
		for _, id := range nids {
			set[id] = struct{}{}
		}
	}
	for id := range bi.globalIDs {
		set[id] = struct{}{}
	}
	return setToSorted(set)
}

// SidesetIDs returns the ids that have at least one local side
func (bi *BoundaryInfo) SidesetIDs() []BoundaryID {
	set := make(map[BoundaryID]struct{})
	for _, entries := range bi.sides {
		for _, se := range entries {
			set[se.id] = struct{}{}
		}
	}
	return setToSorted(set)
}

func (bi *BoundaryInfo) HasID(id BoundaryID) bool {
	for _, have := range bi.BoundaryIDs() {
		if have == id {
			return true
		}
	}
	return false
}

// SetGlobalIDs records ids known to exist on some other rank
func (bi *BoundaryInfo) SetGlobalIDs(ids []BoundaryID) {
	for _, id := range ids {
		bi.globalIDs[id] = struct{}{}
	}
}

// RemoveID removes every side, node and name carrying id
func (bi *BoundaryInfo) RemoveID(id BoundaryID) {
	for e, entries := range bi.sides {
		var kept []sideEntry
		for _, se := range entries {
			if se.id != id {
				kept = append(kept, se)
			}
		}
		bi.setEntries(e, kept)
	}
	for n := range bi.nodes {
		bi.RemoveNode(n, id)
	}
	delete(bi.sidesetNames, id)
	delete(bi.nodesetNames, id)
	delete(bi.globalIDs, id)
}

// RenumberID moves every entity and name from oldID to newID. Entities
// already carrying newID are merged, names of newID win.
func (bi *BoundaryInfo) RenumberID(oldID, newID BoundaryID) {
	if oldID == newID {
		return
	}
	for e, entries := range bi.sides {
		for _, se := range entries {
			if se.id == oldID {
				bi.AddSide(e, se.side, newID)
				bi.RemoveSide(e, se.side, oldID)
			}
		}
	}
	for n, ids := range bi.nodes {
		for _, id := range ids {
			if id == oldID {
				bi.AddNode(n, newID)
				bi.RemoveNode(n, oldID)
			}
		}
	}
	if name, ok := bi.sidesetNames[oldID]; ok {
		if _, taken := bi.sidesetNames[newID]; !taken {
			bi.sidesetNames[newID] = name
		}
		delete(bi.sidesetNames, oldID)
	}
	if name, ok := bi.nodesetNames[oldID]; ok {
		if _, taken := bi.nodesetNames[newID]; !taken {
			bi.nodesetNames[newID] = name
		}
		delete(bi.nodesetNames, oldID)
	}
	if _, ok := bi.globalIDs[oldID]; ok {
		delete(bi.globalIDs, oldID)
		bi.globalIDs[newID] = struct{}{}
	}
}

func (bi *BoundaryInfo) SidesetName(id BoundaryID) string { return bi.sidesetNames[id] }

func (bi *BoundaryInfo) SetSidesetName(id BoundaryID, name string) {
	if name == "" {
		delete(bi.sidesetNames, id)
		return
	}
	bi.sidesetNames[id] = name
}

func (bi *BoundaryInfo) NodesetName(id BoundaryID) string { return bi.nodesetNames[id] }

func (bi *BoundaryInfo) SetNodesetName(id BoundaryID, name string) {
	if name == "" {
		delete(bi.nodesetNames, id)
		return
	}
	bi.nodesetNames[id] = name
}

// SidesetNames returns a copy of the sideset name map
func (bi *BoundaryInfo) SidesetNames() map[BoundaryID]string {
	names := make(map[BoundaryID]string, len(bi.sidesetNames))
	for id, name := range bi.sidesetNames {
		names[id] = name
	}
	return names
}

// IDByName looks a name up in the sideset names then the nodeset names
func (bi *BoundaryInfo) IDByName(name string) BoundaryID {
	found := InvalidBoundaryID
	for id, n := range bi.sidesetNames {
		if n == name && (found == InvalidBoundaryID || id < found) {
			found = id
		}
	}
	if found != InvalidBoundaryID {
		return found
	}
	for id, n := range bi.nodesetNames {
		if n == name && (found == InvalidBoundaryID || id < found) {
			found = id
		}
	}
	return found
}

// SideList returns every side entry ordered by element id, side and id
func (bi *BoundaryInfo) SideList() (list []BoundarySide) {
	for e, entries := range bi.sides {
		for _, se := range entries {
			list = append(list, BoundarySide{Elem: e, Side: se.side, ID: se.id})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Elem.ID != b.Elem.ID {
			return a.Elem.ID < b.Elem.ID
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.ID < b.ID
	})
	return
}

// SidesetMap groups the side entries by element
func (bi *BoundaryInfo) SidesetMap() map[*Elem][]BoundarySide {
	sm := make(map[*Elem][]BoundarySide, len(bi.sides))
	for _, bs := range bi.SideList() {
		sm[bs.Elem] = append(sm[bs.Elem], bs)
	}
	return sm
}

// NSides counts the side entries
func (bi *BoundaryInfo) NSides() (n int) {
	for _, entries := range bi.sides {
		n += len(entries)
	}
	return
}

// BoundaryNodes returns the nodes of all sides carrying id, ordered by id
func (bi *BoundaryInfo) BoundaryNodes(id BoundaryID) (nodes []*Node) {
	seen := make(map[*Node]struct{})
	for e, entries := range bi.sides {
		for _, se := range entries {
			if se.id != id {
				continue
			}
			for _, n := range e.SideNodes(se.side) {
				if _, ok := seen[n]; !ok {
					seen[n] = struct{}{}
					nodes = append(nodes, n)
				}
			}
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return
}

// BuildNodeListFromSideList adds every side id to the nodes of that side
func (bi *BoundaryInfo) BuildNodeListFromSideList() {
	for _, bs := range bi.SideList() {
		for _, n := range bs.Elem.SideNodes(bs.Side) {
			bi.AddNode(n, bs.ID)
		}
	}
	for id, name := range bi.sidesetNames {
		if _, ok := bi.nodesetNames[id]; !ok {
			bi.nodesetNames[id] = name
		}
	}
}

// BuildSideListFromNodeList adds a side id to every external side whose
// nodes all carry that nodeset id
func (bi *BoundaryInfo) BuildSideListFromNodeList(m *Mesh) {
	for e := range m.Elements() {
		for s := 0; s < e.NSides(); s++ {
			if e.Neighbor(s) != nil {
				continue
			}
			nodes := e.SideNodes(s)
			for _, id := range bi.nodes[nodes[0]] {
				all := true
				for _, n := range nodes[1:] {
					if !containsID(bi.nodes[n], id) {
						all = false
						break
					}
				}
				if all {
					bi.AddSide(e, s, id)
				}
			}
		}
	}
	for id, name := range bi.nodesetNames {
		if _, ok := bi.sidesetNames[id]; !ok {
			bi.sidesetNames[id] = name
		}
	}
}

func (bi *BoundaryInfo) sideCounts() map[BoundaryID]int {
	counts := make(map[BoundaryID]int)
	for _, entries := range bi.sides {
		for _, se := range entries {
			counts[se.id]++
		}
	}
	return counts
}

func (bi *BoundaryInfo) removeElem(e *Elem) {
	delete(bi.sides, e)
}

func (bi *BoundaryInfo) removeNode(n *Node) {
	delete(bi.nodes, n)
}

func (bi *BoundaryInfo) permuteSides(e *Elem, perm []int) {
	entries := bi.sides[e]
	for i := range entries {
		entries[i].side = perm[entries[i].side]
	}
}

// copyFrom copies the entries of src whose elements/nodes are mapped. Names
// already set in bi are kept.
func (bi *BoundaryInfo) copyFrom(src *BoundaryInfo, elemMap map[*Elem]*Elem,
	nodeMap map[*Node]*Node) {
	for e, entries := range src.sides {
		ce, ok := elemMap[e]
		if !ok {
			continue
		}
		for _, se := range entries {
			bi.AddSide(ce, se.side, se.id)
		}
	}
	for n, ids := range src.nodes {
		cn, ok := nodeMap[n]
		if !ok {
			continue
		}
		for _, id := range ids {
			bi.AddNode(cn, id)
		}
	}
	for id, name := range src.sidesetNames {
		if _, ok := bi.sidesetNames[id]; !ok {
			bi.sidesetNames[id] = name
		}
	}
	for id, name := range src.nodesetNames {
		if _, ok := bi.nodesetNames[id]; !ok {
			bi.nodesetNames[id] = name
		}
	}
	for id := range src.globalIDs {
		bi.globalIDs[id] = struct{}{}
	}
}

func containsID(ids []BoundaryID, id BoundaryID) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

func sortIDs(ids []BoundaryID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func setToSorted(set map[BoundaryID]struct{}) (ids []BoundaryID) {
	for id := range set {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return
}
