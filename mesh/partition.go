package mesh

import (
	"fmt"

	"github.com/notargets/gomeshgen/utils"
)

// Partition block splits the elements of a serial mesh over nRanks and
// returns the local mesh of every rank. A local mesh holds the owned
// elements plus one layer of ghost elements across their sides. Links from a
// ghost to an element outside the local mesh are set to RemoteElem. Element
// and node ids stay global.
func (m *Mesh) Partition(nRanks int) (parts []*Mesh, err error) {
	if !m.IsSerial() {
		return nil, fmt.Errorf("partition: mesh is already distributed")
	}
	if nRanks < 1 {
		return nil, fmt.Errorf("partition: invalid rank count %d", nRanks)
	}
	if !m.prepared {
		m.PrepareForUse()
	}
	var (
		elems = make([]*Elem, 0, len(m.elems))
	)
	for e := range m.Elements() {
		elems = append(elems, e)
	}
	if len(elems) < nRanks {
		return nil, fmt.Errorf("partition: %d elements can not be split over %d ranks", len(elems), nRanks)
	}
	pm := utils.NewPartitionMap(nRanks, len(elems))
	for k, e := range elems {
		bn, _, _ := pm.GetBucket(k)
		e.ProcessorID = bn
	}
	parts = make([]*Mesh, nRanks)
	for rank := range parts {
		parts[rank] = m.localPart(rank, nRanks)
	}
	return
}

func (m *Mesh) localPart(rank, nRanks int) *Mesh {
	var (
		lm      = NewMesh(m.dim)
		include = make(map[*Elem]bool)
		nodeMap = make(map[*Node]*Node)
		elemMap = make(map[*Elem]*Elem)
	)
	lm.rank, lm.nRanks = rank, nRanks
	for e := range m.Elements() {
		if e.ProcessorID != rank {
			continue
		}
		include[e] = true
		for s := 0; s < e.NSides(); s++ {
			if nbr := e.Neighbor(s); nbr != nil {
				include[nbr] = true
			}
		}
	}
	for e := range m.Elements() {
		if !include[e] {
			continue
		}
		nodes := make([]*Node, len(e.Nodes))
		for i, n := range e.Nodes {
			ln, ok := nodeMap[n]
			if !ok {
				ln = lm.addNodeWithID(n.ID, n.Vec)
				nodeMap[n] = ln
			}
			nodes[i] = ln
		}
		le := lm.addElemWithID(e.ID, e.Type, nodes)
		le.SubdomainID = e.SubdomainID
		le.ProcessorID = e.ProcessorID
		elemMap[e] = le
	}
	for e, le := range elemMap {
		for s := 0; s < e.NSides(); s++ {
			nbr := e.Neighbor(s)
			switch {
			case nbr == nil:
			case include[nbr]:
				le.neighbors[s] = elemMap[nbr]
			default:
				le.neighbors[s] = RemoteElem
			}
		}
	}
	lm.boundary.copyFrom(m.boundary, elemMap, nodeMap)
	lm.boundary.SetGlobalIDs(m.boundary.BoundaryIDs())
	lm.subdomainNames = m.SubdomainNames()
	lm.prepared = true
	return lm
}
