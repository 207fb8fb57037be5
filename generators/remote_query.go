package generators

import (
	"context"
	"fmt"

	"github.com/notargets/gomeshgen/ctxlog"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/utils"
)

// SideQuery names one side of an element by its global id, it is evaluated
// on the rank owning the element
type SideQuery struct {
	ElemID int
	Side   int
}

type (
	sideTest  func(e *mesh.Elem, side int) bool
	sideApply func(e *mesh.Elem, side int)
)

// applySides runs test on every side of every element held by m and calls
// apply on the accepted ones. On a distributed mesh a ghost side facing
// RemoteElem can not be judged locally, it is sent to the rank owning the
// ghost, which holds the neighbor, and the accepted subset comes back to be
// applied. The boundary ids are made consistent across ranks afterwards.
func (g *SideSetsGeneratorBase) applySides(ctx context.Context, m *mesh.Mesh, test sideTest, apply sideApply) error {
	var (
		comm    = g.comm()
		rank    = m.Rank()
		queries = make(map[int][]SideQuery)
		nQuery  int
	)
	if !m.IsSerial() && m.NRanks() != comm.Size() {
		return g.meshErrorf("mesh is split over %d ranks but the pipeline runs on %d", m.NRanks(), comm.Size())
	}

	for e := range m.Elements() {
		for side := 0; side < e.NSides(); side++ {
			if e.Neighbor(side).IsRemote() {
				if e.ProcessorID == rank {
					return g.meshErrorf("local element %d has a remote neighbor on side %d", e.ID, side)
				}
				queries[e.ProcessorID] = append(queries[e.ProcessorID], SideQuery{ElemID: e.ID, Side: side})
				nQuery++
				continue
			}
			if test(e, side) {
				apply(e, side)
			}
		}
	}
	if m.IsSerial() {
		return nil
	}

	ctxlog.FromContext(ctx).Debug("querying remote sides", "rank", rank, "sides", nQuery)
	var (
		queryTag = comm.UniqueTag()
		replyTag = comm.UniqueTag()
		reqs     []*utils.Request
	)
	// Every peer gets a batch, possibly empty, so every rank knows how many
	// messages to wait for
	for peer := 0; peer < comm.Size(); peer++ {
		if peer != rank {
			reqs = append(reqs, comm.Isend(ctx, peer, queryTag, queries[peer]))
		}
	}
	for served, answered := 0, 0; served < comm.Size()-1 || answered < comm.Size()-1; {
		msg, err := comm.Recv(ctx, queryTag, replyTag)
		if err != nil {
			return err
		}
		batch := msg.Payload.([]SideQuery)
		switch msg.Tag {
		case queryTag:
			var accepted []SideQuery
			for _, q := range batch {
				e := m.Elem(q.ElemID)
				if e == nil || e.ProcessorID != rank {
					return g.meshErrorf("rank %d asked about element %d which rank %d does not own",
						msg.Source, q.ElemID, rank)
				}
				if test(e, q.Side) {
					accepted = append(accepted, q)
				}
			}
			reqs = append(reqs, comm.Isend(ctx, msg.Source, replyTag, accepted))
			served++
		case replyTag:
			for _, q := range batch {
				e := m.Elem(q.ElemID)
				if e == nil {
					return g.meshErrorf("rank %d answered about unknown element %d", msg.Source, q.ElemID)
				}
				apply(e, q.Side)
			}
			answered++
		}
	}
	if err := utils.WaitAll(reqs); err != nil {
		return err
	}
	return g.syncBoundaryIDs(ctx, m)
}

// syncBoundaryIDs makes every rank aware of the ids added anywhere
func (g *SideSetsGeneratorBase) syncBoundaryIDs(ctx context.Context, m *mesh.Mesh) error {
	if m.IsSerial() {
		return nil
	}
	bi := m.BoundaryInfo()
	local := make([]int, 0)
	for _, id := range bi.BoundaryIDs() {
		local = append(local, int(id))
	}
	union, err := g.comm().SetUnionInts(ctx, local)
	if err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	ids := make([]mesh.BoundaryID, len(union))
	for i, id := range union {
		ids[i] = mesh.BoundaryID(id)
	}
	bi.SetGlobalIDs(ids)
	return nil
}
