package utils

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Message is one tagged point to point payload between ranks
type Message struct {
	Source, Tag int
	Payload     any
}

// World is a group of NP ranks exchanging messages, each rank runs in its
// own goroutine and shares nothing with the others except its inbox.
type World struct {
	NP      int
	inboxes []chan Message // One for each rank
}

func NewWorld(NP int) *World {
	w := &World{
		NP:      NP,
		inboxes: make([]chan Message, NP),
	}
	for n := 0; n < NP; n++ {
		w.inboxes[n] = make(chan Message, 4*NP) // Worst case is all-to-all
	}
	return w
}

// Comm returns the communicator of one rank. A Comm must only be used by
// the goroutine running that rank.
func (w *World) Comm(rank int) *Comm {
	if rank < 0 || rank >= w.NP {
		panic(fmt.Sprintf("rank %d out of bounds", rank))
	}
	return &Comm{world: w, rank: rank}
}

// Run executes fn on every rank concurrently and returns the first error.
// The context handed to fn is cancelled as soon as any rank fails, which
// unblocks the ranks waiting on a message that will never arrive.
func (w *World) Run(ctx context.Context, fn func(ctx context.Context, c *Comm) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < w.NP; rank++ {
		c := w.Comm(rank)
		g.Go(func() error {
			if err := fn(gctx, c); err != nil {
				return fmt.Errorf("rank %d: %w", c.rank, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Comm is the per rank endpoint of a World
type Comm struct {
	world   *World
	rank    int
	pending []Message // received but not yet matched
	tags    int       // unique user tags handed out so far
	colls   int       // collectives performed so far
}

// Serial returns a single rank communicator
func Serial() *Comm { return NewWorld(1).Comm(0) }

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.world.NP }

// UniqueTag returns a tag not used by earlier rounds. Every rank calls it
// the same number of times so the tags agree across ranks.
func (c *Comm) UniqueTag() int {
	c.tags++
	return 1000 + c.tags
}

// Request tracks the completion of a non blocking send
type Request struct {
	done chan error
	err  error
	fin  bool
}

// Wait blocks until the message is in the destination inbox
func (r *Request) Wait() error {
	if !r.fin {
		r.err = <-r.done
		r.fin = true
	}
	return r.err
}

// WaitAll waits for every request and returns the first failure
func WaitAll(reqs []*Request) (err error) {
	for _, r := range reqs {
		if werr := r.Wait(); werr != nil && err == nil {
			err = werr
		}
	}
	return
}

// Isend posts payload to dest without waiting for it to be received
func (c *Comm) Isend(ctx context.Context, dest, tag int, payload any) *Request {
	if dest < 0 || dest >= c.world.NP {
		panic(fmt.Sprintf("target rank %d out of bounds", dest))
	}
	var (
		req = &Request{done: make(chan error, 1)}
		msg = Message{Source: c.rank, Tag: tag, Payload: payload}
	)
	go func() {
		select {
		case c.world.inboxes[dest] <- msg:
			req.done <- nil
		case <-ctx.Done():
			req.done <- ctx.Err()
		}
	}()
	return req
}

// Recv blocks until a message with one of the tags arrives from any rank.
// Messages with other tags are kept for later calls.
func (c *Comm) Recv(ctx context.Context, tags ...int) (Message, error) {
	match := func(tag int) bool {
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
		return false
	}
	for i, msg := range c.pending {
		if match(msg.Tag) {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return msg, nil
		}
	}
	for {
		select {
		case msg := <-c.world.inboxes[c.rank]:
			if match(msg.Tag) {
				return msg, nil
			}
			c.pending = append(c.pending, msg)
		case <-ctx.Done():
			return Message{}, fmt.Errorf("waiting for tags %v: %w", tags, ctx.Err())
		}
	}
}

// AllGatherInts returns the values contributed by every rank, indexed by rank
func (c *Comm) AllGatherInts(ctx context.Context, vals []int) (all [][]int, err error) {
	c.colls++
	var (
		tag  = -c.colls
		reqs []*Request
	)
	all = make([][]int, c.world.NP)
	all[c.rank] = append([]int(nil), vals...)
	for dest := 0; dest < c.world.NP; dest++ {
		if dest != c.rank {
			reqs = append(reqs, c.Isend(ctx, dest, tag, append([]int(nil), vals...)))
		}
	}
	for n := 1; n < c.world.NP; n++ {
		var msg Message
		if msg, err = c.Recv(ctx, tag); err != nil {
			return nil, err
		}
		all[msg.Source] = msg.Payload.([]int)
	}
	err = WaitAll(reqs)
	return
}

// SetUnionInts returns the sorted union of the values of all ranks
func (c *Comm) SetUnionInts(ctx context.Context, vals []int) ([]int, error) {
	all, err := c.AllGatherInts(ctx, vals)
	if err != nil {
		return nil, err
	}
	set := make(map[int]struct{})
	for _, v := range all {
		for _, x := range v {
			set[x] = struct{}{}
		}
	}
	union := make([]int, 0, len(set))
	for x := range set {
		union = append(union, x)
	}
	sort.Ints(union)
	return union, nil
}

// Barrier returns once every rank has called it
func (c *Comm) Barrier(ctx context.Context) error {
	_, err := c.AllGatherInts(ctx, nil)
	return err
}

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// GetBucket returns the partition holding index k and its index range
func (pm *PartitionMap) GetBucket(k int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(k)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(k int) (tryCount, bucketNum, min, max int) {
	if k < 0 || k >= pm.MaxIndex {
		return 0, -1, 0, 0
	}
	// Initial guess
	bucketNum = int(float64(pm.ParallelDegree*k) / float64(pm.MaxIndex))
	for !(pm.Partitions[bucketNum][0] <= k && pm.Partitions[bucketNum][1] > k) {
		if pm.Partitions[bucketNum][0] > k {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.ParallelDegree {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into c.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
