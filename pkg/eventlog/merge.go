package eventlog

import (
	"container/heap"
	"context"
	"io"
)

// MergedSource combines several Sources into one stream ordered by parsed
// timestamp, oldest first. Records without a parsable timestamp sort first.
// Ties keep source order, so merging is deterministic.
type MergedSource struct {
	sources     []Source
	heap        *recordHeap
	initialized bool
	seq         int
}

// NewMergedSource creates a Source that merges the given sources by timestamp.
func NewMergedSource(sources ...Source) *MergedSource {
	return &MergedSource{
		sources: sources,
		heap:    &recordHeap{},
	}
}

// Next returns the next record in timestamp order across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (Record, error) {
	if !m.initialized {
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
		m.initialized = true
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	item := heap.Pop(m.heap).(*heapItem)

	// Refill from the same source
	next, err := m.sources[item.sourceIdx].Next(ctx)
	switch {
	case err == nil:
		m.push(next, item.sourceIdx)
	case err != io.EOF:
		return nil, err
	}

	return item.rec, nil
}

func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)

	for i, src := range m.sources {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return err
		}
		m.push(rec, i)
	}

	return nil
}

func (m *MergedSource) push(rec Record, sourceIdx int) {
	m.seq++
	heap.Push(m.heap, &heapItem{rec: rec, sourceIdx: sourceIdx, seq: m.seq})
}

// Close releases all source resources.
func (m *MergedSource) Close() error {
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type heapItem struct {
	rec       Record
	sourceIdx int
	seq       int
}

// recordHeap implements heap.Interface ordered by (time, source, arrival).
type recordHeap []*heapItem

func (h recordHeap) Len() int { return len(h) }

func (h recordHeap) Less(i, j int) bool {
	ti, tj := h[i].rec.Meta().Time, h[j].rec.Meta().Time
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	if h[i].sourceIdx != h[j].sourceIdx {
		return h[i].sourceIdx < h[j].sourceIdx
	}
	return h[i].seq < h[j].seq
}

func (h recordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *recordHeap) Push(x any) {
	*h = append(*h, x.(*heapItem))
}

func (h *recordHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}
