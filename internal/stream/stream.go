// Package stream provides per-series sample iteration and a k-way merge of
// several series' streams into one globally time-ordered stream. Grounded on
// original_source/src/merge.rs (Merger<I>, a BinaryHeap<HeapItem> with
// reversed Ord so the heap pops the newest timestamp first) and
// original_source/src/reader.rs's SeriesStream shape, realized here with
// container/heap instead of a self-referential Rust iterator.
package stream

import (
	"container/heap"

	"github.com/cuemby/talna/internal/bigtime"
	"github.com/cuemby/talna/internal/datastore"
	"github.com/cuemby/talna/internal/kvstore"
	"github.com/cuemby/talna/internal/tsvalue"
)

// Item is a single sample attributed to its series.
type Item struct {
	SeriesID  uint64
	Tags      map[string]string
	Timestamp bigtime.Timestamp
	Value     tsvalue.Value
}

// Series opens a descending-timestamp iterator over a single series' range.
// It buffers the whole range eagerly; series ranges are expected to be
// modest relative to available memory, matching the teacher's own
// bucket-at-a-time JSON marshal/unmarshal read pattern in
// pkg/storage/boltdb.go rather than a true streaming cursor.
type Series struct {
	id      uint64
	tags    map[string]string
	samples []datastore.Sample
	pos     int
}

// OpenSeries reads every sample of id within [start, end] (newest first).
func OpenSeries(store *kvstore.Store, id uint64, tags map[string]string, start, end bigtime.Timestamp) (*Series, error) {
	var samples []datastore.Sample
	err := datastore.Range(store, id, start, end, func(s datastore.Sample) (bool, error) {
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &Series{id: id, tags: tags, samples: samples}, nil
}

// Peek returns the next item without consuming it.
func (s *Series) Peek() (Item, bool) {
	if s.pos >= len(s.samples) {
		return Item{}, false
	}
	sample := s.samples[s.pos]
	return Item{SeriesID: s.id, Tags: s.tags, Timestamp: sample.Timestamp, Value: sample.Value}, true
}

// Advance discards the current item.
func (s *Series) Advance() {
	s.pos++
}

// heapEntry tracks one series' current head item plus its original input
// index, used only to break timestamp ties deterministically.
type heapEntry struct {
	item  Item
	index int
}

type minHeap []heapEntry

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	c := h[j].item.Timestamp.Compare(h[i].item.Timestamp)
	if c != 0 {
		return c < 0 // newest timestamp first
	}
	return h[i].index < h[j].index
}
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(heapEntry)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Merger lazily merges several per-series streams into one stream ordered
// by descending timestamp, ties broken by input index.
type Merger struct {
	sources []*Series
	h       minHeap
	started bool
}

// NewMerger builds a merger over sources. The heap is populated lazily on
// the first call to Next.
func NewMerger(sources []*Series) *Merger {
	return &Merger{sources: sources}
}

func (m *Merger) init() {
	m.h = make(minHeap, 0, len(m.sources))
	for i, s := range m.sources {
		if item, ok := s.Peek(); ok {
			heap.Push(&m.h, heapEntry{item: item, index: i})
		}
	}
	m.started = true
}

// Next returns the next item in global order, or false when exhausted.
func (m *Merger) Next() (Item, bool) {
	if !m.started {
		m.init()
	}
	if m.h.Len() == 0 {
		return Item{}, false
	}
	top := heap.Pop(&m.h).(heapEntry)
	m.sources[top.index].Advance()
	if next, ok := m.sources[top.index].Peek(); ok {
		heap.Push(&m.h, heapEntry{item: next, index: top.index})
	}
	return top.item, true
}
