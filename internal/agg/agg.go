// Package agg is the streaming bucketed aggregator: a generic reducer
// parameterized by a Kind (Sum/Avg/Min/Max/Count) driven by a newest-first
// item stream, emitting one Bucket at a time. Grounded on
// original_source/src/agg/{mod,sum,avg}.rs, generalized here into one state
// machine shared by every kind instead of a hardcoded sum with avg derived
// by post-dividing.
package agg

import (
	"github.com/cuemby/talna/internal/bigtime"
	"github.com/cuemby/talna/internal/stream"
	"github.com/cuemby/talna/internal/tsvalue"
)

// Bucket is one finalized aggregation window.
type Bucket struct {
	Start bigtime.Timestamp
	End   bigtime.Timestamp
	Value tsvalue.Value
	Len   uint64
}

// Kind is the pluggable reduction applied within a bucket. DefaultKind
// supplies sum-style Init/Transform and identity Finish; concrete kinds
// override only what differs.
type Kind interface {
	Init(v tsvalue.Value) tsvalue.Value
	Transform(acc tsvalue.Value, v tsvalue.Value) tsvalue.Value
	Finish(b Bucket) tsvalue.Value
}

// DefaultKind is embedded by concrete kinds to pick up the sum-style
// defaults without repeating them.
type DefaultKind struct{}

func (DefaultKind) Init(v tsvalue.Value) tsvalue.Value           { return v }
func (DefaultKind) Transform(acc, v tsvalue.Value) tsvalue.Value { return acc + v }
func (DefaultKind) Finish(b Bucket) tsvalue.Value                { return b.Value }

// SumKind sums sample values within each bucket.
type SumKind struct{ DefaultKind }

// AvgKind sums like SumKind but divides by the sample count on finish.
type AvgKind struct{ DefaultKind }

func (AvgKind) Finish(b Bucket) tsvalue.Value { return b.Value / tsvalue.Value(b.Len) }

// MinKind keeps the smallest sample value seen in each bucket.
type MinKind struct{ DefaultKind }

func (MinKind) Transform(acc, v tsvalue.Value) tsvalue.Value {
	if v < acc {
		return v
	}
	return acc
}

// MaxKind keeps the largest sample value seen in each bucket.
type MaxKind struct{ DefaultKind }

func (MaxKind) Transform(acc, v tsvalue.Value) tsvalue.Value {
	if v > acc {
		return v
	}
	return acc
}

// CountKind counts samples within each bucket, ignoring their values.
type CountKind struct{ DefaultKind }

func (CountKind) Init(tsvalue.Value) tsvalue.Value            { return 1 }
func (CountKind) Transform(acc, _ tsvalue.Value) tsvalue.Value { return acc + 1 }

// ItemSource is anything that yields stream.Item values in descending
// timestamp order; *stream.Merger satisfies this.
type ItemSource interface {
	Next() (stream.Item, bool)
}

type bucketState int

const (
	stateEmpty bucketState = iota
	stateFilling
)

// LazyBucketStream drains an ItemSource into Bucket values one at a time,
// per the Empty/Filling state machine in the aggregator's bucket-window
// rule: a bucket accepts a new sample iff b.end - ts <= bucketWidth.
type LazyBucketStream struct {
	source      ItemSource
	kind        Kind
	bucketWidth uint64

	state   bucketState
	current Bucket
	done    bool
}

// NewLazyBucketStream constructs a bucket stream over source using kind,
// with each bucket spanning at most bucketWidth nanoseconds.
func NewLazyBucketStream(source ItemSource, kind Kind, bucketWidth uint64) *LazyBucketStream {
	return &LazyBucketStream{source: source, kind: kind, bucketWidth: bucketWidth}
}

func (s *LazyBucketStream) openBucket(item stream.Item) {
	s.current = Bucket{
		Start: item.Timestamp,
		End:   item.Timestamp,
		Value: s.kind.Init(item.Value),
		Len:   1,
	}
	s.state = stateFilling
}

func (s *LazyBucketStream) fits(item stream.Item) bool {
	return s.current.End.Sub(item.Timestamp).LessEqualWidth(s.bucketWidth)
}

func (s *LazyBucketStream) accumulate(item stream.Item) {
	s.current.Len++
	s.current.Start = item.Timestamp
	s.current.Value = s.kind.Transform(s.current.Value, item.Value)
}

func (s *LazyBucketStream) finalize() Bucket {
	b := s.current
	b.Value = s.kind.Finish(b)
	return b
}

// Next returns the next finalized bucket, or false once the source and any
// in-flight bucket are exhausted.
func (s *LazyBucketStream) Next() (Bucket, bool) {
	if s.done {
		return Bucket{}, false
	}

	for {
		item, ok := s.source.Next()

		if !ok {
			if s.state == stateFilling {
				s.state = stateEmpty
				s.done = true
				return s.finalize(), true
			}
			s.done = true
			return Bucket{}, false
		}

		switch s.state {
		case stateEmpty:
			s.openBucket(item)
		case stateFilling:
			if s.fits(item) {
				s.accumulate(item)
			} else {
				finished := s.finalize()
				s.openBucket(item)
				return finished, true
			}
		}
	}
}

// Collect drains the stream eagerly into a slice of buckets.
func (s *LazyBucketStream) Collect() []Bucket {
	var out []Bucket
	for {
		b, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}
