package talna

import (
	"time"

	"github.com/cuemby/talna/internal/agg"
	"github.com/cuemby/talna/internal/bigtime"
	"github.com/cuemby/talna/internal/query/parser"
	"github.com/cuemby/talna/internal/query/planner"
	"github.com/cuemby/talna/internal/seriesindex"
	"github.com/cuemby/talna/internal/stream"
	"github.com/cuemby/talna/internal/tagstore"
)

// defaultBucketWidth is used when a caller never sets Granularity; it is
// wide enough to collapse any realistic query window into a single bucket,
// in place of original_source/src/db.rs's hardcoded one-minute default for
// its avg/sum convenience builders.
const defaultBucketWidth = uint64(1<<63 - 1)

// AggregationBuilder accumulates the parameters of one grouped aggregation
// query before it is run, mirroring original_source/src/db.rs's avg/sum
// builder methods generalized to all five kinds and every parameter.
type AggregationBuilder struct {
	db      *DB
	metric  string
	groupBy string
	kind    agg.Kind
	width   uint64
	start   bigtime.Timestamp
	end     bigtime.Timestamp
	filter  string
}

func newAggregationBuilder(db *DB, metric, groupBy string, kind agg.Kind) *AggregationBuilder {
	return &AggregationBuilder{
		db:      db,
		metric:  metric,
		groupBy: groupBy,
		kind:    kind,
		width:   defaultBucketWidth,
		start:   bigtime.Min,
		end:     bigtime.Max,
		filter:  "*",
	}
}

// Avg builds an average-aggregation query over metric, grouped by groupBy.
func (db *DB) Avg(metric, groupBy string) *AggregationBuilder {
	return newAggregationBuilder(db, metric, groupBy, agg.AvgKind{})
}

// Sum builds a sum-aggregation query over metric, grouped by groupBy.
func (db *DB) Sum(metric, groupBy string) *AggregationBuilder {
	return newAggregationBuilder(db, metric, groupBy, agg.SumKind{})
}

// Min builds a min-aggregation query over metric, grouped by groupBy.
func (db *DB) Min(metric, groupBy string) *AggregationBuilder {
	return newAggregationBuilder(db, metric, groupBy, agg.MinKind{})
}

// Max builds a max-aggregation query over metric, grouped by groupBy.
func (db *DB) Max(metric, groupBy string) *AggregationBuilder {
	return newAggregationBuilder(db, metric, groupBy, agg.MaxKind{})
}

// Count builds a count-aggregation query over metric, grouped by groupBy.
func (db *DB) Count(metric, groupBy string) *AggregationBuilder {
	return newAggregationBuilder(db, metric, groupBy, agg.CountKind{})
}

// Granularity sets the bucket width.
func (b *AggregationBuilder) Granularity(width time.Duration) *AggregationBuilder {
	b.width = uint64(width.Nanoseconds())
	return b
}

// GranularityNanos sets the bucket width directly in nanoseconds, for
// callers building it from internal/duration's unit helpers
// (duration.Minutes(5), duration.Hours(1), ...) instead of time.Duration.
func (b *AggregationBuilder) GranularityNanos(width uint64) *AggregationBuilder {
	b.width = width
	return b
}

// Start sets the inclusive lower timestamp bound.
func (b *AggregationBuilder) Start(ts bigtime.Timestamp) *AggregationBuilder {
	b.start = ts
	return b
}

// End sets the inclusive upper timestamp bound.
func (b *AggregationBuilder) End(ts bigtime.Timestamp) *AggregationBuilder {
	b.end = ts
	return b
}

// Filter sets the tag filter expression; the default is "*" (every series
// of the metric).
func (b *AggregationBuilder) Filter(expr string) *AggregationBuilder {
	b.filter = expr
	return b
}

// GroupedAggregation is the built, ready-to-drain result of an
// AggregationBuilder: one lazy bucket stream per distinct group-by tag
// value.
type GroupedAggregation struct {
	groups map[string]*agg.LazyBucketStream
}

// Build parses the filter, evaluates it against the tag index, groups the
// surviving series by their group-by tag's value, and prepares one merger
// and aggregator per group. Series missing the group-by tag are dropped.
func (b *AggregationBuilder) Build() (*GroupedAggregation, error) {
	timer := newTimer()
	defer timer.ObserveDuration(b.db.metrics.queryDuration)

	expr, err := parser.Parse(b.filter)
	if err != nil {
		return nil, err
	}

	ids, err := planner.Evaluate(b.db.store, b.metric, expr)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string][]seriesindex.Series)
	for _, id := range ids {
		s, ok := b.db.index.Get(id)
		if !ok {
			// Not yet mirrored in the in-memory index (e.g. a concurrent
			// writer on a shared keyspace); fall back to the durable tag-set
			// store, the authoritative source per spec §4.D.
			_, tags, err := tagstore.Get(b.db.store, id)
			if err != nil {
				return nil, err
			}
			if tags == nil {
				continue
			}
			s = seriesindex.Series{ID: id, Tags: tags}
		}
		value, ok := s.Tags[b.groupBy]
		if !ok {
			continue
		}
		byGroup[value] = append(byGroup[value], s)
	}

	groups := make(map[string]*agg.LazyBucketStream, len(byGroup))
	for value, members := range byGroup {
		sources := make([]*stream.Series, 0, len(members))
		for _, s := range members {
			series, err := stream.OpenSeries(b.db.store, s.ID, s.Tags, b.start, b.end)
			if err != nil {
				return nil, err
			}
			sources = append(sources, series)
		}
		merger := stream.NewMerger(sources)
		groups[value] = agg.NewLazyBucketStream(merger, b.kind, b.width)
	}

	return &GroupedAggregation{groups: groups}, nil
}

// Groups exposes the lazy per-group bucket streams directly, for callers
// that want to stream results without buffering.
func (g *GroupedAggregation) Groups() map[string]*agg.LazyBucketStream {
	return g.groups
}

// Collect drains every group's stream eagerly into a map of bucket slices.
func (g *GroupedAggregation) Collect() (map[string][]agg.Bucket, error) {
	out := make(map[string][]agg.Bucket, len(g.groups))
	for value, s := range g.groups {
		out[value] = s.Collect()
	}
	return out, nil
}
