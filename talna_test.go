package talna_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	talna "github.com/cuemby/talna"
	"github.com/cuemby/talna/internal/bigtime"
	"github.com/cuemby/talna/internal/duration"
	"github.com/cuemby/talna/internal/tsdbtest"
)

func TestCountPerGroup(t *testing.T) {
	db := tsdbtest.NewTempDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Write("cpu.total", 1, talna.TagSet{"service": "talna"}))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Write("cpu.total", 1, talna.TagSet{"service": "smoltable"}))
	}

	grouped, err := db.Count("cpu.total", "service").Filter("*").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)

	require.Len(t, result["talna"], 1)
	assert.Equal(t, uint64(5), result["talna"][0].Len)
	require.Len(t, result["smoltable"], 1)
	assert.Equal(t, uint64(2), result["smoltable"][0].Len)
}

func TestRepeatedWriteReusesSameSeries(t *testing.T) {
	db := tsdbtest.NewTempDB(t)

	tags := talna.TagSet{"host": "a1"}
	require.NoError(t, db.Write("mem.used", 1, tags))
	require.NoError(t, db.Write("mem.used", 2, tags))

	grouped, err := db.Count("mem.used", "host").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)

	require.Len(t, result["a1"], 1)
	assert.Equal(t, uint64(2), result["a1"][0].Len)
}

func TestInvalidMetricNameRejected(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	err := db.Write("CPU Total", 1, nil)
	assert.Error(t, err)
}

func TestFilterEqAndWildcard(t *testing.T) {
	db := tsdbtest.NewTempDB(t)

	require.NoError(t, db.Write("http.requests", 1, talna.TagSet{"region": "us-east-1"}))
	require.NoError(t, db.Write("http.requests", 1, talna.TagSet{"region": "us-west-2"}))
	require.NoError(t, db.Write("http.requests", 1, talna.TagSet{"region": "eu-central-1"}))

	grouped, err := db.Count("http.requests", "region").Filter("region:us-*").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)

	assert.Len(t, result, 2)
	assert.Contains(t, result, "us-east-1")
	assert.Contains(t, result, "us-west-2")
	assert.NotContains(t, result, "eu-central-1")
}

func TestRangeRestriction(t *testing.T) {
	db := tsdbtest.NewTempDB(t)

	tags := talna.TagSet{"service": "talna"}
	for ts := uint64(0); ts <= 4; ts++ {
		require.NoError(t, db.WriteAt("cpu.total", bigtime.FromNanos(ts), 1, tags))
	}

	grouped, err := db.Count("cpu.total", "service").Start(bigtime.FromNanos(2)).Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)
	buckets := result["talna"]
	require.Len(t, buckets, 1)
	assert.Equal(t, uint64(2), buckets[0].Start.Lo)
	assert.Equal(t, uint64(4), buckets[0].End.Lo)
	assert.Equal(t, uint64(3), buckets[0].Len)
}

func TestGroupByMissingTagDropsSeries(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	require.NoError(t, db.Write("cpu.total", 1, talna.TagSet{"service": "talna"}))
	require.NoError(t, db.Write("cpu.total", 1, nil))

	grouped, err := db.Count("cpu.total", "service").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)

	assert.Len(t, result, 1)
	assert.Contains(t, result, "talna")
}

func TestGranularityBucketing(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	tags := talna.TagSet{"service": "talna"}
	for ts := uint64(0); ts <= 4; ts++ {
		require.NoError(t, db.WriteAt("cpu.total", bigtime.FromNanos(ts), 1, tags))
	}

	grouped, err := db.Sum("cpu.total", "service").Granularity(2 * time.Nanosecond).Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)
	buckets := result["talna"]
	assert.True(t, len(buckets) >= 2)
}

func TestAvgAcrossSeriesInGroup(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	require.NoError(t, db.Write("latency.ms", 10, talna.TagSet{"route": "home", "host": "a"}))
	require.NoError(t, db.Write("latency.ms", 20, talna.TagSet{"route": "home", "host": "b"}))

	grouped, err := db.Avg("latency.ms", "route").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)
	buckets := result["home"]
	require.Len(t, buckets, 1)
	assert.Equal(t, float32(15), buckets[0].Value)
}

func TestMaxAcrossSeriesInGroup(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	require.NoError(t, db.Write("latency.ms", 10, talna.TagSet{"route": "home", "host": "a"}))
	require.NoError(t, db.Write("latency.ms", 99, talna.TagSet{"route": "home", "host": "b"}))

	grouped, err := db.Max("latency.ms", "route").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)
	buckets := result["home"]
	require.Len(t, buckets, 1)
	assert.Equal(t, float32(99), buckets[0].Value)
}

func TestFlushSyncSucceedsWithNoPendingWrites(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	require.NoError(t, db.Flush(true))
}

func TestHyperModeWriteIsQueryable(t *testing.T) {
	db := tsdbtest.NewTempDBWithBuilder(t, talna.NewBuilder().HyperMode(true))
	require.NoError(t, db.Write("cpu.total", 1, talna.TagSet{"service": "talna"}))

	grouped, err := db.Count("cpu.total", "service").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)
	assert.Len(t, result["talna"], 1)
}

func TestGranularityNanosAcceptsDurationHelperOutput(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	tags := talna.TagSet{"service": "talna"}
	for ts := uint64(0); ts <= 4; ts++ {
		require.NoError(t, db.WriteAt("cpu.total", bigtime.FromNanos(ts), 1, tags))
	}

	grouped, err := db.Sum("cpu.total", "service").GranularityNanos(duration.Seconds(1)).Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)
	buckets := result["talna"]
	require.Len(t, buckets, 1)
	assert.Equal(t, float32(5), buckets[0].Value)
}

func TestFilterIntersectionAcrossTags(t *testing.T) {
	db := tsdbtest.NewTempDB(t)

	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "prod", "service": "db"}))
	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "dev", "service": "db"}))
	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "prod", "service": "ui"}))

	grouped, err := db.Count("requests", "service").Filter("env:prod AND service:db").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)

	assert.Len(t, result, 1)
	assert.Contains(t, result, "db")
}

func TestFilterNegationExcludesMatchingSeries(t *testing.T) {
	db := tsdbtest.NewTempDB(t)

	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "prod", "host": "a"}))
	for i := 0; i < 6; i++ {
		require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "dev", "host": string(rune('b' + i))}))
	}
	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "prod", "host": "h"}))

	grouped, err := db.Count("requests", "host").Filter("!env:prod").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)

	assert.Len(t, result, 6)
	assert.NotContains(t, result, "a")
	assert.NotContains(t, result, "h")
}

func TestFilterParenthesizedOrNegation(t *testing.T) {
	db := tsdbtest.NewTempDB(t)

	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "prod", "host": "a"}))
	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "staging", "host": "b"}))
	require.NoError(t, db.Write("requests", 1, talna.TagSet{"env": "dev", "host": "c"}))

	grouped, err := db.Count("requests", "host").Filter("!(env:prod OR env:staging)").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)

	assert.Len(t, result, 1)
	assert.Contains(t, result, "c")
}

func TestRegistryExposesMetrics(t *testing.T) {
	db := tsdbtest.NewTempDB(t)
	require.NoError(t, db.Write("cpu.total", 1, talna.TagSet{"service": "talna"}))

	families, err := db.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
