package talna

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuemby/talna/internal/seriesindex"
)

// metricsSet is one database handle's private prometheus registry,
// generalizing cuemby/warren's pkg/metrics.go globals (which register into
// the default registry once per process) into per-DB instances, since
// multiple embedded databases may coexist in one process.
type metricsSet struct {
	registry       *prometheus.Registry
	seriesTotal    prometheus.Gauge
	seriesCreated  prometheus.Counter
	samplesWritten prometheus.Counter
	writeErrors    prometheus.Counter
	writeDuration  prometheus.Histogram
	queryDuration  prometheus.Histogram
}

func newMetricsSet() *metricsSet {
	reg := prometheus.NewRegistry()
	m := &metricsSet{
		registry: reg,
		seriesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "talna_series_total",
			Help: "Total number of distinct series known to the database.",
		}),
		seriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talna_series_created_total",
			Help: "Total number of series created since open.",
		}),
		samplesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talna_samples_written_total",
			Help: "Total number of samples written since open.",
		}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talna_write_errors_total",
			Help: "Total number of failed writes since open.",
		}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "talna_write_duration_seconds",
			Help:    "Write latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "talna_query_duration_seconds",
			Help:    "Aggregation build latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.seriesTotal,
		m.seriesCreated,
		m.samplesWritten,
		m.writeErrors,
		m.writeDuration,
		m.queryDuration,
	)
	return m
}

// Registry exposes the database's private prometheus registry so an
// embedding application can serve or scrape it however it likes; this
// engine has no network surface of its own (non-goal).
func (db *DB) Registry() *prometheus.Registry {
	return db.metrics.registry
}

// timer is a minimal duration-measuring helper, adapted from
// cuemby/warren's pkg/metrics.Timer.
type timer struct {
	start time.Time
}

func newTimer() *timer {
	return &timer{start: time.Now()}
}

func (t *timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(time.Since(t.start).Seconds())
}

// StatsCollector periodically refreshes gauge metrics that reflect current
// state rather than cumulative counters, adapted from cuemby/warren's
// pkg/metrics.Collector ticker loop.
type StatsCollector struct {
	db       *DB
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
}

// NewStatsCollector creates a collector for db that ticks every interval.
func NewStatsCollector(db *DB, interval time.Duration) *StatsCollector {
	return &StatsCollector{db: db, interval: interval, stopCh: make(chan struct{})}
}

// Start begins periodic collection in a background goroutine.
func (c *StatsCollector) Start() {
	c.ticker = time.NewTicker(c.interval)
	c.collect()
	go func() {
		for {
			select {
			case <-c.ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop halts periodic collection.
func (c *StatsCollector) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
}

func (c *StatsCollector) collect() {
	count := 0
	c.db.index.Ascend(func(seriesindex.Series) bool {
		count++
		return true
	})
	c.db.metrics.seriesTotal.Set(float64(count))
}
