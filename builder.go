package talna

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/talna/internal/kvstore"
	"github.com/cuemby/talna/internal/seriesindex"
)

// statsInterval is how often the StatsCollector refreshes gauge metrics,
// matching the 15-second tick cuemby/warren's own collector uses.
const statsInterval = 15 * time.Second

// Builder configures and opens a database, grounded on
// original_source/src/db_builder.rs's Builder{cache_size_mib, hyper_mode}.
type Builder struct {
	cacheSizeMiB uint64
	hyperMode    bool
	clock        Clock
}

// NewBuilder returns a Builder with the engine's defaults.
func NewBuilder() *Builder {
	return &Builder{cacheSizeMiB: 64}
}

// CacheSizeMiB records a cache size, in mebibytes. The bbolt-backed store
// has no block cache to size, so the value is stored on the Builder and
// has no effect on the opened database.
func (b *Builder) CacheSizeMiB(mib uint64) *Builder {
	b.cacheSizeMiB = mib
	return b
}

// HyperMode disables fsync-on-write durability in exchange for throughput:
// every committed transaction is still visible to subsequent reads (bbolt's
// mmap is always current), but a crash before the next explicit Flush(true)
// may lose recently written samples. The fsync setting is applied by Open;
// OpenInKeyspace leaves the caller's bbolt handle with its own NoSync value.
func (b *Builder) HyperMode(enabled bool) *Builder {
	b.hyperMode = enabled
	return b
}

// Clock overrides the source of time Write uses, for deterministic tests;
// an embedding application never needs this in production.
func (b *Builder) Clock(c Clock) *Builder {
	b.clock = c
	return b
}

func (b *Builder) newDB(store *kvstore.Store, ownsStore bool) (*DB, error) {
	if err := openPartitions(store); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	db := &DB{
		store:     store,
		index:     seriesindex.New(),
		clock:     clock,
		hyperMode: b.hyperMode,
		metrics:   newMetricsSet(),
		ownsStore: ownsStore,
	}

	if err := db.recover(); err != nil {
		return nil, err
	}

	db.stats = NewStatsCollector(db, statsInterval)
	db.stats.Start()

	return db, nil
}

// Open opens (creating if necessary) a database file at path.
func (b *Builder) Open(path string) (*DB, error) {
	store, err := kvstore.Open(path, b.hyperMode)
	if err != nil {
		return nil, err
	}
	db, err := b.newDB(store, true)
	if err != nil {
		store.Close()
		return nil, err
	}
	return db, nil
}

// OpenInKeyspace opens the database inside an already-open bbolt database
// handle, letting an embedding application share one file across this
// engine and its own buckets (generalizing
// original_source/src/db_builder.rs's open_in_keyspace).
func (b *Builder) OpenInKeyspace(boltDB *bolt.DB) (*DB, error) {
	store, err := kvstore.FromBoltDB(boltDB)
	if err != nil {
		return nil, err
	}
	return b.newDB(store, false)
}
