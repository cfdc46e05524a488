package talna

import (
	"fmt"

	"github.com/cuemby/talna/internal/bigtime"
	"github.com/cuemby/talna/internal/datastore"
	"github.com/cuemby/talna/internal/kvstore"
	"github.com/cuemby/talna/internal/seriesindex"
	"github.com/cuemby/talna/internal/smap"
	"github.com/cuemby/talna/internal/tagindex"
	"github.com/cuemby/talna/internal/tagstore"
	"github.com/cuemby/talna/internal/tsdberr"
	"github.com/cuemby/talna/internal/tslog"
	"github.com/cuemby/talna/internal/tsvalue"
)

// DB is an open handle to one embedded time-series database.
type DB struct {
	store     *kvstore.Store
	index     *seriesindex.Index
	clock     Clock
	hyperMode bool
	metrics   *metricsSet
	stats     *StatsCollector
	ownsStore bool
}

func openPartitions(store *kvstore.Store) error {
	if err := smap.Open(store); err != nil {
		return err
	}
	if err := tagindex.Open(store); err != nil {
		return err
	}
	if err := tagstore.Open(store); err != nil {
		return err
	}
	if err := datastore.Open(store); err != nil {
		return err
	}
	return nil
}

// recover rebuilds the in-memory series index from the durable SMAP,
// mirroring Database::from_keyspace's recovery sweep.
func (db *DB) recover() error {
	entries, err := smap.ListAll(db.store)
	if err != nil {
		return err
	}
	for _, e := range entries {
		_, tags, err := tagstore.Parse(e.SeriesKey)
		if err != nil {
			return fmt.Errorf("%w: recovering series %d: %v", tsdberr.ErrStorage, e.ID, err)
		}
		db.index.Insert(seriesindex.Series{ID: e.ID, Tags: tags})
		db.index.CacheStore(e.SeriesKey, e.ID)
	}
	tslog.WithComponent("talna").Info().Int("series", db.index.Len()).Msg("recovered series index")
	return nil
}

// resolveOrCreateSeries implements spec §4.K steps 1-4: validate the metric
// name, compute the canonical series key, take the fast path through the
// write-path cache/SMAP, and on miss fall back to the double-checked
// transactional slow path that allocates a new series ID.
func (db *DB) resolveOrCreateSeries(metric string, tags TagSet) (uint64, error) {
	if !ValidMetricName(metric) {
		return 0, fmt.Errorf("%w: %q", tsdberr.ErrInvalidMetricName, metric)
	}

	seriesKey := tagstore.BuildKey(metric, tags)

	if id, ok := db.index.CacheLookup(seriesKey); ok {
		return id, nil
	}
	if id, ok, err := smap.Get(db.store, seriesKey); err != nil {
		return 0, err
	} else if ok {
		db.index.CacheStore(seriesKey, id)
		return id, nil
	}

	tx, err := db.store.TxBegin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, created, err := smap.Allocate(tx, seriesKey)
	if err != nil {
		return 0, err
	}
	if created {
		if err := tagindex.Index(tx, metric, id); err != nil {
			return 0, err
		}
		for k, v := range tags {
			if err := tagindex.IndexTerm(tx, metric, k, v, id); err != nil {
				return 0, err
			}
		}
		if err := tagstore.PutTx(tx, id, seriesKey); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if created {
		db.index.Insert(seriesindex.Series{ID: id, Tags: tags})
		db.metrics.seriesCreated.Inc()
	}
	db.index.CacheStore(seriesKey, id)
	return id, nil
}

// Write ingests one sample for metric at the current time, per spec §4.K.
func (db *DB) Write(metric string, value tsvalue.Value, tags TagSet) error {
	return db.WriteAt(metric, db.clock.Now(), value, tags)
}

// WriteAt ingests one sample for metric at an explicit timestamp.
func (db *DB) WriteAt(metric string, ts bigtime.Timestamp, value tsvalue.Value, tags TagSet) error {
	timer := newTimer()
	defer timer.ObserveDuration(db.metrics.writeDuration)

	id, err := db.resolveOrCreateSeries(metric, tags)
	if err != nil {
		db.metrics.writeErrors.Inc()
		return err
	}

	if err := datastore.Write(db.store, id, ts, value); err != nil {
		db.metrics.writeErrors.Inc()
		return err
	}
	db.metrics.samplesWritten.Inc()

	if !db.hyperMode {
		if err := db.store.Flush(false); err != nil {
			return err
		}
	}
	return nil
}

// Flush requests a durable flush of pending writes; sync requests an fsync.
func (db *DB) Flush(sync bool) error {
	return db.store.Flush(sync)
}

// Close stops background collection and releases the underlying store.
func (db *DB) Close() error {
	if db.stats != nil {
		db.stats.Stop()
	}
	if !db.ownsStore {
		return nil
	}
	return db.store.Close()
}
