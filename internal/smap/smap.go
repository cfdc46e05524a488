// Package smap is the series mapping: the durable table translating a
// canonical series-key string to its allocated numeric series ID, plus the
// persistent counter new IDs are drawn from. It is grounded on
// original_source/src/smap.rs (SeriesMapping), realized here atop
// kvstore.Store instead of fjall.
package smap

import (
	"encoding/binary"
	"fmt"

	"github.com/cuemby/talna/internal/kvstore"
	"github.com/cuemby/talna/internal/tsdberr"
)

// Partition is the bucket name the series mapping lives in.
const Partition = "_talna#v1#smap"

// counterKey is a key no valid series-key string can ever collide with: the
// series-key charset never produces a leading NUL byte.
var counterKey = []byte{0x00, 'c', 'o', 'u', 'n', 't', 'e', 'r'}

// Open ensures the smap partition exists.
func Open(store *kvstore.Store) error {
	return store.OpenPartition(Partition, kvstore.PartitionOptions{})
}

// Get looks up the series ID for an existing canonical series key. ok is
// false if the key has never been allocated.
func Get(store *kvstore.Store, seriesKey string) (id uint64, ok bool, err error) {
	v, err := store.Get(Partition, []byte(seriesKey))
	if err != nil {
		return 0, false, err
	}
	if v == nil {
		return 0, false, nil
	}
	if len(v) != 8 {
		return 0, false, fmt.Errorf("%w: malformed smap entry for %q", tsdberr.ErrStorage, seriesKey)
	}
	return binary.BigEndian.Uint64(v), true, nil
}

// Allocate returns the series ID for seriesKey, creating a new one via the
// persistent counter if it does not already exist. It must run inside a
// write transaction so the existence check and the counter increment are
// atomic with respect to concurrent writers (spec §4.B / §9: "persistent
// counter" strategy, not "max(existing)+1").
func Allocate(tx *kvstore.Tx, seriesKey string) (id uint64, created bool, err error) {
	existing, err := tx.Get(Partition, []byte(seriesKey))
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		if len(existing) != 8 {
			return 0, false, fmt.Errorf("%w: malformed smap entry for %q", tsdberr.ErrStorage, seriesKey)
		}
		return binary.BigEndian.Uint64(existing), false, nil
	}

	var next uint64
	err = tx.FetchUpdate(Partition, counterKey, func(current []byte) []byte {
		if len(current) == 8 {
			next = binary.BigEndian.Uint64(current) + 1
		} else {
			next = 0
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, next)
		return buf
	})
	if err != nil {
		return 0, false, err
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := tx.Insert(Partition, []byte(seriesKey), buf); err != nil {
		return 0, false, err
	}
	return next, true, nil
}

// Entry is a single (series key, series ID) pair surfaced by ListAll.
type Entry struct {
	SeriesKey string
	ID        uint64
}

// ListAll scans every mapping, used to rebuild the in-memory series index
// on open (mirrors Database::from_keyspace in original_source/src/db.rs).
func ListAll(store *kvstore.Store) ([]Entry, error) {
	var entries []Entry
	err := store.Range(Partition, []byte{0x01}, []byte{0xff, 0xff, 0xff, 0xff}, func(kv kvstore.KV) (bool, error) {
		if len(kv.Value) != 8 {
			return false, fmt.Errorf("%w: malformed smap entry for %q", tsdberr.ErrStorage, kv.Key)
		}
		entries = append(entries, Entry{
			SeriesKey: string(kv.Key),
			ID:        binary.BigEndian.Uint64(kv.Value),
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
