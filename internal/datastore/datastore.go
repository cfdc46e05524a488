// Package datastore is the shared, reverse-time-ordered sample partition:
// one bucket holds every series' samples, keyed so that a single forward
// byte-order scan yields samples in descending-timestamp order without a
// reverse cursor. Grounded on the physical layout spec.md mandates (§3/§4.D)
// and on cuemby/warren's pkg/storage/boltdb.go bucket-per-entity pattern,
// here specialized to one shared bucket keyed by series ID.
package datastore

import (
	"encoding/binary"

	"github.com/cuemby/talna/internal/bigtime"
	"github.com/cuemby/talna/internal/kvstore"
	"github.com/cuemby/talna/internal/tsvalue"
)

// Partition is the bucket name every series' samples share.
const Partition = "_talna#data"

// KeySize is the width of a data-store key: an 8-byte series ID followed by
// the 16-byte bitwise complement of the sample's nanosecond timestamp.
const KeySize = 8 + 16

// Open ensures the data partition exists, with compression enabled since
// sample values are the overwhelming majority of stored bytes.
func Open(store *kvstore.Store) error {
	return store.OpenPartition(Partition, kvstore.PartitionOptions{Compression: true})
}

// Key builds the physical key for a sample of series id at timestamp ts.
func Key(id uint64, ts bigtime.Timestamp) []byte {
	buf := make([]byte, 0, KeySize)
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], id)
	buf = append(buf, idBuf[:]...)
	buf = ts.Complement().AppendBigEndian(buf)
	return buf
}

// ParseKey recovers the series ID and timestamp encoded in a data-store key.
func ParseKey(key []byte) (id uint64, ts bigtime.Timestamp) {
	id = binary.BigEndian.Uint64(key[:8])
	ts = bigtime.ParseBigEndian(key[8:24]).Complement()
	return id, ts
}

// Write stores a single sample outside of any wider transaction.
func Write(store *kvstore.Store, id uint64, ts bigtime.Timestamp, v tsvalue.Value) error {
	return store.Insert(Partition, Key(id, ts), tsvalue.Encode(nil, v))
}

// WriteTx stores a single sample as part of an in-flight write transaction.
// The write path does not use it: DB.WriteAt commits series creation first
// and then stores the sample with Write.
func WriteTx(tx *kvstore.Tx, id uint64, ts bigtime.Timestamp, v tsvalue.Value) error {
	return tx.Insert(Partition, Key(id, ts), tsvalue.Encode(nil, v))
}

// Sample is a single decoded (timestamp, value) pair.
type Sample struct {
	Timestamp bigtime.Timestamp
	Value     tsvalue.Value
}

// Range scans every sample of series id with start <= timestamp <= end,
// delivering them newest-first (descending timestamp), and invokes fn for
// each until fn returns false.
func Range(store *kvstore.Store, id uint64, start, end bigtime.Timestamp, fn func(Sample) (bool, error)) error {
	lo := Key(id, end)
	hi := Key(id, start)
	return store.Range(Partition, lo, hi, func(kv kvstore.KV) (bool, error) {
		_, ts := ParseKey(kv.Key)
		return fn(Sample{Timestamp: ts, Value: tsvalue.Decode(kv.Value)})
	})
}
