// Package kvstore is the thin contract this engine needs from a host
// ordered key-value store: partitions, get/insert, forward range scans, and
// write transactions with an atomic fetch-update. It is backed by
// go.etcd.io/bbolt, the embedded KV store cuemby/warren's own storage layer
// (pkg/storage/boltdb.go) is built on.
package kvstore

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/talna/internal/tsdberr"
	"github.com/cuemby/talna/internal/tslog"
)

// PartitionOptions mirrors the partition-creation knobs the core recognizes
// (spec §4.A). Only Compression has an effect. BlockSize and
// MemtableSizeCeiling are informational under a bbolt backend (bbolt uses
// fixed-size pages and its own freelist/mmap growth policy), and
// ManualJournalPersist is not read either: fsync is controlled for the whole
// store by the hyperMode argument to Open, not per partition.
type PartitionOptions struct {
	BlockSize            uint32
	Compression          bool
	MemtableSizeCeiling  uint64
	ManualJournalPersist bool
}

// Store wraps a single bbolt database file. Every "partition" the core asks
// for is a bbolt bucket.
type Store struct {
	db          *bolt.DB
	zEnc        *zstd.Encoder
	zDec        *zstd.Decoder
	compression map[string]bool
}

// Open opens or creates the store at path. hyperMode sets bbolt's NoSync,
// so committed transactions are not fsynced until Flush(true). There is no
// cache-size setting: bbolt relies on the OS page cache.
func Open(path string, hyperMode bool) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{NoSync: hyperMode})
	if err != nil {
		return nil, fmt.Errorf("%w: opening store: %v", tsdberr.ErrIO, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating compressor: %v", tsdberr.ErrStorage, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating decompressor: %v", tsdberr.ErrStorage, err)
	}

	return &Store{
		db:          db,
		zEnc:        enc,
		zDec:        dec,
		compression: make(map[string]bool),
	}, nil
}

// FromBoltDB wraps an already-open *bolt.DB handle, letting a caller share
// one bbolt file between this package's partitions and its own buckets.
func FromBoltDB(db *bolt.DB) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating compressor: %v", tsdberr.ErrStorage, err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating decompressor: %v", tsdberr.ErrStorage, err)
	}
	return &Store{
		db:          db,
		zEnc:        enc,
		zDec:        dec,
		compression: make(map[string]bool),
	}, nil
}

// OpenPartition creates the named bucket if it does not already exist and
// records its options.
func (s *Store) OpenPartition(name string, opts PartitionOptions) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: opening partition %q: %v", tsdberr.ErrStorage, name, err)
	}
	s.compression[name] = opts.Compression
	return nil
}

func (s *Store) encode(partition string, value []byte) []byte {
	if !s.compression[partition] {
		return value
	}
	return s.zEnc.EncodeAll(value, nil)
}

func (s *Store) decode(partition string, value []byte) ([]byte, error) {
	if value == nil || !s.compression[partition] {
		return value, nil
	}
	out, err := s.zDec.DecodeAll(value, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing value: %v", tsdberr.ErrStorage, err)
	}
	return out, nil
}

// Get reads a single key from partition outside of any transaction.
func (s *Store) Get(partition string, key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(partition))
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", tsdberr.ErrStorage, partition, err)
	}
	if out == nil {
		return nil, nil
	}
	return s.decode(partition, out)
}

// Insert writes a single key/value pair, non-transactionally from the
// caller's perspective (used only for data samples, per spec §4.A).
func (s *Store) Insert(partition string, key, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(partition))
		if b == nil {
			return fmt.Errorf("partition %q not open", partition)
		}
		return b.Put(key, s.encode(partition, value))
	})
	if err != nil {
		return fmt.Errorf("%w: inserting into %q: %v", tsdberr.ErrStorage, partition, err)
	}
	return nil
}

// KV is a single decoded key/value pair from a range scan.
type KV struct {
	Key   []byte
	Value []byte
}

// Range performs a forward scan over [from, to] (inclusive) and invokes fn
// for every entry until fn returns false or the range is exhausted.
func (s *Store) Range(partition string, from, to []byte, fn func(KV) (bool, error)) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(partition))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(from); k != nil && bytesLessEqual(k, to); k, v = c.Next() {
			dv, err := s.decode(partition, v)
			if err != nil {
				return err
			}
			cont, err := fn(KV{Key: append([]byte(nil), k...), Value: dv})
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: scanning %q: %v", tsdberr.ErrStorage, partition, err)
	}
	return nil
}

func bytesLessEqual(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) <= len(b)
}

// Tx is a single read-write transaction spanning possibly many partitions,
// used wherever the engine needs an atomic read-modify-write (series ID
// allocation, posting-list fetch-update).
type Tx struct {
	store *Store
	tx    *bolt.Tx
}

// TxBegin starts a writable transaction.
func (s *Store) TxBegin() (*Tx, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", tsdberr.ErrStorage, err)
	}
	return &Tx{store: s, tx: tx}, nil
}

func (t *Tx) bucket(partition string) (*bolt.Bucket, error) {
	b := t.tx.Bucket([]byte(partition))
	if b == nil {
		return nil, fmt.Errorf("%w: partition %q not open", tsdberr.ErrStorage, partition)
	}
	return b, nil
}

// Get reads a key within the transaction.
func (t *Tx) Get(partition string, key []byte) ([]byte, error) {
	b, err := t.bucket(partition)
	if err != nil {
		return nil, err
	}
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	return t.store.decode(partition, append([]byte(nil), v...))
}

// Insert writes a key/value pair within the transaction.
func (t *Tx) Insert(partition string, key, value []byte) error {
	b, err := t.bucket(partition)
	if err != nil {
		return err
	}
	return b.Put(key, t.store.encode(partition, value))
}

// FetchUpdate atomically reads the current value for key (nil if absent),
// passes it to f, and writes back whatever f returns. It is the primitive
// behind series-ID allocation and posting-list append.
func (t *Tx) FetchUpdate(partition string, key []byte, f func(current []byte) []byte) error {
	b, err := t.bucket(partition)
	if err != nil {
		return err
	}
	current := b.Get(key)
	var decoded []byte
	if current != nil {
		decoded, err = t.store.decode(partition, append([]byte(nil), current...))
		if err != nil {
			return err
		}
	}
	next := f(decoded)
	return b.Put(key, t.store.encode(partition, next))
}

// Commit finalizes the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", tsdberr.ErrStorage, err)
	}
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Flush durably persists pending writes. sync requests an fsync; without
// it, this is a no-op because every committed bbolt transaction is already
// part of the mmap'd file (the fsync is the only thing hyper mode defers).
func (s *Store) Flush(sync bool) error {
	if !sync {
		return nil
	}
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("%w: flushing: %v", tsdberr.ErrIO, err)
	}
	return nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	if err := s.zDec.Close(); err != nil {
		tslog.WithComponent("kvstore").Warn().Err(err).Msg("closing decompressor")
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: closing store: %v", tsdberr.ErrIO, err)
	}
	return nil
}
