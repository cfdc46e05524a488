package tagstore

import (
	"encoding/binary"

	"github.com/cuemby/talna/internal/kvstore"
)

// Partition is the bucket name the series ID -> tag-set mapping lives in.
const Partition = "_talna#tags"

// Open ensures the tag-set store partition exists.
func Open(store *kvstore.Store) error {
	return store.OpenPartition(Partition, kvstore.PartitionOptions{})
}

func idKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return buf[:]
}

// PutTx records the canonical series key for id as part of the series
// creation transaction.
func PutTx(tx *kvstore.Tx, id uint64, seriesKey string) error {
	return tx.Insert(Partition, idKey(id), []byte(seriesKey))
}

// Get resolves id back to its metric name and tag set.
func Get(store *kvstore.Store, id uint64) (metric string, tags map[string]string, err error) {
	v, err := store.Get(Partition, idKey(id))
	if err != nil {
		return "", nil, err
	}
	if v == nil {
		return "", nil, nil
	}
	return Parse(string(v))
}
