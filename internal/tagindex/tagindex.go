// Package tagindex is the inverted index mapping a metric name, or a
// "metric#key:value" term, to the sorted, deduplicated, append-only list of
// series IDs carrying it. It is grounded on original_source/src/tag_index.rs
// (TagIndex::index / index_term / query_eq / query_prefix), realized here
// atop kvstore.Store's transactional fetch-update instead of fjall's.
//
// The on-disk posting-list encoding is fixed by the spec: a big-endian u64
// length followed by that many big-endian u64 series IDs, ascending and
// deduplicated. Set algebra over decoded lists is done with
// github.com/RoaringBitmap/roaring/v2 for speed; the wire format never
// changes.
package tagindex

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cuemby/talna/internal/kvstore"
	"github.com/cuemby/talna/internal/tsdberr"
)

// Partition is the bucket name the inverted index lives in.
const Partition = "_talna#v1#tidx"

// Open ensures the tag-index partition exists.
func Open(store *kvstore.Store) error {
	return store.OpenPartition(Partition, kvstore.PartitionOptions{})
}

// EncodePostingList serializes ids (which must already be sorted ascending
// and deduplicated) into the spec's on-disk posting-list format.
func EncodePostingList(ids []uint64) []byte {
	buf := make([]byte, 8+8*len(ids))
	binary.BigEndian.PutUint64(buf, uint64(len(ids)))
	for i, id := range ids {
		binary.BigEndian.PutUint64(buf[8+8*i:], id)
	}
	return buf
}

// DecodePostingList parses the spec's on-disk posting-list format.
func DecodePostingList(buf []byte) ([]uint64, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("%w: truncated posting list", tsdberr.ErrStorage)
	}
	n := binary.BigEndian.Uint64(buf)
	want := 8 + 8*int(n)
	if uint64(want) < 8 || len(buf) != want {
		return nil, fmt.Errorf("%w: malformed posting list length", tsdberr.ErrStorage)
	}
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = binary.BigEndian.Uint64(buf[8+8*i:])
	}
	return ids, nil
}

func appendSorted(existing []uint64, id uint64) []uint64 {
	i := sort.Search(len(existing), func(i int) bool { return existing[i] >= id })
	if i < len(existing) && existing[i] == id {
		return existing
	}
	out := make([]uint64, len(existing)+1)
	copy(out, existing[:i])
	out[i] = id
	copy(out[i+1:], existing[i:])
	return out
}

// Term builds the "metric#key:value" term key for a tag.
func Term(metric, key, value string) string {
	return metric + "#" + key + ":" + value
}

func indexKey(tx *kvstore.Tx, key string, id uint64) error {
	return tx.FetchUpdate(Partition, []byte(key), func(current []byte) []byte {
		var ids []uint64
		if current != nil {
			ids, _ = DecodePostingList(current)
		}
		ids = appendSorted(ids, id)
		return EncodePostingList(ids)
	})
}

// Index records that series id belongs to metric, appending id to the
// metric-level posting list.
func Index(tx *kvstore.Tx, metric string, id uint64) error {
	return indexKey(tx, metric, id)
}

// IndexTerm records that series id carries the tag key=value under metric,
// appending id to that term's posting list.
func IndexTerm(tx *kvstore.Tx, metric, key, value string, id uint64) error {
	return indexKey(tx, Term(metric, key, value), id)
}

// QueryEq returns the sorted series IDs carrying the exact term
// metric#key:value.
func QueryEq(store *kvstore.Store, metric, key, value string) ([]uint64, error) {
	v, err := store.Get(Partition, []byte(Term(metric, key, value)))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return DecodePostingList(v)
}

// QueryMetric returns the sorted series IDs belonging to metric.
func QueryMetric(store *kvstore.Store, metric string) ([]uint64, error) {
	v, err := store.Get(Partition, []byte(metric))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return DecodePostingList(v)
}

// QueryPrefix returns the union of every term metric#key:value where value
// starts with valuePrefix, covering the filter grammar's "key:value*".
func QueryPrefix(store *kvstore.Store, metric, key, valuePrefix string) ([]uint64, error) {
	lo := []byte(Term(metric, key, valuePrefix))
	hi := append(append([]byte(nil), lo...), 0xff)

	result := roaring64New()
	err := store.Range(Partition, lo, hi, func(kv kvstore.KV) (bool, error) {
		if len(kv.Key) < len(lo) || string(kv.Key[:len(lo)]) != string(lo) {
			return true, nil
		}
		ids, err := DecodePostingList(kv.Value)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			result.Add(id)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result.ToArray(), nil
}

// roaring64Set is a thin facade over roaring.Bitmap (32-bit) promoted to
// 64-bit series IDs via one bitmap per distinct high word of the ID; series
// counts in realistic deployments never approach 2^32 per high-word bucket,
// so this keeps the hot path on the well-optimized 32-bit roaring core.
type roaring64Set struct {
	buckets map[uint32]*roaring.Bitmap
}

func roaring64New() *roaring64Set {
	return &roaring64Set{buckets: make(map[uint32]*roaring.Bitmap)}
}

func (s *roaring64Set) Add(id uint64) {
	hi := uint32(id >> 32)
	lo := uint32(id)
	b, ok := s.buckets[hi]
	if !ok {
		b = roaring.New()
		s.buckets[hi] = b
	}
	b.Add(lo)
}

func (s *roaring64Set) ToArray() []uint64 {
	var out []uint64
	his := make([]uint32, 0, len(s.buckets))
	for hi := range s.buckets {
		his = append(his, hi)
	}
	sort.Slice(his, func(i, j int) bool { return his[i] < his[j] })
	for _, hi := range his {
		it := s.buckets[hi].Iterator()
		for it.HasNext() {
			out = append(out, uint64(hi)<<32|uint64(it.Next()))
		}
	}
	return out
}
