// Package seriesindex is the in-memory mirror of every series the engine
// knows about: an ordered index by series ID (grounded on
// original_source/src/db.rs's BTreeMap<SeriesId, Series>, realized here with
// github.com/google/btree since Go has no ordered map in the standard
// library) plus a write-path cache keyed by the hash of the series-key
// string so repeat writes to a hot series skip the smap/tag-index lookup
// entirely.
package seriesindex

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/btree"
)

// Series is everything the engine keeps about a series in memory: its ID
// and its parsed tag set. The metric name is not stored here.
type Series struct {
	ID   uint64
	Tags map[string]string
}

type item struct {
	id uint64
	s  Series
}

func (a item) Less(b btree.Item) bool {
	return a.id < b.(item).id
}

// Index is the ordered series-ID -> Series map, safe for concurrent use.
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTree

	cacheMu sync.RWMutex
	cache   map[uint64]uint64 // xxhash(seriesKey) -> seriesID
}

// New returns an empty index.
func New() *Index {
	return &Index{
		tree:  btree.New(32),
		cache: make(map[uint64]uint64),
	}
}

// Insert adds or replaces the entry for s.ID.
func (idx *Index) Insert(s Series) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.ReplaceOrInsert(item{id: s.ID, s: s})
}

// Get returns the series for id, if known.
func (idx *Index) Get(id uint64) (Series, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	v := idx.tree.Get(item{id: id})
	if v == nil {
		return Series{}, false
	}
	return v.(item).s, true
}

// Len returns the number of indexed series.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// Ascend calls fn for every series in ascending ID order until fn returns
// false.
func (idx *Index) Ascend(fn func(Series) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	idx.tree.Ascend(func(i btree.Item) bool {
		return fn(i.(item).s)
	})
}

// CacheLookup returns the series ID previously cached for seriesKey,
// avoiding an smap round-trip on repeat writes to the same series.
func (idx *Index) CacheLookup(seriesKey string) (uint64, bool) {
	h := xxhash.Sum64String(seriesKey)
	idx.cacheMu.RLock()
	defer idx.cacheMu.RUnlock()
	id, ok := idx.cache[h]
	return id, ok
}

// CacheStore records the series ID for seriesKey in the write-path cache.
func (idx *Index) CacheStore(seriesKey string, id uint64) {
	h := xxhash.Sum64String(seriesKey)
	idx.cacheMu.Lock()
	defer idx.cacheMu.Unlock()
	idx.cache[h] = id
}
