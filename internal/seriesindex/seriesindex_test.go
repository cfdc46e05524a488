package seriesindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	idx := New()
	idx.Insert(Series{ID: 1, Tags: map[string]string{"host": "a"}})

	s, ok := idx.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", s.Tags["host"])
}

func TestGetMissingReturnsFalse(t *testing.T) {
	idx := New()
	_, ok := idx.Get(42)
	assert.False(t, ok)
}

func TestLen(t *testing.T) {
	idx := New()
	assert.Equal(t, 0, idx.Len())
	idx.Insert(Series{ID: 1})
	idx.Insert(Series{ID: 2})
	assert.Equal(t, 2, idx.Len())
}

func TestInsertReplacesExistingID(t *testing.T) {
	idx := New()
	idx.Insert(Series{ID: 1, Tags: map[string]string{"host": "a"}})
	idx.Insert(Series{ID: 1, Tags: map[string]string{"host": "b"}})

	assert.Equal(t, 1, idx.Len())
	s, _ := idx.Get(1)
	assert.Equal(t, "b", s.Tags["host"])
}

func TestAscendVisitsInAscendingOrder(t *testing.T) {
	idx := New()
	idx.Insert(Series{ID: 3})
	idx.Insert(Series{ID: 1})
	idx.Insert(Series{ID: 2})

	var order []uint64
	idx.Ascend(func(s Series) bool {
		order = append(order, s.ID)
		return true
	})
	assert.Equal(t, []uint64{1, 2, 3}, order)
}

func TestAscendStopsWhenFnReturnsFalse(t *testing.T) {
	idx := New()
	idx.Insert(Series{ID: 1})
	idx.Insert(Series{ID: 2})
	idx.Insert(Series{ID: 3})

	var order []uint64
	idx.Ascend(func(s Series) bool {
		order = append(order, s.ID)
		return len(order) < 2
	})
	assert.Equal(t, []uint64{1, 2}, order)
}

func TestCacheLookupMissThenStoreThenHit(t *testing.T) {
	idx := New()
	_, ok := idx.CacheLookup("cpu.total#host:a")
	assert.False(t, ok)

	idx.CacheStore("cpu.total#host:a", 7)

	id, ok := idx.CacheLookup("cpu.total#host:a")
	require.True(t, ok)
	assert.Equal(t, uint64(7), id)
}
