package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetInsertRoundTrip(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.OpenPartition("p1", PartitionOptions{}))

	require.NoError(t, store.Insert("p1", []byte("k1"), []byte("v1")))
	v, err := store.Get("p1", []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.OpenPartition("p1", PartitionOptions{}))

	v, err := store.Get("p1", []byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCompressionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.OpenPartition("compressed", PartitionOptions{Compression: true}))

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	require.NoError(t, store.Insert("compressed", []byte("k"), payload))
	v, err := store.Get("compressed", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, payload, v)
}

func TestRangeScanIsInclusiveAndOrdered(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.OpenPartition("p1", PartitionOptions{}))

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Insert("p1", []byte(k), []byte(k)))
	}

	var got []string
	err := store.Range("p1", []byte("b"), []byte("c"), func(kv KV) (bool, error) {
		got = append(got, string(kv.Key))
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestRangeScanStopsWhenCallbackReturnsFalse(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.OpenPartition("p1", PartitionOptions{}))

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert("p1", []byte(k), []byte(k)))
	}

	var got []string
	err := store.Range("p1", []byte("a"), []byte("c"), func(kv KV) (bool, error) {
		got = append(got, string(kv.Key))
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestTxFetchUpdateIsAtomicPerKey(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.OpenPartition("counters", PartitionOptions{}))

	increment := func() error {
		tx, err := store.TxBegin()
		if err != nil {
			return err
		}
		err = tx.FetchUpdate("counters", []byte("c"), func(current []byte) []byte {
			if current == nil {
				return []byte{1}
			}
			return []byte{current[0] + 1}
		})
		if err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, increment())
	}

	v, err := store.Get("counters", []byte("c"))
	require.NoError(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, byte(5), v[0])
}

func TestTxRollbackDiscardsWrites(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.OpenPartition("p1", PartitionOptions{}))

	tx, err := store.TxBegin()
	require.NoError(t, err)
	require.NoError(t, tx.Insert("p1", []byte("k"), []byte("v")))
	require.NoError(t, tx.Rollback())

	v, err := store.Get("p1", []byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFlushWithoutSyncIsNoop(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Flush(false))
}

func TestFlushWithSync(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Flush(true))
}

func TestInsertOnUnopenedPartitionErrors(t *testing.T) {
	store := openTestStore(t)
	err := store.Insert("never-opened", []byte("k"), []byte("v"))
	assert.Error(t, err)
}
