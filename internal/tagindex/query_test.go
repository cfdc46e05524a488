package tagindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/talna/internal/kvstore"
)

func openTestStore(t *testing.T) *kvstore.Store {
	t.Helper()
	store, err := kvstore.Open(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, Open(store))
	return store
}

func TestIndexAndQueryEq(t *testing.T) {
	store := openTestStore(t)

	tx, err := store.TxBegin()
	require.NoError(t, err)
	require.NoError(t, Index(tx, "cpu.total", 1))
	require.NoError(t, IndexTerm(tx, "cpu.total", "service", "talna", 1))
	require.NoError(t, Index(tx, "cpu.total", 2))
	require.NoError(t, IndexTerm(tx, "cpu.total", "service", "smoltable", 2))
	require.NoError(t, tx.Commit())

	ids, err := QueryEq(store, "cpu.total", "service", "talna")
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, ids)

	all, err := QueryMetric(store, "cpu.total")
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, all)
}

func TestQueryPrefixUnionsMatchingTerms(t *testing.T) {
	store := openTestStore(t)

	tx, err := store.TxBegin()
	require.NoError(t, err)
	require.NoError(t, IndexTerm(tx, "http.requests", "region", "us-east-1", 1))
	require.NoError(t, IndexTerm(tx, "http.requests", "region", "us-west-2", 2))
	require.NoError(t, IndexTerm(tx, "http.requests", "region", "eu-central-1", 3))
	require.NoError(t, tx.Commit())

	ids, err := QueryPrefix(store, "http.requests", "region", "us-")
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, ids)
}

func TestQueryEqMissingTermReturnsEmpty(t *testing.T) {
	store := openTestStore(t)
	ids, err := QueryEq(store, "cpu.total", "service", "nonexistent")
	require.NoError(t, err)
	require.Empty(t, ids)
}
