package talna_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	talna "github.com/cuemby/talna"
)

func TestOpenCreatesFileAndIsUsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talna.db")
	db, err := talna.NewBuilder().Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Write("cpu.total", 1, talna.TagSet{"host": "a"}))
}

func TestSeriesIndexSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talna.db")

	db1, err := talna.NewBuilder().Open(path)
	require.NoError(t, err)
	require.NoError(t, db1.Write("cpu.total", 1, talna.TagSet{"service": "talna"}))
	require.NoError(t, db1.Close())

	db2, err := talna.NewBuilder().Open(path)
	require.NoError(t, err)
	defer db2.Close()

	require.NoError(t, db2.Write("cpu.total", 1, talna.TagSet{"service": "talna"}))

	grouped, err := db2.Count("cpu.total", "service").Build()
	require.NoError(t, err)
	result, err := grouped.Collect()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result["talna"][0].Len)
}

func TestCacheSizeMiBAndHyperModeAreFluent(t *testing.T) {
	b := talna.NewBuilder().CacheSizeMiB(256).HyperMode(true)
	path := filepath.Join(t.TempDir(), "talna.db")
	db, err := b.Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Write("cpu.total", 1, nil))
}
