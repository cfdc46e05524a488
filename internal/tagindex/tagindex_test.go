package tagindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostingListRoundTrip(t *testing.T) {
	ids := []uint64{1, 3, 5, 9999999999}
	buf := EncodePostingList(ids)
	decoded, err := DecodePostingList(buf)
	require.NoError(t, err)
	assert.Equal(t, ids, decoded)
}

func TestDecodePostingListTruncated(t *testing.T) {
	_, err := DecodePostingList([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestAppendSortedDedupes(t *testing.T) {
	ids := []uint64{1, 3, 5}
	assert.Equal(t, []uint64{1, 3, 5}, appendSorted(ids, 3))
	assert.Equal(t, []uint64{1, 2, 3, 5}, appendSorted(ids, 2))
	assert.Equal(t, []uint64{1, 3, 5, 7}, appendSorted(ids, 7))
}

func TestTerm(t *testing.T) {
	assert.Equal(t, "cpu.total#service:talna", Term("cpu.total", "service", "talna"))
}
