package tagstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKeySortsTagsLexicographically(t *testing.T) {
	key := BuildKey("cpu.total", map[string]string{"service": "talna", "host": "a1"})
	assert.Equal(t, "cpu.total#host:a1;service:talna", key)
}

func TestBuildKeyEmptyTags(t *testing.T) {
	assert.Equal(t, "cpu.total#", BuildKey("cpu.total", nil))
}

func TestBuildKeySameTagSetSameKey(t *testing.T) {
	a := BuildKey("m", map[string]string{"a": "1", "b": "2"})
	b := BuildKey("m", map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, a, b)
}

func TestParseRoundTrip(t *testing.T) {
	metric, tags, err := Parse("cpu.total#host:a1;service:talna")
	assert.NoError(t, err)
	assert.Equal(t, "cpu.total", metric)
	assert.Equal(t, map[string]string{"host": "a1", "service": "talna"}, tags)
}

func TestParseNoTags(t *testing.T) {
	metric, tags, err := Parse("cpu.total#")
	assert.NoError(t, err)
	assert.Equal(t, "cpu.total", metric)
	assert.Empty(t, tags)
}

func TestParseMalformed(t *testing.T) {
	_, _, err := Parse("no-hash-here")
	assert.Error(t, err)
}

func TestValidMetricName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"cpu.total", true},
		{"disk_io_99", true},
		{"", false},
		{"CPU.total", false},
		{"cpu total", false},
		{"cpu-total", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, ValidMetricName(tt.name))
		})
	}
}
