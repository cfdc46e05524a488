package bigtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplementReversesOrder(t *testing.T) {
	a := FromNanos(10)
	b := FromNanos(20)

	assert.True(t, a.Less(b))
	assert.True(t, b.Complement().Less(a.Complement()))
}

func TestAppendAndParseBigEndianRoundTrip(t *testing.T) {
	tests := []Timestamp{
		Min,
		Max,
		FromNanos(1),
		{Hi: 1, Lo: 0},
		{Hi: 0xdeadbeef, Lo: 0xcafef00d},
	}
	for _, ts := range tests {
		buf := ts.AppendBigEndian(nil)
		assert.Equal(t, 16, len(buf))
		assert.Equal(t, ts, ParseBigEndian(buf))
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, FromNanos(1).Compare(FromNanos(2)))
	assert.Equal(t, 1, FromNanos(2).Compare(FromNanos(1)))
	assert.Equal(t, 0, FromNanos(5).Compare(FromNanos(5)))
}

func TestSub(t *testing.T) {
	got := FromNanos(100).Sub(FromNanos(40))
	assert.Equal(t, FromNanos(60), got)
}

func TestLessEqualWidth(t *testing.T) {
	assert.True(t, FromNanos(5).LessEqualWidth(10))
	assert.True(t, FromNanos(10).LessEqualWidth(10))
	assert.False(t, FromNanos(11).LessEqualWidth(10))
	assert.False(t, Timestamp{Hi: 1, Lo: 0}.LessEqualWidth(^uint64(0)))
}
