package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntersection(t *testing.T) {
	got := Intersection([][]uint64{
		{1, 2, 3, 4, 5},
		{1, 3, 5},
		{1, 3},
	})
	assert.Equal(t, []uint64{1, 3}, got)
}

func TestUnion(t *testing.T) {
	got := Union([][]uint64{
		{1, 8},
		{1, 2},
		{1, 2, 4},
		{2, 4, 8},
	})
	assert.Equal(t, []uint64{1, 2, 4, 8}, got)
}

func TestDifference(t *testing.T) {
	got := Difference([]uint64{1, 2, 3, 4, 5}, []uint64{2, 4})
	assert.Equal(t, []uint64{1, 3, 5}, got)
}

func TestIntersectionEmptyInput(t *testing.T) {
	assert.Nil(t, Intersection(nil))
}

func TestUnionSingleList(t *testing.T) {
	assert.Equal(t, []uint64{1, 2, 3}, Union([][]uint64{{1, 2, 3}}))
}
