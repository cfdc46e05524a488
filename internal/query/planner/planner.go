// Package planner evaluates a parsed filter expression tree against the tag
// index, producing the sorted, deduplicated series IDs that satisfy it.
// Intersection and Union are pinned, independently testable primitives
// grounded on original_source/src/query/mod.rs's BinaryHeap<Reverse<_>>
// k-way merge helpers of the same names and contract.
package planner

import (
	"github.com/cuemby/talna/internal/kvstore"
	"github.com/cuemby/talna/internal/query/parser"
	"github.com/cuemby/talna/internal/tagindex"
)

// Evaluate walks expr against metric's tag index and returns the sorted,
// deduplicated set of matching series IDs.
func Evaluate(store *kvstore.Store, metric string, expr *parser.Node) ([]uint64, error) {
	switch expr.Kind {
	case parser.NodeAllStar:
		return tagindex.QueryMetric(store, metric)

	case parser.NodeEq:
		return tagindex.QueryEq(store, metric, expr.Key, expr.Value)

	case parser.NodeWildcard:
		return tagindex.QueryPrefix(store, metric, expr.Key, expr.Value)

	case parser.NodeAnd:
		left, err := Evaluate(store, metric, expr.Children[0])
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(store, metric, expr.Children[1])
		if err != nil {
			return nil, err
		}
		return Intersection([][]uint64{left, right}), nil

	case parser.NodeOr:
		left, err := Evaluate(store, metric, expr.Children[0])
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(store, metric, expr.Children[1])
		if err != nil {
			return nil, err
		}
		return Union([][]uint64{left, right}), nil

	case parser.NodeNot:
		all, err := tagindex.QueryMetric(store, metric)
		if err != nil {
			return nil, err
		}
		child, err := Evaluate(store, metric, expr.Children[0])
		if err != nil {
			return nil, err
		}
		return Difference(all, child), nil

	default:
		return nil, nil
	}
}

// Intersection returns the sorted values common to every list in lists.
// lists must each already be sorted ascending.
func Intersection(lists [][]uint64) []uint64 {
	if len(lists) == 0 {
		return nil
	}
	result := append([]uint64(nil), lists[0]...)
	for _, l := range lists[1:] {
		result = intersectTwo(result, l)
		if len(result) == 0 {
			return result
		}
	}
	return result
}

func intersectTwo(a, b []uint64) []uint64 {
	out := make([]uint64, 0, minInt(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// Union returns the sorted, deduplicated values appearing in any list in
// lists. lists must each already be sorted ascending.
func Union(lists [][]uint64) []uint64 {
	if len(lists) == 0 {
		return nil
	}
	result := append([]uint64(nil), lists[0]...)
	for _, l := range lists[1:] {
		result = unionTwo(result, l)
	}
	return result
}

func unionTwo(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// Difference returns the sorted values in a that are not in b.
func Difference(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a))
	i, j := 0, 0
	for i < len(a) {
		for j < len(b) && b[j] < a[i] {
			j++
		}
		if j < len(b) && b[j] == a[i] {
			i++
			continue
		}
		out = append(out, a[i])
		i++
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
