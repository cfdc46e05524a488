//go:build tsdb_highprecision

// Package tsvalue defines the sample value type. This build uses a 64-bit
// float (tsdb_highprecision build tag).
package tsvalue

// Value is the numeric type stored per sample.
type Value = float64

// Size is the on-disk width of a Value in bytes.
const Size = 8
