//go:build !tsdb_highprecision

// Package tsvalue defines the sample value type. The default build uses a
// 32-bit float; the tsdb_highprecision build tag switches to 64-bit.
package tsvalue

// Value is the numeric type stored per sample.
type Value = float32

// Size is the on-disk width of a Value in bytes.
const Size = 4
