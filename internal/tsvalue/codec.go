//go:build !tsdb_highprecision

package tsvalue

import (
	"encoding/binary"
	"math"
)

// Encode appends the big-endian IEEE-754 encoding of v to buf.
func Encode(buf []byte, v Value) []byte {
	var tmp [Size]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(buf, tmp[:]...)
}

// Decode parses a Value from its big-endian IEEE-754 encoding.
func Decode(buf []byte) Value {
	return math.Float32frombits(binary.BigEndian.Uint32(buf))
}
