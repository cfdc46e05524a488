// Package bigtime implements the 128-bit unsigned nanosecond timestamp the
// engine uses for sample ordering and the reverse-time physical key trick.
package bigtime

import (
	"encoding/binary"
	"math/bits"
)

// Timestamp is a 128-bit unsigned nanosecond value, stored as two 64-bit
// limbs (Hi holds the most significant 64 bits).
type Timestamp struct {
	Hi uint64
	Lo uint64
}

// FromNanos builds a Timestamp from a plain 64-bit nanosecond count, which
// covers every wall-clock value a caller will ever pass (the full 128 bits
// only matter for the complement trick in the physical key encoding).
func FromNanos(ns uint64) Timestamp {
	return Timestamp{Hi: 0, Lo: ns}
}

// Compare returns -1, 0 or 1 as t is less than, equal to, or greater than o.
func (t Timestamp) Compare(o Timestamp) int {
	switch {
	case t.Hi != o.Hi:
		if t.Hi < o.Hi {
			return -1
		}
		return 1
	case t.Lo != o.Lo:
		if t.Lo < o.Lo {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Less reports whether t < o.
func (t Timestamp) Less(o Timestamp) bool { return t.Compare(o) < 0 }

// Complement returns the bitwise NOT of t, used so that a forward byte-order
// scan over complemented keys yields descending original-timestamp order.
func (t Timestamp) Complement() Timestamp {
	return Timestamp{Hi: ^t.Hi, Lo: ^t.Lo}
}

// Sub returns t - o as a Timestamp, assuming o <= t (true whenever this is
// called on "newest seen so far" minus "current sample", per the bucketing
// rule in the aggregator).
func (t Timestamp) Sub(o Timestamp) Timestamp {
	lo, borrow := bits.Sub64(t.Lo, o.Lo, 0)
	hi, _ := bits.Sub64(t.Hi, o.Hi, borrow)
	return Timestamp{Hi: hi, Lo: lo}
}

// LessEqualWidth reports whether t <= width, where width is expressed as a
// plain 64-bit nanosecond count (every realistic bucket width fits in 64
// bits; a 128-bit diff bigger than that is never a valid width).
func (t Timestamp) LessEqualWidth(width uint64) bool {
	return t.Hi == 0 && t.Lo <= width
}

// AppendBigEndian appends the 16-byte big-endian encoding of t to buf.
func (t Timestamp) AppendBigEndian(buf []byte) []byte {
	var tmp [16]byte
	binary.BigEndian.PutUint64(tmp[0:8], t.Hi)
	binary.BigEndian.PutUint64(tmp[8:16], t.Lo)
	return append(buf, tmp[:]...)
}

// Bytes returns the 16-byte big-endian encoding of t.
func (t Timestamp) Bytes() [16]byte {
	var out [16]byte
	binary.BigEndian.PutUint64(out[0:8], t.Hi)
	binary.BigEndian.PutUint64(out[8:16], t.Lo)
	return out
}

// ParseBigEndian decodes a 16-byte big-endian buffer into a Timestamp.
func ParseBigEndian(buf []byte) Timestamp {
	_ = buf[15]
	return Timestamp{
		Hi: binary.BigEndian.Uint64(buf[0:8]),
		Lo: binary.BigEndian.Uint64(buf[8:16]),
	}
}

// Min is the smallest representable Timestamp.
var Min = Timestamp{}

// Max is the largest representable Timestamp.
var Max = Timestamp{Hi: ^uint64(0), Lo: ^uint64(0)}
