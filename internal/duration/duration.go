// Package duration provides nanosecond-count helpers for expressing bucket
// widths and query windows without hand-computing nanosecond literals,
// generalizing original_source/src/duration.rs to plain uint64 nanosecond
// counts (every realistic granularity fits well inside 64 bits).
package duration

// Seconds returns n seconds expressed in nanoseconds.
func Seconds(n uint64) uint64 { return n * 1_000_000_000 }

// Minutes returns n minutes expressed in nanoseconds.
func Minutes(n uint64) uint64 { return Seconds(n) * 60 }

// Hours returns n hours expressed in nanoseconds.
func Hours(n uint64) uint64 { return Minutes(n) * 60 }

// Days returns n days expressed in nanoseconds.
func Days(n uint64) uint64 { return Hours(n) * 24 }

// Weeks returns n weeks expressed in nanoseconds.
func Weeks(n uint64) uint64 { return Days(n) * 7 }

// Months returns n months (approximated as 4 weeks) expressed in nanoseconds.
func Months(n uint64) uint64 { return Weeks(n) * 4 }

// Years returns n years (approximated as 12 months) expressed in nanoseconds.
func Years(n uint64) uint64 { return Months(n) * 12 }
