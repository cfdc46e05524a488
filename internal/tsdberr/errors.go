// Package tsdberr defines the sentinel errors returned across the engine's
// public surface, wrapped with context via fmt.Errorf("...: %w", ...) the
// way the rest of this codebase reports failures.
package tsdberr

import "errors"

var (
	// ErrIO is an OS-level I/O failure surfaced from the KV store.
	ErrIO = errors.New("talna: io error")

	// ErrStorage is a structural error from the KV store (corruption,
	// serialization).
	ErrStorage = errors.New("talna: storage error")

	// ErrInvalidMetricName is returned when a write uses a metric name
	// outside the allowed character set.
	ErrInvalidMetricName = errors.New("talna: invalid metric name")

	// ErrInvalidQuery is returned when a filter expression fails to parse.
	ErrInvalidQuery = errors.New("talna: invalid query")
)
