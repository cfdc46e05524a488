// Package tsdbtest provides temp-directory test scaffolding and a
// deterministic fake clock, grounded on the teacher's table-driven
// testify-based test style (pkg/scheduler/scheduler_unit_test.go) rather
// than on any single file it copies.
package tsdbtest

import (
	"path/filepath"
	"testing"

	talna "github.com/cuemby/talna"
	"github.com/cuemby/talna/internal/bigtime"
)

// NewTempDB opens a database backed by a fresh temp directory that is
// automatically cleaned up, and closed, when t completes.
func NewTempDB(t *testing.T) *talna.DB {
	t.Helper()
	return NewTempDBWithBuilder(t, talna.NewBuilder())
}

// NewTempDBWithBuilder is like NewTempDB but lets the caller configure the
// builder first (e.g. to install a FakeClock).
func NewTempDBWithBuilder(t *testing.T, b *talna.Builder) *talna.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := b.Open(filepath.Join(dir, "talna.db"))
	if err != nil {
		t.Fatalf("opening temp database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// FakeClock is a settable clock for deterministic timestamp assertions in
// tests.
type FakeClock struct {
	now bigtime.Timestamp
}

// NewFakeClock returns a FakeClock initialized to ts.
func NewFakeClock(ts bigtime.Timestamp) *FakeClock {
	return &FakeClock{now: ts}
}

// Now returns the clock's current fixed time.
func (c *FakeClock) Now() bigtime.Timestamp {
	return c.now
}

// Set advances the clock to ts.
func (c *FakeClock) Set(ts bigtime.Timestamp) {
	c.now = ts
}

// Advance moves the clock forward by ns nanoseconds.
func (c *FakeClock) Advance(ns uint64) {
	c.now = bigtime.Timestamp{Hi: c.now.Hi, Lo: c.now.Lo + ns}
}
