package talna

import (
	"time"

	"github.com/cuemby/talna/internal/bigtime"
)

// Clock supplies the current time for Write. The default implementation
// wraps time.Now(); tests substitute a fake clock for deterministic
// timestamps (see internal/tsdbtest).
type Clock interface {
	Now() bigtime.Timestamp
}

type systemClock struct{}

func (systemClock) Now() bigtime.Timestamp {
	return bigtime.FromNanos(uint64(time.Now().UnixNano()))
}
