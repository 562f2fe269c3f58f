package testing

import (
	"math"
	"sync/atomic"
	"time"
)

// GenesisTime is where NewManualClock starts.
var GenesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ManualClock drives the engine clock in TestEnv. Reports and rounds carry
// u32 unix seconds, so the clock keeps whole seconds within that range.
type ManualClock struct {
	unix atomic.Int64
}

func NewManualClock() *ManualClock {
	return NewManualClockAt(GenesisTime)
}

func NewManualClockAt(t time.Time) *ManualClock {
	c := &ManualClock{}
	c.Set(t)
	return c
}

func (c *ManualClock) Now() time.Time {
	return time.Unix(c.unix.Load(), 0).UTC()
}

// Timestamp is the current time as written into reports and round records.
func (c *ManualClock) Timestamp() uint32 {
	return uint32(c.unix.Load())
}

// Advance moves the clock by d, dropping any sub-second part.
func (c *ManualClock) Advance(d time.Duration) {
	for {
		cur := c.unix.Load()
		if c.unix.CompareAndSwap(cur, clampUnix(cur+int64(d/time.Second))) {
			return
		}
	}
}

func (c *ManualClock) Set(t time.Time) {
	c.unix.Store(clampUnix(t.Unix()))
}

func clampUnix(s int64) int64 {
	if s < 0 {
		return 0
	}
	if s > math.MaxUint32 {
		return math.MaxUint32
	}
	return s
}
