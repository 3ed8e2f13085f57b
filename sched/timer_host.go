package sched

import (
	"math"
	"time"
)

// HostTimer is a Timer backed by the Go runtime's monotonic clock.
type HostTimer struct {
	res   time.Duration
	max   uint32
	start time.Time
}

// NewHostTimer returns a timer ticking every res. maxWait bounds one native
// wait; zero means the full 32-bit range.
func NewHostTimer(res time.Duration, maxWait uint32) *HostTimer {
	if maxWait == 0 {
		maxWait = math.MaxUint32
	}
	return &HostTimer{res: res, max: maxWait, start: time.Now()}
}

func (t *HostTimer) Now() uint32     { return uint32(time.Since(t.start) / t.res) }
func (t *HostTimer) MaxWait() uint32 { return t.max }

func (t *HostTimer) Wait(ticks uint32) {
	if ticks > t.max {
		ticks = t.max
	}
	time.Sleep(time.Duration(ticks) * t.res)
}
