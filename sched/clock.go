// Package sched provides the clock services and execution units the runtime
// is built on: two independent clock resolutions with sleeps longer than the
// native timer range, and named threads with a "who am I" query.
package sched

import (
	"sync"
	"time"

	"devicecore-go/x/mathx"
)

// Timer is the native hardware timer primitive behind a Clock: a free
// running 32-bit tick counter that wraps, and a blocking wait bounded by
// MaxWait ticks.
type Timer interface {
	Now() uint32
	MaxWait() uint32
	Wait(ticks uint32)
}

// Clock is one resolution of the monotonic time source. Clocks of different
// resolutions are distinct values; there is no implicit conversion between
// them.
type Clock struct {
	name string
	res  time.Duration
	hw   Timer

	mu   sync.Mutex
	last uint32
	high uint64
}

// NewClock binds a timer ticking once per res.
func NewClock(name string, res time.Duration, hw Timer) *Clock {
	if res <= 0 {
		panic("sched: clock resolution must be positive")
	}
	return &Clock{name: name, res: res, hw: hw, last: hw.Now()}
}

// Sec is the coarse clock; prefer it for long delays.
func Sec(hw Timer) *Clock { return NewClock("sec", time.Second, hw) }

// Msec is the fine clock.
func Msec(hw Timer) *Clock { return NewClock("msec", time.Millisecond, hw) }

func (c *Clock) Name() string              { return c.name }
func (c *Clock) Resolution() time.Duration { return c.res }

// Now returns the tick count extended to 64 bits. Rollovers of the native
// counter are detected on each call, so Now must be observed at least once
// per native wrap period to stay monotonic. Every sleep observes it after
// each native wait.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.hw.Now()
	if cur < c.last {
		c.high += 1 << 32
	}
	c.last = cur
	return c.high | uint64(cur)
}

// Since converts the ticks elapsed since start into a duration.
func (c *Clock) Since(start uint64) time.Duration {
	return time.Duration(c.Now()-start) * c.res
}

// Sleep blocks for ticks native ticks.
func (c *Clock) Sleep(ticks uint32) {
	if ticks > 0 {
		c.hw.Wait(ticks)
		c.Now()
	}
}

// SleepExtended suspends the caller for at least d. The request is rounded
// up to whole ticks and split into waits no longer than the timer's MaxWait,
// so durations beyond the native range are honoured in full. It is not
// cancellable.
func (c *Clock) SleepExtended(d time.Duration) {
	if d <= 0 {
		return
	}
	ticks := mathx.CeilDiv(uint64(d), uint64(c.res))
	max := uint64(c.hw.MaxWait())
	if max == 0 {
		max = 1
	}
	for ticks > 0 {
		chunk := ticks
		if chunk > max {
			chunk = max
		}
		c.hw.Wait(uint32(chunk))
		c.Now()
		ticks -= chunk
	}
}
