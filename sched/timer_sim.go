package sched

import (
	"runtime"
	"sync"
)

// SimTimer is a virtual Timer for tests and the simulated board. Waits
// advance virtual time instantly and are recorded; a wait beyond MaxWait
// panics, as real hardware would misbehave.
type SimTimer struct {
	mu    sync.Mutex
	now   uint32
	max   uint32
	total uint64
	waits []uint32
}

// NewSimTimer starts at tick start with the given single-wait limit.
func NewSimTimer(start, maxWait uint32) *SimTimer {
	return &SimTimer{now: start, max: maxWait}
}

func (t *SimTimer) Now() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

func (t *SimTimer) MaxWait() uint32 { return t.max }

func (t *SimTimer) Wait(ticks uint32) {
	if ticks > t.max {
		panic("sched: native wait out of range")
	}
	t.Advance(ticks)
	t.mu.Lock()
	t.waits = append(t.waits, ticks)
	t.mu.Unlock()
	runtime.Gosched()
}

// Advance moves virtual time forward; the 32-bit counter wraps.
func (t *SimTimer) Advance(ticks uint32) {
	t.mu.Lock()
	t.now += ticks
	t.total += uint64(ticks)
	t.mu.Unlock()
}

// Elapsed is the total number of ticks advanced, without wrapping.
func (t *SimTimer) Elapsed() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Waits returns a copy of the recorded native waits.
func (t *SimTimer) Waits() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]uint32(nil), t.waits...)
}
