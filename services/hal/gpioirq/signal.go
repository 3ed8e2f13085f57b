// Package gpioirq hands GPIO interrupts from interrupt context to a thread.
//
// The interrupt side only ever calls Signal.Raise. Triggers arriving faster
// than the consumer runs coalesce into one pending wake-up carrying the
// number of edges seen, so a wake-up is never lost and the ISR never blocks.
package gpioirq

import (
	"context"
	"sync/atomic"

	"devicecore-go/x/mathx"
)

// Signal is a single-pending-event flag with a saturating edge counter.
type Signal struct {
	pending atomic.Bool
	count   atomic.Uint32
	wake    chan struct{}
}

func NewSignal() *Signal {
	return &Signal{wake: make(chan struct{}, 1)}
}

// Raise records one edge. Safe from interrupt context: no blocking, no
// allocation.
func (s *Signal) Raise() {
	for {
		c := s.count.Load()
		if s.count.CompareAndSwap(c, mathx.SatAdd(c, 1)) {
			break
		}
	}
	s.pending.Store(true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether an edge is waiting to be consumed.
func (s *Signal) Pending() bool { return s.pending.Load() }

// Poll consumes the pending event without blocking and returns the number
// of edges coalesced into it.
func (s *Signal) Poll() (uint32, bool) {
	if !s.pending.Swap(false) {
		return 0, false
	}
	n := s.count.Swap(0)
	// A Raise racing with the swap above is already included in n.
	return n, n > 0
}

// Wait blocks until an edge is pending, consumes it and returns the
// coalesced count (at least 1).
func (s *Signal) Wait(ctx context.Context) (uint32, error) {
	for {
		if n, ok := s.Poll(); ok {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-s.wake:
		}
	}
}
