package gpioirq

import (
	"context"
	"time"

	"devicecore-go/errcode"
	"devicecore-go/services/hal/halcore"
)

type Options struct {
	Edge     halcore.Edge
	Debounce time.Duration
	Invert   bool // logical level = !pin level
}

// Event is one interrupt delivered in thread context.
type Event struct {
	Edge  halcore.Edge
	Level bool   // logical level after inversion
	Count uint32 // edges coalesced into this event
	TS    time.Time
}

// Binding connects one IRQ pin to a Signal and turns raw wake-ups into
// debounced edge events.
type Binding struct {
	pin  halcore.IRQPin
	sig  *Signal
	opts Options
	now  func() time.Time

	lastLevel bool
	lastEvent time.Time
}

// Bind installs Raise as the pin's interrupt handler.
func Bind(pin halcore.IRQPin, opts Options) (*Binding, error) {
	if opts.Edge == halcore.EdgeNone {
		return nil, errcode.New(errcode.InvalidParams, "irq bind", "edge none")
	}
	b := &Binding{pin: pin, sig: NewSignal(), opts: opts, now: time.Now}
	// Initial logical snapshot so edge detection compares like-for-like.
	b.lastLevel = b.logical(pin.Get())
	if err := pin.SetIRQ(opts.Edge, b.sig.Raise); err != nil {
		return nil, errcode.Wrap(errcode.Error, "irq bind", err)
	}
	return b, nil
}

func (b *Binding) Signal() *Signal { return b.sig }
func (b *Binding) Pin() int        { return b.pin.Number() }

// Debounced reports whether events are debounced. A debounced event is one
// physical press whatever its edge count, since contact bounce adds edges.
func (b *Binding) Debounced() bool { return b.opts.Debounce > 0 }

// Close detaches the interrupt handler.
func (b *Binding) Close() error { return b.pin.ClearIRQ() }

// Next blocks until the next accepted edge. Wake-ups inside the debounce
// window, and EdgeBoth wake-ups that leave the level unchanged, are
// swallowed.
func (b *Binding) Next(ctx context.Context) (Event, error) {
	for {
		n, err := b.sig.Wait(ctx)
		if err != nil {
			return Event{}, err
		}
		level := b.logical(b.pin.Get())
		now := b.now()

		if !b.lastEvent.IsZero() && now.Sub(b.lastEvent) < b.opts.Debounce {
			continue
		}

		var e halcore.Edge
		switch b.opts.Edge {
		case halcore.EdgeBoth:
			switch {
			case !b.lastLevel && level:
				e = halcore.EdgeRising
			case b.lastLevel && !level:
				e = halcore.EdgeFalling
			}
		default:
			// Only the configured edge fires the IRQ.
			e = b.opts.Edge
		}

		b.lastLevel = level
		b.lastEvent = now
		if e != halcore.EdgeNone {
			return Event{Edge: e, Level: level, Count: n, TS: now}, nil
		}
	}
}

func (b *Binding) logical(level bool) bool {
	if b.opts.Invert {
		return !level
	}
	return level
}
