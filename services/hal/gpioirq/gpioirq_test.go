package gpioirq

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"devicecore-go/services/hal/halcore"
)

// fakeIRQPin implements halcore.IRQPin with minimal behaviour for tests.
type fakeIRQPin struct {
	mu      sync.Mutex
	level   bool
	handler func()
	number  int
}

func (p *fakeIRQPin) ConfigureInput(_ halcore.Pull) error { return nil }
func (p *fakeIRQPin) ConfigureOutput(initial bool) error  { p.Set(initial); return nil }
func (p *fakeIRQPin) Set(b bool)                          { p.mu.Lock(); p.level = b; p.mu.Unlock() }
func (p *fakeIRQPin) Get() bool                           { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *fakeIRQPin) Toggle()                             { p.mu.Lock(); p.level = !p.level; p.mu.Unlock() }
func (p *fakeIRQPin) Number() int                         { return p.number }
func (p *fakeIRQPin) SetIRQ(_ halcore.Edge, h func()) error {
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()
	return nil
}
func (p *fakeIRQPin) ClearIRQ() error { p.mu.Lock(); p.handler = nil; p.mu.Unlock(); return nil }
func (p *fakeIRQPin) fire(level bool) {
	p.Set(level)
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

func nextWithin(t *testing.T, b *Binding, d time.Duration) (Event, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return b.Next(ctx)
}

func TestSignalCoalescesBackToBack(t *testing.T) {
	s := NewSignal()
	for i := 0; i < 5; i++ {
		s.Raise()
	}
	if !s.Pending() {
		t.Fatal("expected pending")
	}
	n, err := s.Wait(context.Background())
	if err != nil || n != 5 {
		t.Fatalf("Wait = %d, %v; want 5", n, err)
	}
	if s.Pending() {
		t.Fatal("pending after consume")
	}
	if _, ok := s.Poll(); ok {
		t.Fatal("Poll returned a consumed event")
	}
}

func TestSignalCounterSaturates(t *testing.T) {
	s := NewSignal()
	s.count.Store(math.MaxUint32 - 1)
	s.Raise()
	s.Raise()
	s.Raise()
	n, ok := s.Poll()
	if !ok || n != math.MaxUint32 {
		t.Fatalf("Poll = %d, %v; want saturated count", n, ok)
	}
}

func TestSignalWaitHonoursContext(t *testing.T) {
	s := NewSignal()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := s.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSignalNoLostWakeup(t *testing.T) {
	s := NewSignal()
	const total = 1000
	go func() {
		for i := 0; i < total; i++ {
			s.Raise()
		}
	}()
	var seen uint32
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for seen < total {
		n, err := s.Wait(ctx)
		if err != nil {
			t.Fatalf("lost wake-up after %d edges: %v", seen, err)
		}
		seen += n
	}
	if seen != total {
		t.Fatalf("seen %d edges, want %d", seen, total)
	}
}

func TestBindingEdgesAndDebounce(t *testing.T) {
	pin := &fakeIRQPin{number: 5}
	b, err := Bind(pin, Options{Edge: halcore.EdgeBoth, Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer b.Close()

	now := time.Unix(100, 0)
	b.now = func() time.Time { return now }

	pin.fire(true)
	ev, err := nextWithin(t, b, 100*time.Millisecond)
	if err != nil || ev.Edge != halcore.EdgeRising || !ev.Level || ev.Count != 1 {
		t.Fatalf("unexpected event: %+v, %v", ev, err)
	}

	// Within debounce window: suppressed.
	now = now.Add(5 * time.Millisecond)
	pin.fire(false)
	if _, err := nextWithin(t, b, 20*time.Millisecond); err == nil {
		t.Fatal("unexpected event during debounce")
	}

	now = now.Add(20 * time.Millisecond)
	pin.fire(false)
	ev, err = nextWithin(t, b, 100*time.Millisecond)
	if err != nil || ev.Edge != halcore.EdgeFalling || ev.Level {
		t.Fatalf("unexpected event: %+v, %v", ev, err)
	}
}

func TestBindingInvertAndCount(t *testing.T) {
	pin := &fakeIRQPin{number: 7, level: true}
	b, err := Bind(pin, Options{Edge: halcore.EdgeFalling, Invert: true})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	// Three presses before the consumer runs.
	pin.fire(false)
	pin.fire(false)
	pin.fire(false)
	ev, err := nextWithin(t, b, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ev.Level || ev.Count != 3 || ev.Edge != halcore.EdgeFalling {
		t.Fatalf("unexpected event: %+v", ev)
	}

	_ = b.Close()
	pin.fire(true)
	if b.Signal().Pending() {
		t.Fatal("handler still attached after Close")
	}
}

func TestBindRejectsEdgeNone(t *testing.T) {
	if _, err := Bind(&fakeIRQPin{}, Options{}); err == nil {
		t.Fatal("expected error")
	}
}
