package sim

import (
	"sync"

	"devicecore-go/services/hal/halcore"
)

// Pin is a simulated GPIO. Input levels are driven with Fire; interrupt
// handlers run synchronously on the caller's goroutine, standing in for
// interrupt context.
type Pin struct {
	n int

	mu      sync.Mutex
	level   bool
	output  bool
	edge    halcore.Edge
	handler func()
}

func newPin(n int) *Pin { return &Pin{n: n} }

func (p *Pin) Number() int { return p.n }

func (p *Pin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	p.output = false
	switch pull {
	case halcore.PullUp:
		p.level = true
	case halcore.PullDown:
		p.level = false
	}
	p.mu.Unlock()
	return nil
}

func (p *Pin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.output = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *Pin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *Pin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *Pin) Toggle() {
	p.mu.Lock()
	p.level = !p.level
	p.mu.Unlock()
}

// IsOutput reports whether the pin was last configured as an output.
func (p *Pin) IsOutput() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

func (p *Pin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	p.edge, p.handler = edge, handler
	p.mu.Unlock()
	return nil
}

func (p *Pin) ClearIRQ() error {
	p.mu.Lock()
	p.edge, p.handler = halcore.EdgeNone, nil
	p.mu.Unlock()
	return nil
}

// Fire drives the input to level and raises the interrupt when the
// transition matches the configured edge.
func (p *Pin) Fire(level bool) {
	p.mu.Lock()
	prev := p.level
	p.level = level
	h, edge := p.handler, p.edge
	p.mu.Unlock()
	if h == nil {
		return
	}
	rising, falling := !prev && level, prev && !level
	switch {
	case edge == halcore.EdgeBoth && (rising || falling),
		edge == halcore.EdgeRising && rising,
		edge == halcore.EdgeFalling && falling:
		h()
	}
}

// Pulse drives the input away from its current level and back, producing
// one rising and one falling edge.
func (p *Pin) Pulse() {
	l := p.Get()
	p.Fire(!l)
	p.Fire(l)
}
