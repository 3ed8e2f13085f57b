package core

import (
	"slices"
	"strconv"
	"sync"

	"devicecore-go/errcode"
	"devicecore-go/services/hal/halcore"
)

// ResourceRegistry hands hardware to device builders. A GPIO pin has at
// most one owner; I²C buses are transactional and may be shared.
type ResourceRegistry interface {
	ClaimGPIO(devID string, pin int) (halcore.GPIOPin, error)
	ClaimIRQ(devID string, pin int) (halcore.IRQPin, error)
	ClaimI2C(devID string, bus string) (halcore.I2C, error)
	ReleaseGPIO(devID string, pin int)
}

// PinSource resolves a pin number on the board; ok is false for pins the
// board does not have.
type PinSource func(n int) (halcore.IRQPin, bool)

// Pool is the ResourceRegistry platforms build on.
type Pool struct {
	pins  PinSource
	buses map[string]halcore.I2C

	mu       sync.Mutex
	owners   map[int]string
	busUsers map[string][]string
}

func NewPool(pins PinSource, buses map[string]halcore.I2C) *Pool {
	if buses == nil {
		buses = map[string]halcore.I2C{}
	}
	return &Pool{
		pins:     pins,
		buses:    buses,
		owners:   map[int]string{},
		busUsers: map[string][]string{},
	}
}

func (p *Pool) ClaimGPIO(devID string, pin int) (halcore.GPIOPin, error) {
	return p.ClaimIRQ(devID, pin)
}

func (p *Pool) ClaimIRQ(devID string, pin int) (halcore.IRQPin, error) {
	h, ok := p.pins(pin)
	if !ok {
		return nil, errcode.New(errcode.UnknownPin, "claim", "gpio"+strconv.Itoa(pin))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, held := p.owners[pin]; held {
		return nil, errcode.New(errcode.PinInUse, "claim", "gpio"+strconv.Itoa(pin)+" held by "+cur)
	}
	p.owners[pin] = devID
	return h, nil
}

func (p *Pool) ReleaseGPIO(devID string, pin int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owners[pin] == devID {
		delete(p.owners, pin)
	}
}

func (p *Pool) ClaimI2C(devID string, bus string) (halcore.I2C, error) {
	b, ok := p.buses[bus]
	if !ok {
		return nil, errcode.New(errcode.UnknownBus, "claim", bus)
	}
	p.mu.Lock()
	p.busUsers[bus] = append(p.busUsers[bus], devID)
	p.mu.Unlock()
	return b, nil
}

// PinOwner reports which device holds a pin.
func (p *Pool) PinOwner(pin int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.owners[pin]
	return o, ok
}

// Pins lists the claimed pin numbers, ascending.
func (p *Pool) Pins() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, 0, len(p.owners))
	for n := range p.owners {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Buses lists the board's I²C bus names, sorted.
func (p *Pool) Buses() []string {
	out := make([]string, 0, len(p.buses))
	for name := range p.buses {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// BusUsers lists the devices sharing a bus, in claim order.
func (p *Pool) BusUsers(bus string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.busUsers[bus]...)
}
