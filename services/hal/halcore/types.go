// Package halcore holds the hardware primitives devices are built on:
// GPIO pins, interrupt-capable pins and I²C buses.
package halcore

import "tinygo.org/x/drivers"

// I2C is the TinyGo drivers bus interface; host and MCU buses both
// satisfy it.
type I2C = drivers.I2C

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// ParsePull accepts the configuration spellings "", "none", "up", "down".
func ParsePull(s string) (Pull, bool) {
	switch s {
	case "", "none":
		return PullNone, true
	case "up":
		return PullUp, true
	case "down":
		return PullDown, true
	}
	return PullNone, false
}

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOPin with interrupts. The handler runs in interrupt
// context: it must not block or allocate.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

func EdgeToString(e Edge) string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// ParseEdge is the inverse of EdgeToString.
func ParseEdge(s string) (Edge, bool) {
	for _, e := range []Edge{EdgeNone, EdgeRising, EdgeFalling, EdgeBoth} {
		if EdgeToString(e) == s {
			return e, true
		}
	}
	return EdgeNone, false
}
