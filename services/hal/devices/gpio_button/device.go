// Package gpio_button reads a push button on an interrupt-capable GPIO.
package gpio_button

import (
	"context"
	"time"

	"devicecore-go/services/hal/gpioirq"
	"devicecore-go/services/hal/halcore"
	"devicecore-go/types"
)

type Params struct {
	Pin        int    `yaml:"pin"`
	Pull       string `yaml:"pull"`   // "none","up","down"
	Invert     bool   `yaml:"invert"` // true if pressed == low
	DebounceMs uint16 `yaml:"debounce_ms"`
}

type Device struct {
	pin      halcore.IRQPin
	invert   bool
	debounce time.Duration
}

// Read returns the logical pressed level as a Bool value.
func (d *Device) Read(context.Context) (types.ScaledValue, error) {
	return types.Bool(d.Pressed()), nil
}

func (d *Device) Write(context.Context, types.ScaledValue) error {
	return errUnsupported
}

func (d *Device) Pressed() bool {
	if d.invert {
		return !d.pin.Get()
	}
	return d.pin.Get()
}

func (d *Device) IRQPin() halcore.IRQPin { return d.pin }

// PressEdge is the physical edge a press produces.
func (d *Device) PressEdge() halcore.Edge {
	if d.invert {
		return halcore.EdgeFalling
	}
	return halcore.EdgeRising
}

// Bind attaches an interrupt binding that fires on presses.
func (d *Device) Bind() (*gpioirq.Binding, error) {
	return gpioirq.Bind(d.pin, gpioirq.Options{
		Edge:     d.PressEdge(),
		Debounce: d.debounce,
		Invert:   d.invert,
	})
}
