// Package gpio_dout drives binary actuators (LEDs, relays, load switches)
// from one GPIO output.
package gpio_dout

import (
	"context"
	"sync/atomic"

	"devicecore-go/services/hal/halcore"
	"devicecore-go/types"
)

type Params struct {
	Pin       int  `yaml:"pin"`
	ActiveLow bool `yaml:"active_low"`
	Initial   bool `yaml:"initial"`
}

type Device struct {
	pin       halcore.GPIOPin
	activeLow bool
	state     atomic.Bool
}

func New(pin halcore.GPIOPin, p Params) *Device {
	return &Device{pin: pin, activeLow: p.ActiveLow}
}

// Init drives the pin to the initial logical state.
func (d *Device) Init(initial bool) error {
	if err := d.pin.ConfigureOutput(d.level(initial)); err != nil {
		return err
	}
	d.state.Store(initial)
	return nil
}

// Read reports the commanded state. The registry hands actuators out
// write-only; status listings use State.
func (d *Device) Read(context.Context) (types.ScaledValue, error) {
	return types.Bool(d.State()), nil
}

// Write accepts Bool values only.
func (d *Device) Write(_ context.Context, v types.ScaledValue) error {
	if err := v.Expect(types.UnitBool, 0); err != nil {
		return err
	}
	on := v.IsOn()
	d.pin.Set(d.level(on))
	d.state.Store(on)
	return nil
}

// State is the last commanded logical state.
func (d *Device) State() bool { return d.state.Load() }

func (d *Device) Pin() int { return d.pin.Number() }

func (d *Device) level(on bool) bool {
	if d.activeLow {
		return !on
	}
	return on
}
