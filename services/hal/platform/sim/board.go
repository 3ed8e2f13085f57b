// Package sim is a simulated board: 30 GPIOs with interrupt support, an I²C
// bus carrying an emulated AHT20, host timers and the process console.
package sim

import (
	"io"
	"os"
	"time"

	"devicecore-go/drivers/aht20"
	"devicecore-go/sched"
	"devicecore-go/services/hal/core"
	"devicecore-go/services/hal/halcore"
	"devicecore-go/services/hal/platform"
)

// NumPins matches the RP2040's GPIO count.
const NumPins = 30

type Board struct {
	pins   [NumPins]*Pin
	i2c0   *I2CBus
	aht    *aht20.Emulator
	pool   *core.Pool
	timers platform.Timers
	in     io.Reader
	out    io.Writer
}

type Option func(*Board)

// WithTimers replaces the host timers, typically with sched.SimTimer.
func WithTimers(sec, msec sched.Timer) Option {
	return func(b *Board) { b.timers = platform.Timers{Sec: sec, Msec: msec} }
}

func WithConsole(in io.Reader, out io.Writer) Option {
	return func(b *Board) { b.in, b.out = in, out }
}

func New(opts ...Option) *Board {
	b := &Board{
		i2c0: NewI2CBus(),
		aht:  aht20.NewEmulator(aht20.Address),
		timers: platform.Timers{
			Sec:  sched.NewHostTimer(time.Second, 0),
			Msec: sched.NewHostTimer(time.Millisecond, 0),
		},
		in:  os.Stdin,
		out: os.Stdout,
	}
	for i := range b.pins {
		b.pins[i] = newPin(i)
	}
	b.i2c0.Attach(aht20.Address, b.aht)
	b.pool = core.NewPool(b.pin, map[string]halcore.I2C{"i2c0": b.i2c0})
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Board) pin(n int) (halcore.IRQPin, bool) {
	if n < 0 || n >= NumPins {
		return nil, false
	}
	return b.pins[n], true
}

func (b *Board) Name() string                     { return "sim" }
func (b *Board) Resources() core.ResourceRegistry { return b.pool }
func (b *Board) Timers() platform.Timers          { return b.timers }
func (b *Board) Console() (io.Reader, io.Writer)  { return b.in, b.out }

// Pin returns simulated pin n for stimulus and inspection; nil when out of
// range.
func (b *Board) Pin(n int) *Pin {
	if n < 0 || n >= NumPins {
		return nil
	}
	return b.pins[n]
}

func (b *Board) Pool() *core.Pool       { return b.pool }
func (b *Board) I2C0() *I2CBus          { return b.i2c0 }
func (b *Board) AHT20() *aht20.Emulator { return b.aht }

var _ platform.Platform = (*Board)(nil)
