//go:build rp2040

// Package rp2 brings up a Raspberry Pi Pico: GPIOs with interrupts, both
// I²C controllers on their default pins, and the console on UART0.
package rp2

import (
	"context"
	"io"
	"time"

	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"devicecore-go/sched"
	"devicecore-go/services/console"
	"devicecore-go/services/hal/core"
	"devicecore-go/services/hal/halcore"
	"devicecore-go/services/hal/platform"
)

type Board struct {
	pins [29]*rp2Pin
	pool *core.Pool
	in   io.Reader
	out  io.Writer
}

// New configures the hardware. ctx bounds the console receive pump.
func New(ctx context.Context) *Board {
	b := &Board{}
	for i := range b.pins {
		b.pins[i] = &rp2Pin{p: machine.Pin(i), n: i}
	}

	i2c0 := machine.I2C0
	_ = i2c0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	i2c1 := machine.I2C1
	_ = i2c1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	b.pool = core.NewPool(b.pin, map[string]halcore.I2C{"i2c0": i2c0, "i2c1": i2c1})

	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: 115_200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	b.in = console.NewReader(ctx, u.RecvSomeContext, 256)
	b.out = console.CRLFWriter{W: u}
	return b
}

func (b *Board) pin(n int) (halcore.IRQPin, bool) {
	if n < 0 || n >= len(b.pins) {
		return nil, false
	}
	return b.pins[n], true
}

func (b *Board) Name() string                     { return "pico" }
func (b *Board) Resources() core.ResourceRegistry { return b.pool }
func (b *Board) Console() (io.Reader, io.Writer)  { return b.in, b.out }

func (b *Board) Timers() platform.Timers {
	return platform.Timers{
		Sec:  sched.NewHostTimer(time.Second, 0),
		Msec: sched.NewHostTimer(time.Millisecond, 0),
	}
}

var _ platform.Platform = (*Board)(nil)
