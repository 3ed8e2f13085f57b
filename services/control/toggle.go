package control

import (
	"context"
	"errors"
	"log/slog"

	"devicecore-go/bus"
	"devicecore-go/errcode"
	"devicecore-go/services/hal/core"
	"devicecore-go/services/hal/gpioirq"
	"devicecore-go/services/hal/halcore"
	"devicecore-go/types"
)

// ToggleOwner is the claim name of the toggle task's actuator.
const ToggleOwner = "toggle"

// Binder is implemented by button drivers that can deliver interrupts.
type Binder interface {
	Bind() (*gpioirq.Binding, error)
}

// EdgeEvent is published on irq/<button>/edge for every delivered event.
type EdgeEvent struct {
	Edge  string
	Level bool
	Count uint32
	On    bool // actuator state after the event
}

// Toggle flips an actuator on button presses delivered by interrupt. On an
// undebounced button a burst coalesced into one event toggles by parity:
// an odd count flips the actuator, an even count leaves it as it was. A
// debounced event always counts as one press.
type Toggle struct {
	reg  *core.Registry
	conn *bus.Connection
	cfg  types.ToggleConfig
	log  *slog.Logger

	bind  *gpioirq.Binding
	act   core.Actuator
	topic bus.Topic
	on    bool
}

func NewToggle(reg *core.Registry, conn *bus.Connection, cfg types.ToggleConfig, log *slog.Logger) *Toggle {
	if log == nil {
		log = slog.Default()
	}
	return &Toggle{reg: reg, conn: conn, cfg: cfg, log: log}
}

// Start resolves the button and actuator, attaches the interrupt binding
// and claims the actuator.
func (t *Toggle) Start() error {
	bdev, err := t.reg.Resolve(t.cfg.Button, types.IsClass(types.ClassSenseBtn), "toggle button")
	if err != nil {
		return err
	}
	b, ok := bdev.Driver().(Binder)
	if !ok {
		return errcode.New(errcode.Unsupported, "toggle", bdev.Label()+" has no interrupt")
	}
	adev, err := t.reg.Resolve(t.cfg.Actuator, types.AnyActuator, "toggle actuator")
	if err != nil {
		return err
	}
	bind, err := b.Bind()
	if err != nil {
		return err
	}
	a, err := t.reg.Claim(ToggleOwner, adev)
	if err != nil {
		_ = bind.Close()
		return err
	}
	t.bind, t.act = bind, a
	t.topic = bus.T("irq", bdev.Label(), "edge")
	t.log.Info("toggle ready", "button", bdev.Label(), "pin", bind.Pin(), "actuator", adev.Label())
	return nil
}

func (t *Toggle) Run(ctx context.Context) error {
	if t.bind == nil {
		if err := t.Start(); err != nil {
			return err
		}
	}
	defer t.bind.Close()
	for {
		ev, err := t.bind.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if presses(t.bind, ev)%2 == 1 {
			t.on = !t.on
			if err := t.act.Write(ctx, types.Bool(t.on)); err != nil {
				return err
			}
		}
		t.log.Debug("button edge", "edge", halcore.EdgeToString(ev.Edge), "count", ev.Count, "on", t.on)
		if t.conn != nil {
			t.conn.Publish(t.conn.NewMessage(t.topic, EdgeEvent{
				Edge:  halcore.EdgeToString(ev.Edge),
				Level: ev.Level,
				Count: ev.Count,
				On:    t.on,
			}, false))
		}
	}
}

func presses(b *gpioirq.Binding, ev gpioirq.Event) uint32 {
	if b.Debounced() {
		return 1
	}
	return ev.Count
}
