// Package control holds the tasks that act on devices: the threshold
// control loop and the interrupt-driven toggle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"devicecore-go/bus"
	"devicecore-go/errcode"
	"devicecore-go/sched"
	"devicecore-go/services/hal/core"
	"devicecore-go/types"
)

// Owner is the claim name of the control loop's actuator.
const Owner = "ctl"

var (
	TopicState     = bus.T("ctl", "state")
	TopicControl   = bus.T("ctl", "control", bus.SingleWild)
	TopicEnable    = bus.T("ctl", "control", "enable")
	TopicDisable   = bus.T("ctl", "control", "disable")
	TopicThreshold = bus.T("ctl", "control", "threshold")
)

// State is published retained on TopicState after every cycle and
// returned in replies to control requests.
type State struct {
	Sensor    string
	Actuator  string
	Enabled   bool
	Value     types.ScaledValue
	Threshold int16
	Scale     int8
	Unit      types.Unit
	On        bool
	Failures  int
	Cycles    uint64
}

// ThresholdText renders the threshold in the configured unit.
func (s State) ThresholdText() string {
	v, _ := types.NewScaledValue(s.Unit, s.Scale, s.Threshold)
	return v.String()
}

// Reply answers a control request.
type Reply struct {
	OK    bool
	Err   string
	State State
}

// Loop drives one actuator from one sensor: above the threshold the
// actuator is on, otherwise off. It is the actuator's only writer.
type Loop struct {
	reg   *core.Registry
	clock *sched.Clock
	conn  *bus.Connection
	cfg   types.ControlConfig
	log   *slog.Logger

	sensor core.Sensor
	act    core.Actuator
	sub    *bus.Subscription // control requests, queued from Start

	enabled   atomic.Bool
	threshold atomic.Int32

	// owned by Run
	state    State
	failures int
	started  bool
}

func New(reg *core.Registry, clock *sched.Clock, conn *bus.Connection, cfg types.ControlConfig, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	if cfg.Unit == types.UnitUndef {
		cfg.Unit = types.UnitTempC
	}
	l := &Loop{reg: reg, clock: clock, conn: conn, cfg: cfg, log: log}
	l.enabled.Store(true)
	l.threshold.Store(int32(cfg.Threshold))
	return l
}

// Start resolves and claims the devices and subscribes to control
// requests, so requests sent before Run are queued rather than lost.
// Failures here are startup precondition failures and happen before any
// actuation.
func (l *Loop) Start() error {
	sdev, err := l.reg.Resolve(l.cfg.Sensor, types.IsClass(types.ClassSenseTemp), "control sensor")
	if err != nil {
		return err
	}
	s, ok := sdev.Sensor()
	if !ok {
		return errcode.New(errcode.DeviceMissing, "ctl", sdev.Label()+" is not a sensor")
	}
	adev, err := l.reg.Resolve(l.cfg.Actuator, types.AnyActuator, "control actuator")
	if err != nil {
		return err
	}
	a, err := l.reg.Claim(Owner, adev)
	if err != nil {
		return err
	}
	l.sensor, l.act = s, a
	l.state = State{
		Sensor:   sdev.Label(),
		Actuator: adev.Label(),
		Scale:    l.cfg.Scale,
		Unit:     l.cfg.Unit,
	}
	if l.conn != nil {
		l.sub = l.conn.Subscribe(TopicControl)
	}
	l.started = true
	l.log.Info("control loop ready", "sensor", sdev.Label(), "actuator", adev.Label(),
		"threshold", l.snapshot().ThresholdText(), "period", l.cfg.Period)
	return nil
}

// Run cycles until ctx ends or a fatal error occurs. The sleep between
// cycles is not interruptible, so cancellation takes effect at the next
// cycle boundary.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started {
		if err := l.Start(); err != nil {
			return err
		}
	}
	if l.sub != nil {
		defer l.conn.Unsubscribe(l.sub)
		go l.serveControl(ctx, l.sub)
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if l.enabled.Load() {
			if err := l.Step(ctx); err != nil {
				return err
			}
		}
		l.clock.SleepExtended(l.cfg.Period)
	}
}

// Step runs one read-compare-drive cycle. A failed read skips the cycle
// until MaxReadFailures consecutive failures, which is fatal. A unit or
// scale mismatch is fatal at once.
func (l *Loop) Step(ctx context.Context) error {
	l.state.Cycles++
	v, err := l.sensor.Read(ctx)
	if err != nil {
		if errcode.Of(err) != errcode.ReadFailed {
			return err
		}
		l.failures++
		l.state.Failures = l.failures
		l.log.Warn("sensor read failed, skipping cycle", "err", err, "consecutive", l.failures)
		if l.cfg.MaxReadFailures > 0 && l.failures >= l.cfg.MaxReadFailures {
			return &errcode.E{
				C:   errcode.ReadFailed,
				Op:  "ctl",
				Msg: fmt.Sprintf("%d consecutive read failures", l.failures),
				Err: err,
			}
		}
		l.publish()
		return nil
	}
	l.failures = 0
	if err := v.Expect(l.cfg.Unit, l.cfg.Scale); err != nil {
		return err
	}
	x, err := v.At(0)
	if err != nil {
		return err
	}
	th := int16(l.threshold.Load())
	on := x > th
	if err := l.act.Write(ctx, types.Bool(on)); err != nil {
		// Actuator writes are infallible by contract.
		return fmt.Errorf("ctl: actuator inconsistent: %w", err)
	}
	if on != l.state.On {
		l.log.Info("actuator switched", "on", on, "value", v.String())
	}
	l.state.Value = v
	l.state.On = on
	l.state.Failures = 0
	l.publish()
	return nil
}

func (l *Loop) snapshot() State {
	s := l.state
	s.Enabled = l.enabled.Load()
	s.Threshold = int16(l.threshold.Load())
	return s
}

func (l *Loop) publish() {
	if l.conn == nil {
		return
	}
	l.conn.Publish(l.conn.NewMessage(TopicState, l.snapshot(), true))
}

// serveControl applies shell requests. Settings land in atomics the loop
// reads at its next cycle, so the loop stays the actuator's only writer.
func (l *Loop) serveControl(ctx context.Context, sub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			r := l.apply(msg)
			l.conn.Reply(msg, r, false)
		}
	}
}

func (l *Loop) apply(msg *bus.Message) Reply {
	if len(msg.Topic) != 3 {
		return Reply{Err: "bad topic"}
	}
	switch msg.Topic[2] {
	case "enable":
		l.enabled.Store(true)
	case "disable":
		l.enabled.Store(false)
	case "threshold":
		th, ok := msg.Payload.(int16)
		if !ok {
			return Reply{Err: fmt.Sprintf("threshold wants int16, got %T", msg.Payload)}
		}
		l.threshold.Store(int32(th))
	default:
		return Reply{Err: "unknown control " + msg.Topic[2]}
	}
	l.log.Info("control updated", "op", msg.Topic[2],
		"enabled", l.enabled.Load(), "threshold", l.threshold.Load())
	// l.state belongs to Run; report the last published state instead.
	var s State
	if m, ok := l.conn.Bus().Retained(TopicState); ok {
		s, _ = m.Payload.(State)
	}
	s.Enabled = l.enabled.Load()
	s.Threshold = int16(l.threshold.Load())
	return Reply{OK: true, State: s}
}
