package control

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicecore-go/bus"
	"devicecore-go/errcode"
	"devicecore-go/sched"
	"devicecore-go/services/hal/core"
	"devicecore-go/services/hal/devices/gpio_button"
	"devicecore-go/services/hal/devices/gpio_dout"
	"devicecore-go/services/hal/devices/sim_temp"
	"devicecore-go/services/hal/gpioirq"
	"devicecore-go/services/hal/platform/sim"
	"devicecore-go/types"
)

// scriptedSensor returns queued results, then repeats the last value.
type scriptedSensor struct {
	mu   sync.Mutex
	errs []error
	val  types.ScaledValue
}

func (s *scriptedSensor) Read(context.Context) (types.ScaledValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return types.ScaledValue{}, err
		}
	}
	return s.val, nil
}

func (s *scriptedSensor) Write(context.Context, types.ScaledValue) error { return nil }

type rig struct {
	board *sim.Board
	reg   *core.Registry
	temp  *sim_temp.Device
	led   *gpio_dout.Device
	clock *sched.Clock
	timer *sched.SimTimer
	bus   *bus.Bus
	cfg   types.ControlConfig
}

func newRig(t *testing.T, sensor core.Driver) *rig {
	t.Helper()
	b := sim.New()
	pin, err := b.Resources().ClaimGPIO("led0", 25)
	require.NoError(t, err)
	led := gpio_dout.New(pin, gpio_dout.Params{})
	require.NoError(t, led.Init(false))

	temp := sim_temp.New(sim_temp.Params{Values: []int16{2500}})
	if sensor == nil {
		sensor = temp
	}
	tab := core.NewTable(
		core.Entry{Name: "led0", Class: types.ClassActLED, Driver: led},
		core.Entry{Name: "temp0", Class: types.ClassSenseTemp, Driver: sensor},
	)
	timer := sched.NewSimTimer(0, 1000)
	return &rig{
		board: b,
		reg:   core.NewRegistry(tab),
		temp:  temp,
		led:   led,
		clock: sched.Msec(timer),
		timer: timer,
		bus:   bus.NewBus(8),
		cfg: types.ControlConfig{
			Threshold:       2400,
			Scale:           -2,
			Unit:            types.UnitTempC,
			Period:          2500 * time.Millisecond,
			MaxReadFailures: 3,
		},
	}
}

func (r *rig) loop() *Loop {
	return New(r.reg, r.clock, r.bus.NewConnection("ctl"), r.cfg, nil)
}

func TestThresholdDrivesActuator(t *testing.T) {
	r := newRig(t, nil)
	l := r.loop()
	require.NoError(t, l.Start())
	ctx := context.Background()

	require.NoError(t, l.Step(ctx))
	assert.True(t, r.led.State(), "25.00 > 24.00 switches on")
	assert.True(t, r.board.Pin(25).Get())

	r.temp.Set(2300)
	require.NoError(t, l.Step(ctx))
	assert.False(t, r.led.State(), "23.00 <= 24.00 switches off")

	r.temp.Set(2400)
	require.NoError(t, l.Step(ctx))
	assert.False(t, r.led.State(), "equal to threshold stays off")

	m, ok := r.bus.Retained(TopicState)
	require.True(t, ok)
	st := m.Payload.(State)
	assert.Equal(t, "temp0", st.Sensor)
	assert.Equal(t, uint64(3), st.Cycles)
	assert.Equal(t, "24.00 °C", st.ThresholdText())
}

func TestUnitMismatchIsFatal(t *testing.T) {
	hum, _ := types.NewScaledValue(types.UnitPercent, -2, 5000)
	r := newRig(t, &scriptedSensor{val: hum})
	l := r.loop()
	require.NoError(t, l.Start())

	err := l.Step(context.Background())
	assert.Equal(t, errcode.UnitMismatch, errcode.Of(err))
	assert.True(t, errcode.Fatal(err))
	assert.False(t, r.led.State(), "no actuation on mismatch")
}

func TestScaleMismatchIsFatal(t *testing.T) {
	deci, _ := types.NewScaledValue(types.UnitTempC, -1, 250)
	r := newRig(t, &scriptedSensor{val: deci})
	l := r.loop()
	require.NoError(t, l.Start())
	assert.Equal(t, errcode.UnitMismatch, errcode.Of(l.Step(context.Background())))
}

func TestReadFailuresSkipThenEscalate(t *testing.T) {
	v, _ := types.NewScaledValue(types.UnitTempC, -2, 2500)
	nack := errors.New("nack")
	s := &scriptedSensor{val: v, errs: []error{nack, nack, nil, nack, nack, nack}}
	r := newRig(t, s)
	l := r.loop()
	require.NoError(t, l.Start())
	ctx := context.Background()

	require.NoError(t, l.Step(ctx))
	require.NoError(t, l.Step(ctx))
	assert.False(t, r.led.State(), "failed cycles do not actuate")

	require.NoError(t, l.Step(ctx))
	assert.True(t, r.led.State(), "success resets the failure count")

	require.NoError(t, l.Step(ctx))
	require.NoError(t, l.Step(ctx))
	err := l.Step(ctx)
	require.Error(t, err)
	assert.Equal(t, errcode.ReadFailed, errcode.Of(err))
	assert.ErrorIs(t, err, nack)
}

func TestMissingSensorFailsStart(t *testing.T) {
	r := newRig(t, nil)
	r.cfg.Sensor = types.DeviceRef{Class: types.ClassSenseHum}
	err := r.loop().Start()
	assert.Equal(t, errcode.DeviceMissing, errcode.Of(err))
	assert.Contains(t, err.Error(), "SENSE_HUM")

	r.cfg.Sensor = types.DeviceRef{Name: "nope"}
	assert.Equal(t, errcode.DeviceMissing, errcode.Of(r.loop().Start()))
}

func TestActuatorAlreadyOwned(t *testing.T) {
	r := newRig(t, nil)
	led, _ := r.reg.ByName("led0")
	_, err := r.reg.Claim("heartbeat", led)
	require.NoError(t, err)

	err = r.loop().Start()
	assert.Equal(t, errcode.Conflict, errcode.Of(err))
}

func TestRunSleepsFullPeriodAndServesControl(t *testing.T) {
	r := newRig(t, nil)
	l := r.loop()
	require.NoError(t, l.Start())
	ctx, cancel := context.WithCancel(context.Background())

	// Sent before Run starts: Start already subscribed, so it is queued.
	shell := r.bus.NewConnection("shell")
	rctx, rcancel := context.WithTimeout(ctx, 2*time.Second)
	defer rcancel()
	replies := make(chan *bus.Message, 1)
	go func() {
		m, err := shell.RequestWait(rctx, shell.NewMessage(TopicThreshold, int16(2600), false))
		assert.NoError(t, err)
		replies <- m
	}()
	require.Eventually(t, func() bool { return len(l.sub.Channel()) == 1 }, time.Second, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	reply := <-replies
	require.NotNil(t, reply)
	rep := reply.Payload.(Reply)
	require.True(t, rep.OK, rep.Err)
	assert.Equal(t, int16(2600), rep.State.Threshold)

	// The new threshold applies from a later cycle: 25.00 is below 26.00.
	states := shell.Subscribe(TopicState)
	deadline := time.After(2 * time.Second)
	for off := false; !off; {
		select {
		case m := <-states.Channel():
			st := m.Payload.(State)
			off = st.Threshold == 2600 && !st.On && st.Cycles > 1
		case <-deadline:
			t.Fatal("loop never applied the new threshold")
		}
	}

	reply, err := shell.RequestWait(rctx, shell.NewMessage(TopicThreshold, "x", false))
	require.NoError(t, err)
	assert.False(t, reply.Payload.(Reply).OK)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	// Every inter-cycle sleep was 2500 ticks split at the 1000-tick limit.
	waits := r.timer.Waits()
	require.GreaterOrEqual(t, len(waits), 3)
	assert.Equal(t, []uint32{1000, 1000, 500}, waits[:3])
	assert.Zero(t, r.timer.Elapsed()%2500)
}

func TestDisableStopsActuation(t *testing.T) {
	r := newRig(t, nil)
	l := r.loop()
	require.NoError(t, l.Start())
	conn := r.bus.NewConnection("shell")

	rep := l.apply(conn.NewMessage(TopicDisable, nil, false))
	require.True(t, rep.OK)
	assert.False(t, rep.State.Enabled)
	assert.False(t, l.enabled.Load())

	rep = l.apply(conn.NewMessage(TopicEnable, nil, false))
	assert.True(t, rep.State.Enabled)
}

func TestToggleParity(t *testing.T) {
	b := sim.New()
	res := core.Resources{Reg: b.Resources()}
	ctx := context.Background()

	var entries []core.Entry
	for _, dc := range []struct {
		typ    string
		name   string
		params any
	}{
		{"gpio_button", "btn", gpio_button.Params{Pin: 14, Pull: "up", Invert: true}},
		{"gpio_led", "led0", gpio_dout.Params{Pin: 25}},
	} {
		es, err := core.Build(ctx, dc.typ, dc.name, dc.params, res)
		require.NoError(t, err)
		entries = append(entries, es...)
	}
	reg := core.NewRegistry(core.NewTable(entries...))
	bb := bus.NewBus(16)
	tg := NewToggle(reg, bb.NewConnection("toggle"), types.ToggleConfig{}, nil)
	require.NoError(t, tg.Start())

	pin := b.Pin(14)
	led, _ := reg.ByName("led0")
	ledDrv := led.Driver().(*gpio_dout.Device)

	// Three presses before the task runs coalesce into one event.
	pin.Pulse()
	pin.Pulse()
	pin.Pulse()

	events := bb.NewConnection("obs").Subscribe(bus.T("irq", "btn", "edge"))
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- tg.Run(runCtx) }()

	ev := nextEdge(t, events)
	assert.Equal(t, uint32(3), ev.Count)
	assert.True(t, ev.On)
	assert.True(t, ledDrv.State())

	// Two more presses: however they coalesce, parity leaves the LED on.
	pin.Pulse()
	pin.Pulse()
	var total uint32
	for total < 2 {
		total += nextEdge(t, events).Count
	}
	assert.True(t, ledDrv.State())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("toggle did not stop")
	}
	_, owned := reg.Owner(led)
	assert.True(t, owned)
}

func TestDebouncedBounceIsOnePress(t *testing.T) {
	b := sim.New()
	res := core.Resources{Reg: b.Resources()}
	ctx := context.Background()

	btn, err := core.Build(ctx, "gpio_button", "btn",
		gpio_button.Params{Pin: 14, Pull: "up", Invert: true, DebounceMs: 20}, res)
	require.NoError(t, err)
	led, err := core.Build(ctx, "gpio_led", "led0", gpio_dout.Params{Pin: 25}, res)
	require.NoError(t, err)
	reg := core.NewRegistry(core.NewTable(append(btn, led...)...))
	bb := bus.NewBus(16)
	tg := NewToggle(reg, bb.NewConnection("toggle"), types.ToggleConfig{}, nil)
	require.NoError(t, tg.Start())

	// Press with contact bounce: two falling edges in one burst.
	pin := b.Pin(14)
	pin.Fire(false)
	pin.Fire(true)
	pin.Fire(false)

	events := bb.NewConnection("obs").Subscribe(bus.T("irq", "btn", "edge"))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tg.Run(runCtx) }()

	ev := nextEdge(t, events)
	assert.Equal(t, uint32(2), ev.Count)
	assert.True(t, ev.On)
	ledDev, _ := reg.ByName("led0")
	assert.True(t, ledDev.Driver().(*gpio_dout.Device).State())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("toggle did not stop")
	}
}

type deadButton struct{ scriptedSensor }

func (*deadButton) Bind() (*gpioirq.Binding, error) {
	return nil, errcode.New(errcode.Error, "irq bind", "no interrupt line")
}

func TestToggleBindFailureLeavesActuatorFree(t *testing.T) {
	r := newRig(t, nil)
	tab := core.NewTable(
		core.Entry{Name: "btn", Class: types.ClassSenseBtn, Driver: &deadButton{}},
		core.Entry{Name: "led0", Class: types.ClassActLED, Driver: r.led},
	)
	reg := core.NewRegistry(tab)
	tg := NewToggle(reg, nil, types.ToggleConfig{
		Button:   types.DeviceRef{Name: "btn"},
		Actuator: types.DeviceRef{Name: "led0"},
	}, nil)
	require.Error(t, tg.Start())

	led, _ := reg.ByName("led0")
	_, owned := reg.Owner(led)
	assert.False(t, owned)
	_, err := reg.Claim("heartbeat", led)
	assert.NoError(t, err)
}

func nextEdge(t *testing.T, sub *bus.Subscription) EdgeEvent {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m.Payload.(EdgeEvent)
	case <-time.After(2 * time.Second):
		t.Fatal("no edge event")
	}
	return EdgeEvent{}
}
