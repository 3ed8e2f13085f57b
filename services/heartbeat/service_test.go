package heartbeat

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicecore-go/errcode"
	"devicecore-go/sched"
	"devicecore-go/services/hal/core"
	"devicecore-go/types"
)

type recLED struct {
	mu     sync.Mutex
	writes []bool
}

func (r *recLED) Read(context.Context) (types.ScaledValue, error) { return types.Bool(false), nil }

func (r *recLED) Write(_ context.Context, v types.ScaledValue) error {
	if err := v.Expect(types.UnitBool, 0); err != nil {
		return err
	}
	r.mu.Lock()
	r.writes = append(r.writes, v.IsOn())
	r.mu.Unlock()
	return nil
}

func newReg(led core.Driver) *core.Registry {
	return core.NewRegistry(core.NewTable(
		core.Entry{Name: "led0", Class: types.ClassActLED, Driver: led},
	))
}

func TestBlinkDutyCycle(t *testing.T) {
	led := &recLED{}
	timer := sched.NewSimTimer(0, 1000)
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	hb := New(newReg(led), sched.Msec(timer), types.HeartbeatConfig{Cycles: 3}, log)
	require.NoError(t, hb.Start())

	s := sched.New(log)
	_, err := s.Spawn(sched.Spec{Name: "heartbeat", Priority: 20, Entry: hb.Run})
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []uint32{100, 900, 100, 900, 100, 900}, timer.Waits())
	assert.Equal(t, uint64(3000), timer.Elapsed())
	assert.Equal(t, []bool{true, false, true, false, true, false, false}, led.writes)
	assert.Contains(t, logs.String(), "Thread heartbeat")
}

func TestCustomPeriodsSplitLongSleeps(t *testing.T) {
	led := &recLED{}
	timer := sched.NewSimTimer(0, 1000)
	cfg := types.HeartbeatConfig{On: 1500 * time.Millisecond, Off: 500 * time.Millisecond, Cycles: 1}

	hb := New(newReg(led), sched.Msec(timer), cfg, nil)
	require.NoError(t, hb.Run(context.Background()))

	assert.Equal(t, []uint32{1000, 500, 500}, timer.Waits())
}

func TestStopsAtCycleBoundary(t *testing.T) {
	led := &recLED{}
	timer := sched.NewSimTimer(0, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hb := New(newReg(led), sched.Msec(timer), types.HeartbeatConfig{}, nil)
	require.NoError(t, hb.Run(ctx))

	assert.Empty(t, timer.Waits())
	assert.Equal(t, []bool{false}, led.writes)
}

func TestLEDAlreadyClaimed(t *testing.T) {
	reg := newReg(&recLED{})
	d, ok := reg.ByName("led0")
	require.True(t, ok)
	_, err := reg.Claim("ctl", d)
	require.NoError(t, err)

	hb := New(reg, sched.Msec(sched.NewSimTimer(0, 1000)), types.HeartbeatConfig{}, nil)
	assert.Equal(t, errcode.Conflict, errcode.Of(hb.Start()))
}

func TestMissingLED(t *testing.T) {
	reg := core.NewRegistry(core.NewTable())
	hb := New(reg, sched.Msec(sched.NewSimTimer(0, 1000)), types.HeartbeatConfig{}, nil)
	assert.Equal(t, errcode.DeviceMissing, errcode.Of(hb.Start()))
}
