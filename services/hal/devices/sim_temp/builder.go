// Package sim_temp is a scripted temperature sensor for the simulated board
// and tests. Each read returns the next value of a cycling sequence.
package sim_temp

import (
	"context"
	"errors"
	"sync"

	"devicecore-go/errcode"
	"devicecore-go/services/hal/core"
	"devicecore-go/types"
)

func init() { core.RegisterBuilder("sim_temp", builder{}) }

// Params; values are centi-°C.
type Params struct {
	Values    []int16 `yaml:"values"`
	FailEvery int     `yaml:"fail_every"` // every Nth read fails; 0 => never
}

// ErrInjected is the failure FailEvery produces.
var ErrInjected = errors.New("sim_temp: injected failure")

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) ([]core.Entry, error) {
	var p Params
	if err := core.DecodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if p.FailEvery < 0 {
		return nil, errcode.New(errcode.InvalidParams, "sim_temp", "fail_every")
	}
	return []core.Entry{{Name: in.Name, Class: types.ClassSenseTemp, Driver: New(p)}}, nil
}

type Device struct {
	mu    sync.Mutex
	vals  []int16
	next  int
	reads int
	fail  int
}

func New(p Params) *Device {
	vals := append([]int16(nil), p.Values...)
	if len(vals) == 0 {
		vals = []int16{2500}
	}
	return &Device{vals: vals, fail: p.FailEvery}
}

// Set replaces the sequence with a single value.
func (d *Device) Set(centi int16) {
	d.mu.Lock()
	d.vals, d.next = []int16{centi}, 0
	d.mu.Unlock()
}

func (d *Device) Read(context.Context) (types.ScaledValue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if d.fail > 0 && d.reads%d.fail == 0 {
		return types.ScaledValue{}, ErrInjected
	}
	v := d.vals[d.next]
	d.next = (d.next + 1) % len(d.vals)
	return types.NewScaledValue(types.UnitTempC, -2, v)
}

func (d *Device) Write(context.Context, types.ScaledValue) error {
	return errcode.New(errcode.Unsupported, "sim_temp", "write")
}
