// Package aht20dev exposes an AHT20 as two sensors sharing one driver:
// temperature in centi-°C and relative humidity in centi-%RH.
package aht20dev

import (
	"context"
	"sync"
	"time"

	"devicecore-go/drivers/aht20"
	"devicecore-go/errcode"
	"devicecore-go/services/hal/core"
	"devicecore-go/types"
	"devicecore-go/x/mathx"
)

func init() { core.RegisterBuilder("aht20", builder{}) }

type Params struct {
	Bus           string `yaml:"bus"`  // e.g. "i2c0"
	Addr          uint16 `yaml:"addr"` // defaults to aht20.Address (0x38) if zero
	TriggerHintMs int    `yaml:"trigger_hint_ms"`
}

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) ([]core.Entry, error) {
	var p Params
	if err := core.DecodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if p.Bus == "" {
		return nil, errcode.New(errcode.InvalidParams, "aht20", "bus required")
	}
	if p.Addr == 0 {
		p.Addr = aht20.Address
	}
	owner := in.Name
	if owner == "" {
		owner = "aht20@" + p.Bus
	}
	bus, err := in.Res.Reg.ClaimI2C(owner, p.Bus)
	if err != nil {
		return nil, err
	}
	s := &sensor{
		drv: aht20.New(bus),
		cfg: aht20.Config{
			Address:     p.Addr,
			TriggerHint: time.Duration(p.TriggerHintMs) * time.Millisecond,
		},
	}
	var tName, hName string
	if in.Name != "" {
		tName, hName = in.Name+".temp", in.Name+".hum"
	}
	return []core.Entry{
		{Name: tName, Class: types.ClassSenseTemp, Driver: channel{s: s, temp: true}},
		{Name: hName, Class: types.ClassSenseHum, Driver: channel{s: s}},
	}, nil
}

// sensor serialises measurements on the shared driver.
type sensor struct {
	mu         sync.Mutex
	drv        aht20.Device
	cfg        aht20.Config
	configured bool
}

func (s *sensor) measure() (aht20.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configured {
		if err := s.drv.Configure(s.cfg); err != nil {
			return aht20.Sample{}, err
		}
		s.configured = true
	}
	return s.drv.Read()
}

type channel struct {
	s    *sensor
	temp bool
}

func (c channel) Read(ctx context.Context) (types.ScaledValue, error) {
	smp, err := c.s.measure()
	if err != nil {
		return types.ScaledValue{}, err
	}
	if c.temp {
		v := mathx.Clamp(smp.CentiCelsius(), -32768, 32767)
		return types.NewScaledValue(types.UnitTempC, -2, int16(v))
	}
	v := mathx.Clamp(smp.CentiRelHumidity(), 0, 10000)
	return types.NewScaledValue(types.UnitPercent, -2, int16(v))
}

func (channel) Write(context.Context, types.ScaledValue) error {
	return errcode.New(errcode.Unsupported, "aht20", "write")
}
