package gpio_dout

import (
	"context"
	"strconv"

	"devicecore-go/errcode"
	"devicecore-go/services/hal/core"
	"devicecore-go/types"
)

func init() {
	core.RegisterBuilder("gpio_led", builder{class: types.ClassActLED})
	core.RegisterBuilder("gpio_switch", builder{class: types.ClassActSwitch})
}

type builder struct{ class types.Class }

func (b builder) Build(ctx context.Context, in core.BuilderInput) ([]core.Entry, error) {
	p := Params{Pin: -1}
	if err := core.DecodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if p.Pin < 0 {
		return nil, errcode.New(errcode.InvalidParams, in.Type, "pin required")
	}
	owner := in.Name
	if owner == "" {
		owner = in.Type + "@" + strconv.Itoa(p.Pin)
	}
	pin, err := in.Res.Reg.ClaimGPIO(owner, p.Pin)
	if err != nil {
		return nil, err
	}
	d := New(pin, p)
	if err := d.Init(p.Initial); err != nil {
		in.Res.Reg.ReleaseGPIO(owner, p.Pin)
		return nil, errcode.Wrap(errcode.Error, in.Type, err)
	}
	return []core.Entry{{Name: in.Name, Class: b.class, Driver: d}}, nil
}
