package gpio_button

import (
	"context"
	"strconv"
	"time"

	"devicecore-go/errcode"
	"devicecore-go/services/hal/core"
	"devicecore-go/services/hal/halcore"
	"devicecore-go/types"
)

func init() { core.RegisterBuilder("gpio_button", builder{}) }

var errUnsupported = errcode.New(errcode.Unsupported, "gpio_button", "write")

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) ([]core.Entry, error) {
	p := Params{Pin: -1}
	if err := core.DecodeParams(in.Params, &p); err != nil {
		return nil, err
	}
	if p.Pin < 0 {
		return nil, errcode.New(errcode.InvalidParams, "gpio_button", "pin required")
	}
	pull, ok := halcore.ParsePull(p.Pull)
	if !ok {
		return nil, errcode.New(errcode.InvalidParams, "gpio_button", "pull "+p.Pull)
	}
	owner := in.Name
	if owner == "" {
		owner = "gpio_button@" + strconv.Itoa(p.Pin)
	}
	pin, err := in.Res.Reg.ClaimIRQ(owner, p.Pin)
	if err != nil {
		return nil, err
	}
	if err := pin.ConfigureInput(pull); err != nil {
		in.Res.Reg.ReleaseGPIO(owner, p.Pin)
		return nil, errcode.Wrap(errcode.Error, "gpio_button", err)
	}
	d := &Device{
		pin:      pin,
		invert:   p.Invert,
		debounce: time.Duration(p.DebounceMs) * time.Millisecond,
	}
	return []core.Entry{{Name: in.Name, Class: types.ClassSenseBtn, Driver: d}}, nil
}
