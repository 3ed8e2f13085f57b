package types

import "devicecore-go/errcode"

// Unit tags the physical quantity carried by a ScaledValue.
type Unit uint8

const (
	UnitUndef Unit = iota
	UnitNone
	UnitBool
	UnitTempC
	UnitTempF
	UnitPercent
	UnitPermill
	UnitVolt
	UnitAmpere
	UnitLux
)

type unitInfo struct {
	name   string // config / wire spelling
	symbol string // console rendering
}

var units = [...]unitInfo{
	UnitUndef:   {"undef", ""},
	UnitNone:    {"none", ""},
	UnitBool:    {"bool", ""},
	UnitTempC:   {"temp_c", "°C"},
	UnitTempF:   {"temp_f", "°F"},
	UnitPercent: {"percent", "%"},
	UnitPermill: {"permill", "‰"},
	UnitVolt:    {"volt", "V"},
	UnitAmpere:  {"ampere", "A"},
	UnitLux:     {"lux", "lx"},
}

// Name is the stable identifier used in configuration files.
func (u Unit) Name() string {
	if int(u) < len(units) {
		return units[u].name
	}
	return units[UnitUndef].name
}

// String is the printable symbol, empty for dimensionless units.
func (u Unit) String() string {
	if int(u) < len(units) {
		return units[u].symbol
	}
	return ""
}

func ParseUnit(s string) (Unit, error) {
	for i, in := range units {
		if in.name == s {
			return Unit(i), nil
		}
	}
	return UnitUndef, errcode.New(errcode.InvalidParams, "unit", "unknown unit "+s)
}

func (u *Unit) UnmarshalText(b []byte) error {
	v, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

func (u Unit) MarshalText() ([]byte, error) { return []byte(u.Name()), nil }
