package types

import "devicecore-go/errcode"

// ------------------------
// Capability classes
// ------------------------

// Role is the coarse half of a Class: what the device does to the world.
type Role uint8

const (
	RoleUndef Role = iota
	RoleSensor
	RoleActuator
)

func (r Role) String() string {
	switch r {
	case RoleSensor:
		return "sensor"
	case RoleActuator:
		return "actuator"
	default:
		return "undef"
	}
}

// Class is the closed capability taxonomy. A device reports exactly one
// Class for its whole lifetime; the tag is the discriminant used when
// narrowing a Device to a Sensor or an Actuator.
type Class uint8

const (
	ClassUndef Class = iota

	ClassSenseTemp
	ClassSenseHum
	ClassSenseBtn
	ClassSenseOther

	ClassActSwitch
	ClassActLED
	ClassActOther
)

var classNames = [...]string{
	ClassUndef:      "CLASS_UNDEF",
	ClassSenseTemp:  "SENSE_TEMP",
	ClassSenseHum:   "SENSE_HUM",
	ClassSenseBtn:   "SENSE_BTN",
	ClassSenseOther: "SENSE_OTHER",
	ClassActSwitch:  "ACT_SWITCH",
	ClassActLED:     "ACT_LED",
	ClassActOther:   "ACT_OTHER",
}

func (c Class) Role() Role {
	switch {
	case c >= ClassSenseTemp && c <= ClassSenseOther:
		return RoleSensor
	case c >= ClassActSwitch && c <= ClassActOther:
		return RoleActuator
	default:
		return RoleUndef
	}
}

func (c Class) IsSensor() bool   { return c.Role() == RoleSensor }
func (c Class) IsActuator() bool { return c.Role() == RoleActuator }

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return classNames[ClassUndef]
}

// ParseClass accepts the names produced by String (e.g. "SENSE_TEMP").
func ParseClass(s string) (Class, error) {
	for i, n := range classNames {
		if i != int(ClassUndef) && n == s {
			return Class(i), nil
		}
	}
	return ClassUndef, errcode.New(errcode.InvalidParams, "class", "unknown class "+s)
}

func (c *Class) UnmarshalText(b []byte) error {
	v, err := ParseClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ------------------------
// Predicates
// ------------------------

// ClassPredicate selects devices by capability.
type ClassPredicate func(Class) bool

// IsClass matches exactly one class.
func IsClass(want Class) ClassPredicate {
	return func(c Class) bool { return c == want }
}

// AnySensor matches every sensor-like class.
func AnySensor(c Class) bool { return c.IsSensor() }

// AnyActuator matches every actuator-like class.
func AnyActuator(c Class) bool { return c.IsActuator() }
