package types

import (
	"math"
	"strconv"
	"strings"

	"devicecore-go/errcode"
	"devicecore-go/x/mathx"
)

// MaxChannels bounds the number of channels in one ScaledValue.
const MaxChannels = 3

// ScaledValue is a fixed-point reading or command: each channel represents
// channel × 10^scale in the given unit. Consumers must check Unit and Scale
// with Expect before interpreting a magnitude.
type ScaledValue struct {
	vals  [MaxChannels]int16
	n     uint8
	scale int8
	unit  Unit
}

// NewScaledValue builds a value with up to MaxChannels channels.
func NewScaledValue(unit Unit, scale int8, vals ...int16) (ScaledValue, error) {
	if len(vals) > MaxChannels {
		return ScaledValue{}, errcode.New(errcode.InvalidParams, "scaled", "too many channels")
	}
	v := ScaledValue{n: uint8(len(vals)), scale: scale, unit: unit}
	copy(v.vals[:], vals)
	return v, nil
}

// Bool is the command value understood by binary actuators.
func Bool(on bool) ScaledValue {
	v := ScaledValue{n: 1, unit: UnitBool}
	if on {
		v.vals[0] = 1
	}
	return v
}

func (v ScaledValue) Len() int    { return int(v.n) }
func (v ScaledValue) Scale() int8 { return v.scale }
func (v ScaledValue) Unit() Unit  { return v.unit }

// At returns channel i.
func (v ScaledValue) At(i int) (int16, error) {
	if i < 0 || i >= int(v.n) {
		return 0, errcode.New(errcode.IndexOutOfRange, "scaled", "channel "+strconv.Itoa(i))
	}
	return v.vals[i], nil
}

// Expect fails unless the value carries exactly the given unit and scale.
// No rescaling is attempted.
func (v ScaledValue) Expect(unit Unit, scale int8) error {
	if v.unit == unit && v.scale == scale {
		return nil
	}
	return &errcode.E{
		C:   errcode.UnitMismatch,
		Op:  "scaled",
		Msg: "want " + describe(unit, scale) + " got " + describe(v.unit, v.scale),
	}
}

// IsOn reports whether a Bool value commands "on". Non-bool values are off.
func (v ScaledValue) IsOn() bool {
	return v.unit == UnitBool && v.n > 0 && v.vals[0] != 0
}

func describe(u Unit, scale int8) string {
	return u.Name() + "e" + strconv.Itoa(int(scale))
}

// String renders the value without floating point, e.g. "25.00 °C" or
// "[1, 2, 3] V".
func (v ScaledValue) String() string {
	var b strings.Builder
	if v.n != 1 {
		b.WriteByte('[')
	}
	for i := 0; i < int(v.n); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if v.unit == UnitBool {
			if v.vals[i] != 0 {
				b.WriteString("on")
			} else {
				b.WriteString("off")
			}
			continue
		}
		b.WriteString(FormatFixed(int64(v.vals[i]), v.scale))
	}
	if v.n != 1 {
		b.WriteByte(']')
	}
	if sym := v.unit.String(); sym != "" {
		b.WriteByte(' ')
		b.WriteString(sym)
	}
	return b.String()
}

// FormatFixed prints x × 10^scale in plain decimal notation.
func FormatFixed(x int64, scale int8) string {
	if scale >= 0 {
		s := strconv.FormatInt(x, 10)
		if x != 0 {
			s += strings.Repeat("0", int(scale))
		}
		return s
	}
	digits := strconv.FormatInt(mathx.Abs(x), 10)
	n := int(-scale)
	if len(digits) <= n {
		digits = strings.Repeat("0", n-len(digits)+1) + digits
	}
	out := digits[:len(digits)-n] + "." + digits[len(digits)-n:]
	if x < 0 {
		out = "-" + out
	}
	return out
}

// ParseFixed converts decimal text into a raw channel at the given scale:
// "24.5" at scale -2 gives 2450. Digits finer than the scale are rejected,
// not rounded.
func ParseFixed(s string, scale int8) (int16, error) {
	bad := func(msg string) (int16, error) {
		return 0, errcode.New(errcode.InvalidParams, "parse", msg+": "+s)
	}
	body := s
	neg := false
	if body != "" && (body[0] == '-' || body[0] == '+') {
		neg = body[0] == '-'
		body = body[1:]
	}
	whole, frac, _ := strings.Cut(body, ".")
	if whole == "" && frac == "" {
		return bad("empty number")
	}
	if whole == "" {
		whole = "0"
	}
	// One sign only; ParseInt alone would take "-+5".
	if strings.Trim(whole, "0123456789") != "" || strings.Trim(frac, "0123456789") != "" {
		return bad("not a number")
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return bad("not a number")
	}
	var raw int64
	if scale >= 0 {
		if strings.Trim(frac, "0") != "" {
			return bad("too precise")
		}
		div := mathx.Pow10[int64](int(scale))
		if w%div != 0 {
			return bad("too precise")
		}
		raw = w / div
	} else {
		if w > math.MaxInt16 {
			return bad("out of range")
		}
		digits := int(-scale)
		if len(frac) > digits {
			if strings.Trim(frac[digits:], "0") != "" {
				return bad("too precise")
			}
			frac = frac[:digits]
		}
		frac += strings.Repeat("0", digits-len(frac))
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return bad("not a number")
		}
		raw = w*mathx.Pow10[int64](digits) + f
	}
	if neg {
		raw = -raw
	}
	if raw < math.MinInt16 || raw > math.MaxInt16 {
		return bad("out of range")
	}
	return int16(raw), nil
}
