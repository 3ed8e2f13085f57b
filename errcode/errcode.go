package errcode

// Code is a stable, console-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	UnknownType   Code = "unknown_type"

	// Startup preconditions.
	DeviceMissing Code = "device_missing"
	Conflict      Code = "conflict"

	// Transient hardware failures.
	ReadFailed  Code = "read_failed"
	WriteFailed Code = "write_failed"
	Timeout     Code = "timeout"

	// Operator input.
	NotFound    Code = "not_found"
	Usage       Code = "usage"
	ParseError  Code = "parse_error"
	LineTooLong Code = "line_too_long"

	// Unit/scale disagreement between a reading and its consumer.
	UnitMismatch Code = "unit_mismatch"

	IndexOutOfRange Code = "index_out_of_range"

	UnknownBus Code = "unknown_bus"
	BusInUse   Code = "bus_in_use"
	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the failing operation, a message and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.ReadFailed) match a wrapped E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap builds an *E. A nil cause is allowed.
func Wrap(c Code, op string, err error) *E { return &E{C: c, Op: op, Err: err} }

// New builds an *E with a message and no cause.
func New(c Code, op, msg string) *E { return &E{C: c, Op: op, Msg: msg} }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return Of(u.Unwrap())
	}
	return Error
}

// Fatal reports whether err breaks the deployment contract: a required
// device is absent, two owners contend for one device, or a reading carries
// a unit/scale its consumer cannot interpret.
func Fatal(err error) bool {
	switch Of(err) {
	case DeviceMissing, Conflict, UnitMismatch, PinInUse, BusInUse:
		return true
	}
	return false
}
