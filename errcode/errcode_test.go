package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"device_missing": DeviceMissing,
		"read_failed":    ReadFailed,
		"write_failed":   WriteFailed,
		"unit_mismatch":  UnitMismatch,
		"not_found":      NotFound,
		"pin_in_use":     PinInUse,
		"conflict":       Conflict,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOfUnwrapsWrappedErrors(t *testing.T) {
	base := Wrap(ReadFailed, "read", errors.New("bus nack"))
	outer := fmt.Errorf("ctl: %w", base)

	if got := Of(outer); got != ReadFailed {
		t.Fatalf("Of = %q, want %q", got, ReadFailed)
	}
	if !errors.Is(outer, ReadFailed) {
		t.Fatal("errors.Is should match the wrapped code")
	}
	if Of(nil) != OK {
		t.Fatal("nil error should map to OK")
	}
	if Of(errors.New("x")) != Error {
		t.Fatal("foreign error should map to Error")
	}
}

func TestErrorFormat(t *testing.T) {
	e := &E{C: UnitMismatch, Op: "ctl", Msg: "want °C got %"}
	if got, want := e.Error(), "ctl: unit_mismatch: want °C got %"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestFatal(t *testing.T) {
	if !Fatal(New(DeviceMissing, "boot", "no sensor")) {
		t.Fatal("DeviceMissing must be fatal")
	}
	if Fatal(Wrap(ReadFailed, "read", nil)) {
		t.Fatal("ReadFailed is transient")
	}
}
