package mathx

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if got := Clamp(15, 0, 10); got != 10 {
		t.Fatalf("Clamp hi: %d", got)
	}
	if got := Clamp(-3, 10, 0); got != 0 {
		t.Fatalf("Clamp swapped bounds: %d", got)
	}
}

func TestSatAdd(t *testing.T) {
	if got := SatAdd[uint32](math.MaxUint32-1, 5); got != math.MaxUint32 {
		t.Fatalf("SatAdd should saturate, got %d", got)
	}
	if got := SatAdd[uint32](2, 3); got != 5 {
		t.Fatalf("SatAdd = %d", got)
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want uint64 }{
		{10, 3, 4},
		{9, 3, 3},
		{0, 7, 0},
		{5, 0, 0},
		{math.MaxUint64, 2, math.MaxUint64/2 + 1},
	}
	for _, c := range cases {
		if got := CeilDiv(c.a, c.b); got != c.want {
			t.Fatalf("CeilDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestPow10(t *testing.T) {
	if got := Pow10[int64](3); got != 1000 {
		t.Fatalf("Pow10(3) = %d", got)
	}
	if got := Pow10[int32](0); got != 1 {
		t.Fatalf("Pow10(0) = %d", got)
	}
}
