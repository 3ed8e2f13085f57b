package mathx

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b) for positive integers; b == 0 yields 0.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// Pow10 returns 10^n for small non-negative n, saturating on overflow.
func Pow10[T constraints.Integer](n int) T {
	var r T = 1
	for i := 0; i < n; i++ {
		next := r * 10
		if next/10 != r {
			return r
		}
		r = next
	}
	return r
}
