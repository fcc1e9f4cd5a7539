// package interp provides helpers for interpolating samples.
package interp

import "golang.org/x/exp/constraints"

// L does linear interpolation:
//
//	L(a, b, c) = (1-c)*a + c*b
//	           = a + c*(b-a)
//
// c is not clamped, values outside [0, 1] extrapolate.
func L[T constraints.Float](a, b, c T) T {
	return a + c*(b-a)
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
