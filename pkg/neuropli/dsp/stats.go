package dsp

import "golang.org/x/exp/constraints"

// Mean returns the arithmetic mean of x, or 0 for an empty slice.
func Mean[T constraints.Float](x []T) T {
	if len(x) == 0 {
		return 0
	}
	var sum T
	for _, v := range x {
		sum += v
	}
	return sum / T(len(x))
}

// Sign returns -1, 0 or +1. Zero maps to zero.
func Sign[T constraints.Float | constraints.Signed](v T) T {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
