package dsp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrBadBand is returned for band edges that are not 0 < lo < hi < fs/2.
var ErrBadBand = errors.New("invalid band edges")

// Filter holds transfer function coefficients, a[0] normalised to 1.
type Filter struct {
	B []float64
	A []float64
}

// ButterBandpass designs a digital Butterworth band-pass of the given order
// between lo and hi Hz at sample rate fs. The resulting filter has 2*order
// poles.
func ButterBandpass(order int, lo, hi, fs float64) (Filter, error) {
	if order < 1 {
		return Filter{}, fmt.Errorf("butterworth order %d: must be positive", order)
	}
	nyq := fs / 2
	if !(lo > 0 && lo < hi && hi < nyq) {
		return Filter{}, fmt.Errorf("%w: [%g, %g] Hz at fs=%g", ErrBadBand, lo, hi, fs)
	}

	// 1. Analog low-pass prototype poles on the left half of the unit circle.
	proto := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		proto = append(proto, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order))))
	}

	// 2. Pre-warp the normalised edges for the bilinear transform (fs = 2).
	const fs2 = 4.0
	w1 := fs2 * math.Tan(math.Pi*(lo/nyq)/2)
	w2 := fs2 * math.Tan(math.Pi*(hi/nyq)/2)
	bw := w2 - w1
	wo := math.Sqrt(w1 * w2)

	// 3. Low-pass to band-pass: every prototype pole splits in two, and
	// order zeros land at the origin.
	poles := make([]complex128, 0, 2*order)
	var upper, lower []complex128
	for _, p := range proto {
		lp := p * complex(bw/2, 0)
		d := cmplx.Sqrt(lp*lp - complex(wo*wo, 0))
		upper = append(upper, lp+d)
		lower = append(lower, lp-d)
	}
	poles = append(poles, upper...)
	poles = append(poles, lower...)
	gain := math.Pow(bw, float64(order))

	// 4. Bilinear transform. Zeros at the origin map to z = 1, the excess
	// zeros at infinity map to z = -1.
	zPoles := make([]complex128, len(poles))
	den := complex(1, 0)
	for i, p := range poles {
		zPoles[i] = (fs2 + p) / (fs2 - p)
		den *= fs2 - p
	}
	num := cmplx.Pow(complex(fs2, 0), complex(float64(order), 0))
	gain *= real(num / den)

	zZeros := make([]complex128, 0, 2*order)
	for i := 0; i < order; i++ {
		zZeros = append(zZeros, 1)
	}
	for i := 0; i < order; i++ {
		zZeros = append(zZeros, -1)
	}

	b := poly(zZeros)
	for i := range b {
		b[i] *= gain
	}
	return Filter{B: b, A: poly(zPoles)}, nil
}

// poly returns the real coefficients of the monic polynomial with the given
// roots, highest power first. Roots must come in conjugate pairs.
func poly(roots []complex128) []float64 {
	c := make([]complex128, len(roots)+1)
	c[0] = 1
	for k, r := range roots {
		for i := k + 1; i > 0; i-- {
			c[i] -= r * c[i-1]
		}
	}
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// Response evaluates the frequency response at freq Hz for sample rate fs.
func (f Filter) Response(freq, fs float64) complex128 {
	z := cmplx.Exp(complex(0, -2*math.Pi*freq/fs))
	return polyval(f.B, z) / polyval(f.A, z)
}

// polyval evaluates sum c[i] * z^i, which for z = e^{-jw} is the transfer
// function numerator or denominator.
func polyval(c []float64, z complex128) complex128 {
	var acc complex128
	zk := complex(1, 0)
	for _, v := range c {
		acc += complex(v, 0) * zk
		zk *= z
	}
	return acc
}
