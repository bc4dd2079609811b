package dsp

import (
	"errors"
	"fmt"
)

// ErrTooShort is returned when a signal is too short for zero-phase filtering.
var ErrTooShort = errors.New("signal shorter than filter padding")

// Apply runs the filter over x once, direct form II transposed. zi is the
// initial delay-line state (len max(len(A), len(B)) - 1) or nil for rest.
// The final state is returned alongside the output.
func (f Filter) Apply(x, zi []float64) ([]float64, []float64) {
	b, a := f.normalised()
	n := len(a) - 1

	z := make([]float64, n)
	copy(z, zi)

	y := make([]float64, len(x))
	for t, xt := range x {
		yt := b[0]*xt + z[0]
		for i := 0; i < n-1; i++ {
			z[i] = b[i+1]*xt + z[i+1] - a[i+1]*yt
		}
		z[n-1] = b[n]*xt - a[n]*yt
		y[t] = yt
	}
	return y, z
}

// normalised pads B and A to equal length and divides by A[0].
func (f Filter) normalised() ([]float64, []float64) {
	n := max(len(f.A), len(f.B))
	b := make([]float64, n)
	a := make([]float64, n)
	copy(b, f.B)
	copy(a, f.A)
	a0 := a[0]
	for i := range a {
		a[i] /= a0
		b[i] /= a0
	}
	return b, a
}

// SteadyState returns the initial state for which a unit step input produces
// its steady-state output from the first sample.
func (f Filter) SteadyState() ([]float64, error) {
	b, a := f.normalised()
	n := len(a) - 1
	if n == 0 {
		return nil, nil
	}

	// (I - companion(a)^T) zi = b[1:] - a[1:]*b[0]
	m := make([][]float64, n)
	rhs := make([]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
		m[i][0] += a[i+1]
		if i+1 < n {
			m[i][i+1] -= 1
		}
		rhs[i] = b[i+1] - a[i+1]*b[0]
	}
	zi, err := solve(m, rhs)
	if err != nil {
		return nil, fmt.Errorf("filter initial state: %w", err)
	}
	return zi, nil
}

// PadLen is the odd-extension length used by FiltFilt.
func (f Filter) PadLen() int {
	return 3 * max(len(f.A), len(f.B))
}

// FiltFilt applies the filter forward and backward for zero phase distortion.
// Both ends are extended by odd reflection of PadLen samples and the passes
// start from the steady state scaled to the first sample.
func (f Filter) FiltFilt(x []float64) ([]float64, error) {
	pad := f.PadLen()
	if len(x) <= pad {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrTooShort, len(x), pad)
	}
	zi, err := f.SteadyState()
	if err != nil {
		return nil, err
	}

	ext := oddExtend(x, pad)

	y, _ := f.Apply(ext, scaled(zi, ext[0]))
	reverse(y)
	y, _ = f.Apply(y, scaled(zi, y[0]))
	reverse(y)

	return y[pad : len(y)-pad], nil
}

func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*pad)
	for i := pad; i > 0; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-pad; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}
	return ext
}

func scaled(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * k
	}
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
