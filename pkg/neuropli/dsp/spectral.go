package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// ResampledLength is the output length for resampling n samples by ratio.
func ResampledLength(n int, ratio float64) int {
	return int(math.Round(float64(n) * ratio))
}

// Resample changes the length of x to num samples using the Fourier method:
// the spectrum is truncated or zero-padded and inverted. x is assumed periodic.
func Resample(x []float64, num int) ([]float64, error) {
	n := len(x)
	if n == 0 || num <= 0 {
		return nil, fmt.Errorf("resample %d samples to %d: lengths must be positive", n, num)
	}
	if num == n {
		return append([]float64(nil), x...), nil
	}

	spec := fft.FFTReal(x)

	// Keep the shared positive-frequency bins. An even-length Nyquist bin
	// is split between +/- frequencies, so it is doubled when it becomes an
	// interior bin and halved when it gets a new mirror.
	keep := min(n, num)
	nyq := keep/2 + 1
	half := make([]complex128, num/2+1)
	copy(half, spec[:min(nyq, len(half))])
	if keep%2 == 0 {
		if num < n {
			half[keep/2] *= 2
		} else {
			half[keep/2] *= 0.5
		}
	}

	full := make([]complex128, num)
	full[0] = complex(real(half[0]), 0)
	for k := 1; k < (num+1)/2; k++ {
		full[k] = half[k]
		full[num-k] = cmplx.Conj(half[k])
	}
	if num%2 == 0 {
		full[num/2] = complex(real(half[num/2]), 0)
	}

	inv := fft.IFFT(full)
	out := make([]float64, num)
	gain := float64(num) / float64(n)
	for i, v := range inv {
		out[i] = real(v) * gain
	}
	return out, nil
}

// Analytic returns the analytic signal of x: x + j*hilbert(x).
func Analytic(x []float64) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	spec := fft.FFTReal(x)

	if n%2 == 0 {
		for k := 1; k < n/2; k++ {
			spec[k] *= 2
		}
		for k := n/2 + 1; k < n; k++ {
			spec[k] = 0
		}
	} else {
		for k := 1; k < (n+1)/2; k++ {
			spec[k] *= 2
		}
		for k := (n + 1) / 2; k < n; k++ {
			spec[k] = 0
		}
	}
	return fft.IFFT(spec)
}

// Phase returns the instantaneous phase of x in (-pi, pi].
func Phase(x []float64) []float64 {
	a := Analytic(x)
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = cmplx.Phase(v)
	}
	return out
}
