package dsp

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq, fs, amp, offset float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp*math.Sin(2*math.Pi*freq*float64(i)/fs) + offset
	}
	return x
}

func TestButterBandpassFirstOrder(t *testing.T) {
	f, err := ButterBandpass(1, 0.25, 0.75, 2)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.5, 0, -0.5}, f.B, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0, 0}, f.A, 1e-12)
}

func TestButterBandpassFourthOrder(t *testing.T) {
	f, err := ButterBandpass(4, 4, 30, 125)
	require.NoError(t, err)

	require.Len(t, f.B, 9)
	require.Len(t, f.A, 9)
	assert.InDeltaSlice(t, []float64{
		0.05272009876057871, 0, -0.21088039504231484, 0, 0.3163205925634723,
		0, -0.21088039504231484, 0, 0.05272009876057871,
	}, f.B, 1e-9)
	assert.InDeltaSlice(t, []float64{
		1, -3.850825733324452, 6.532712001927005, -6.823284881576548, 5.125876088397091,
		-2.7861685830251903, 0.9876081228885304, -0.2100262894466479, 0.026310611886906466,
	}, f.A, 1e-9)

	assert.Less(t, cmplx.Abs(f.Response(1e-4, 125)), 1e-9, "dc")
	assert.Less(t, cmplx.Abs(f.Response(62.4999, 125)), 1e-9, "nyquist")
	// geometric centre of the pre-warped band has unit gain
	assert.InDelta(t, 1.0, cmplx.Abs(f.Response(11.879825934331711, 125)), 1e-9)
	assert.Equal(t, 27, f.PadLen())
}

func TestButterBandpassRejectsBadBands(t *testing.T) {
	for _, band := range [][2]float64{{0, 30}, {30, 4}, {4, 62.5}, {-1, 10}} {
		_, err := ButterBandpass(4, band[0], band[1], 125)
		assert.ErrorIs(t, err, ErrBadBand, "band %v", band)
	}
	_, err := ButterBandpass(0, 4, 30, 125)
	assert.Error(t, err)
}

func TestFiltFiltPassesBandAndRemovesOffset(t *testing.T) {
	f, err := ButterBandpass(4, 4, 30, 125)
	require.NoError(t, err)

	x := sine(1000, 10, 125, 1, 3)
	hf := sine(1000, 55, 125, 0.5, 0)
	for i := range x {
		x[i] += hf[i]
	}

	y, err := f.FiltFilt(x)
	require.NoError(t, err)
	require.Len(t, y, len(x))

	want := sine(1000, 10, 125, 1, 0)
	for i := 300; i < 700; i++ {
		assert.InDelta(t, want[i], y[i], 1e-4, "sample %d", i)
	}
}

func TestFiltFiltConstantInputIsSilenced(t *testing.T) {
	f, err := ButterBandpass(4, 4, 30, 125)
	require.NoError(t, err)

	x := make([]float64, 100)
	for i := range x {
		x[i] = 5
	}
	y, err := f.FiltFilt(x)
	require.NoError(t, err)
	for i, v := range y {
		assert.InDelta(t, 0, v, 1e-8, "sample %d", i)
	}
}

func TestFiltFiltTooShort(t *testing.T) {
	f, err := ButterBandpass(4, 4, 30, 125)
	require.NoError(t, err)

	_, err = f.FiltFilt(make([]float64, f.PadLen()))
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = f.FiltFilt(make([]float64, f.PadLen()+1))
	assert.NoError(t, err)
}

func TestApplyCarriesState(t *testing.T) {
	f, err := ButterBandpass(2, 5, 20, 100)
	require.NoError(t, err)
	x := sine(200, 9, 100, 1, 0.2)

	whole, _ := f.Apply(x, nil)
	first, z := f.Apply(x[:77], nil)
	second, _ := f.Apply(x[77:], z)

	assert.InDeltaSlice(t, whole, append(first, second...), 1e-12)
}

func TestSolve(t *testing.T) {
	m := [][]float64{{0, 2, 1}, {1, 1, 1}, {2, 1, 0}}
	x, err := solve(m, []float64{5, 4, 4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 1}, x, 1e-12)

	_, err = solve([][]float64{{1, 2}, {2, 4}}, []float64{1, 2})
	assert.ErrorIs(t, err, errSingular)
}

func TestResamplePeriodicSine(t *testing.T) {
	x := sine(500, 5, 250, 1, 0.5)

	down, err := Resample(x, ResampledLength(len(x), 0.5))
	require.NoError(t, err)
	require.Len(t, down, 250)
	assert.InDeltaSlice(t, sine(250, 5, 125, 1, 0.5), down, 1e-9)

	up, err := Resample(x, 750)
	require.NoError(t, err)
	assert.InDeltaSlice(t, sine(750, 5, 375, 1, 0.5), up, 1e-9)

	odd, err := Resample(sine(375, 3, 125, 2, 0), 125)
	require.NoError(t, err)
	assert.InDeltaSlice(t, sine(125, 3, 125.0/3, 2, 0), odd, 1e-9)
}

func TestResampleEdgeCases(t *testing.T) {
	_, err := Resample(nil, 10)
	assert.Error(t, err)
	_, err = Resample([]float64{1, 2}, 0)
	assert.Error(t, err)

	x := []float64{1, 2, 3}
	same, err := Resample(x, 3)
	require.NoError(t, err)
	same[0] = 9
	assert.Equal(t, 1.0, x[0])

	assert.Equal(t, 2511, ResampledLength(5022, 0.5))
	assert.Equal(t, 2500, ResampledLength(5000, 0.5))
}

func TestAnalyticOfCosine(t *testing.T) {
	const n = 256
	w := 2 * math.Pi * 8 / n
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Cos(w * float64(i))
	}

	a := Analytic(x)
	require.Len(t, a, n)
	for i, v := range a {
		want := cmplx.Exp(complex(0, w*float64(i)))
		assert.InDelta(t, real(want), real(v), 1e-9, "re %d", i)
		assert.InDelta(t, imag(want), imag(v), 1e-9, "im %d", i)
	}

	ph := Phase(x)
	for i, p := range ph {
		assert.InDelta(t, 0, math.Sin(p-w*float64(i)), 1e-9)
		assert.LessOrEqual(t, math.Abs(p), math.Pi)
	}
	assert.Nil(t, Analytic(nil))
}

func TestAnalyticOddLength(t *testing.T) {
	const n = 125
	w := 2 * math.Pi * 5 / n
	x := make([]float64, n)
	for i := range x {
		x[i] = 3 * math.Sin(w*float64(i))
	}
	for i, v := range Analytic(x) {
		assert.InDelta(t, 3, cmplx.Abs(v), 1e-9, "sample %d", i)
	}
}
