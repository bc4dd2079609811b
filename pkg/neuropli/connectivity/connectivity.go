package connectivity

import (
	"fmt"
	"math"
	"sync"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/dsp"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
)

// Band is a named frequency range in Hz.
type Band struct {
	Name string
	Low  float64
	High float64
}

// Bands are evaluated in this order; the feature layout depends on it.
var Bands = [...]Band{
	{Name: "theta", Low: 4, High: 8},
	{Name: "alpha1", Low: 8, High: 10},
	{Name: "alpha2", Low: 10, High: 13},
	{Name: "beta1", Low: 13, High: 20},
	{Name: "beta2", Low: 20, High: 30},
}

const (
	FilterOrder = 4
	// Pairs is the number of unordered channel pairs per band.
	Pairs = eeg.Channels * (eeg.Channels - 1) / 2
	// VectorLength is the size of one connectivity feature vector.
	VectorLength = len(Bands) * Pairs
)

// Matrix is a symmetric channel x channel PLI matrix with a zero diagonal.
type Matrix [][]float64

// UpperTriangle flattens the strict upper triangle, ascending i then j.
func (m Matrix) UpperTriangle() []float64 {
	n := len(m)
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, m[i][j])
		}
	}
	return out
}

// PLI computes the phase-lag index between every pair of phase series:
// |mean(sign(sin(phi_i - phi_j)))|.
func PLI(phases [][]float64) Matrix {
	n := len(phases)
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	signs := make([]float64, 0)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			signs = signs[:0]
			for t := range phases[i] {
				signs = append(signs, dsp.Sign(math.Sin(phases[i][t]-phases[j][t])))
			}
			v := math.Abs(dsp.Mean(signs))
			m[i][j] = v
			m[j][i] = v
		}
	}
	return m
}

type filterKey struct {
	band int
	rate float64
}

// Engine computes band-wise PLI connectivity. Filter designs are cached per
// band and sample rate. Safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	filters map[filterKey]dsp.Filter
}

// NewEngine returns an Engine with an empty filter cache.
func NewEngine() *Engine {
	return &Engine{filters: make(map[filterKey]dsp.Filter)}
}

func (e *Engine) filter(band int, rate float64) (dsp.Filter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := filterKey{band: band, rate: rate}
	if f, ok := e.filters[key]; ok {
		return f, nil
	}
	b := Bands[band]
	f, err := dsp.ButterBandpass(FilterOrder, b.Low, b.High, rate)
	if err != nil {
		return dsp.Filter{}, fmt.Errorf("%s band: %w", b.Name, err)
	}
	e.filters[key] = f
	return f, nil
}

// CachedFilters returns the number of cached filter designs.
func (e *Engine) CachedFilters() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.filters)
}

// BandMatrices returns one PLI matrix per band for the segment.
func (e *Engine) BandMatrices(seg eeg.Series) ([]Matrix, error) {
	if seg.Channels() < 2 {
		return nil, fmt.Errorf("connectivity needs at least 2 channels, got %d", seg.Channels())
	}
	out := make([]Matrix, len(Bands))
	for bi := range Bands {
		f, err := e.filter(bi, seg.Rate)
		if err != nil {
			return nil, err
		}
		phases := make([][]float64, seg.Channels())
		for ch, row := range seg.Data {
			filtered, err := f.FiltFilt(row)
			if err != nil {
				return nil, fmt.Errorf("%s band, channel %d: %w", Bands[bi].Name, ch, err)
			}
			phases[ch] = dsp.Phase(filtered)
		}
		out[bi] = PLI(phases)
	}
	return out, nil
}

// Vector returns the concatenated upper triangles of every band matrix.
func (e *Engine) Vector(seg eeg.Series) ([]float64, error) {
	mats, err := e.BandMatrices(seg)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(mats)*seg.Channels()*(seg.Channels()-1)/2)
	for _, m := range mats {
		out = append(out, m.UpperTriangle()...)
	}
	return out, nil
}
