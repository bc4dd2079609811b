package features

import (
	"fmt"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/connectivity"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/preprocess"
)

const (
	Trials        = 40
	StaticWindows = 4
	WindowSeconds = 5.0
	// RowLength is 40 baseline-relative vectors followed by 39 differences.
	RowLength = (2*Trials - 1) * connectivity.VectorLength
)

// Assembler turns preprocessed branches into one feature row.
type Assembler struct {
	engine        *connectivity.Engine
	trials        int
	staticWindows int
	window        float64
}

// NewAssembler returns an Assembler for the standard session layout. A nil
// engine gets a fresh one.
func NewAssembler(engine *connectivity.Engine) *Assembler {
	if engine == nil {
		engine = connectivity.NewEngine()
	}
	return &Assembler{
		engine:        engine,
		trials:        Trials,
		staticWindows: StaticWindows,
		window:        WindowSeconds,
	}
}

// StaticBaseline averages the connectivity of consecutive non-overlapping
// windows from the start of the static branch.
func (a *Assembler) StaticBaseline(static eeg.Series) ([]float64, error) {
	win := int(a.window * static.Rate)
	need := a.staticWindows * win
	if static.Len() < need {
		return nil, eeg.Mismatch(eeg.KindSeriesLength, need, static.Len(), "static branch too short for baseline windows")
	}

	mean := make([]float64, connectivity.VectorLength)
	for w := 0; w < a.staticWindows; w++ {
		seg, err := static.Slice(w*win, (w+1)*win)
		if err != nil {
			return nil, err
		}
		v, err := a.engine.Vector(seg)
		if err != nil {
			return nil, fmt.Errorf("static window %d: %w", w, err)
		}
		for i := range mean {
			mean[i] += v[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(a.staticWindows)
	}
	return mean, nil
}

// EpochLength is the number of samples in a task epoch spanning 0..window
// seconds inclusive.
func (a *Assembler) EpochLength(rate float64) int {
	return int(a.window*rate) + 1
}

// TaskVectors computes one connectivity vector per epoch anchored at each
// marker. Epochs that run past the end of the series are dropped; the
// remaining count must equal the trial count.
func (a *Assembler) TaskVectors(task eeg.Series, markers []int) ([][]float64, error) {
	n := a.EpochLength(task.Rate)

	var vectors [][]float64
	for k, m := range markers {
		if m < 0 || m+n > task.Len() {
			continue
		}
		seg, err := task.Slice(m, m+n)
		if err != nil {
			return nil, err
		}
		v, err := a.engine.Vector(seg)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", k+1, err)
		}
		vectors = append(vectors, v)
	}
	if len(vectors) != a.trials {
		return nil, eeg.Mismatch(eeg.KindEpochCount, a.trials, len(vectors),
			fmt.Sprintf("%d markers, epoch length %d, task length %d", len(markers), n, task.Len()))
	}
	return vectors, nil
}

// Assemble builds the feature row: every task vector minus the static
// baseline, then the first-order differences between consecutive vectors.
func (a *Assembler) Assemble(pre *preprocess.Result) ([]float64, error) {
	baseline, err := a.StaticBaseline(pre.Static)
	if err != nil {
		return nil, fmt.Errorf("static baseline: %w", err)
	}
	vectors, err := a.TaskVectors(pre.Task, pre.Markers)
	if err != nil {
		return nil, fmt.Errorf("task epochs: %w", err)
	}
	return Combine(baseline, vectors)
}

// Combine builds a row from a static baseline and the per-trial vectors.
func Combine(baseline []float64, vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, eeg.Mismatch(eeg.KindEpochCount, Trials, 0, "no trial vectors")
	}
	row := make([]float64, 0, (2*len(vectors)-1)*len(baseline))
	rel := make([][]float64, len(vectors))
	for k, v := range vectors {
		if len(v) != len(baseline) {
			return nil, eeg.Mismatch(eeg.KindRowLength, len(baseline), len(v), fmt.Sprintf("trial %d vector", k+1))
		}
		rel[k] = make([]float64, len(v))
		for i := range v {
			rel[k][i] = v[i] - baseline[i]
		}
		row = append(row, rel[k]...)
	}
	for k := 1; k < len(rel); k++ {
		for i := range rel[k] {
			row = append(row, rel[k][i]-rel[k-1][i])
		}
	}
	return row, nil
}
