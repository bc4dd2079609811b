package preprocess

import (
	"fmt"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/dsp"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/recording"
)

// Options configures the preprocessing pipeline.
type Options struct {
	TargetRate  float64
	LowCut      float64
	HighCut     float64
	FilterOrder int
	// StaticSkip is the settling time in seconds dropped from the start of
	// the static branch.
	StaticSkip float64
	Trials     int
	// TrialLabel selects trial markers whose label contains it; empty
	// selects all.
	TrialLabel string
}

// DefaultOptions returns the session protocol settings.
func DefaultOptions() Options {
	return Options{
		TargetRate:  125,
		LowCut:      4,
		HighCut:     30,
		FilterOrder: 4,
		StaticSkip:  10,
		Trials:      40,
		TrialLabel:  "Stimulus",
	}
}

// Result holds both preprocessed branches at the target rate.
type Result struct {
	Static eeg.Series
	Task   eeg.Series
	// Markers are trial onsets as indices into Task.
	Markers  []int
	Baseline []float64
	Ratio    float64
}

// Run turns a native-rate recording into baseline-corrected static and task
// branches. Nothing is returned unless every count check passes.
func Run(rec *recording.Recording, opts Options) (*Result, error) {
	native := rec.Series
	if native.Rate <= 0 {
		return nil, fmt.Errorf("recording has no sample rate")
	}

	// 1. Trial markers
	var onsets []int
	for _, m := range rec.MarkersMatching(opts.TrialLabel) {
		onsets = append(onsets, m.Index)
	}
	if len(onsets) != opts.Trials {
		return nil, eeg.Mismatch(eeg.KindMarkerCount, opts.Trials, len(onsets),
			fmt.Sprintf("labels containing %q", opts.TrialLabel))
	}

	filter, err := dsp.ButterBandpass(opts.FilterOrder, opts.LowCut, opts.HighCut, opts.TargetRate)
	if err != nil {
		return nil, fmt.Errorf("designing band-pass: %w", err)
	}
	ratio := opts.TargetRate / native.Rate

	// 2. Static branch
	skip := native.SamplesFor(opts.StaticSkip)
	if skip >= native.Len() {
		return nil, eeg.Mismatch(eeg.KindSeriesLength, skip+1, native.Len(), "static branch is empty after settling skip")
	}
	staticNative, err := native.Slice(skip, native.Len())
	if err != nil {
		return nil, err
	}
	static, err := condition(staticNative, ratio, opts.TargetRate, filter)
	if err != nil {
		return nil, fmt.Errorf("static branch: %w", err)
	}
	baseline := static.ChannelMeans()
	static.SubtractChannels(baseline)

	// 3. Task branch
	first := onsets[0]
	taskNative, err := native.Slice(first, native.Len())
	if err != nil {
		return nil, fmt.Errorf("task branch: %w", err)
	}
	markers := make([]int, len(onsets))
	for i, idx := range onsets {
		markers[i] = int(float64(idx-first) * ratio)
	}
	task, err := condition(taskNative, ratio, opts.TargetRate, filter)
	if err != nil {
		return nil, fmt.Errorf("task branch: %w", err)
	}
	task.SubtractChannels(baseline)

	return &Result{
		Static:   static,
		Task:     task,
		Markers:  markers,
		Baseline: baseline,
		Ratio:    ratio,
	}, nil
}

// condition resamples every channel by ratio and applies the zero-phase
// band-pass. The input is not modified.
func condition(s eeg.Series, ratio, rate float64, f dsp.Filter) (eeg.Series, error) {
	num := dsp.ResampledLength(s.Len(), ratio)
	out := eeg.Series{Data: make([][]float64, s.Channels()), Rate: rate}
	for ch, row := range s.Data {
		res, err := dsp.Resample(row, num)
		if err != nil {
			return eeg.Series{}, fmt.Errorf("channel %d: %w", ch, err)
		}
		filtered, err := f.FiltFilt(res)
		if err != nil {
			return eeg.Series{}, fmt.Errorf("channel %d: %w", ch, err)
		}
		out.Data[ch] = filtered
	}
	return out, nil
}
