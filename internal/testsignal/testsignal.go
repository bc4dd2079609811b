// Package testsignal builds deterministic synthetic sessions for tests.
package testsignal

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/frame"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/recording"
)

// Session describes a synthetic recording.
type Session struct {
	Seconds     float64
	Rate        float64
	FirstMarker float64 // seconds
	Spacing     float64 // seconds between trial markers
	Markers     int
	Seed        int64
}

// ScenarioA is 50 s at 250 Hz with 40 trial markers from second 10, 0.8 s
// apart. The last marker sits at 41.2 s so its 5 s epoch ends inside the
// signal; at 1 s spacing the epochs of the last five markers would overrun
// and be dropped.
func ScenarioA() Session {
	return Session{Seconds: 50, Rate: eeg.NativeRate, FirstMarker: 10, Spacing: 0.8, Markers: 40, Seed: 1}
}

// Start is the timestamp of the first synthetic sample.
var Start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)

var components = []float64{6, 9, 11.5, 16, 25}

// Generate returns the session as a parsed recording. Sample 0 is labelled
// "Fixation Cross" and trial markers are labelled "Stimulus_<n>".
func Generate(s Session) *recording.Recording {
	rng := rand.New(rand.NewSource(s.Seed))
	n := int(s.Seconds * s.Rate)

	rec := &recording.Recording{
		Series:     eeg.NewSeries(eeg.Channels, n, s.Rate),
		Seq:        make([]uint8, n),
		Timestamps: make([]time.Time, n),
	}

	phases := make([][]float64, eeg.Channels)
	for ch := range phases {
		phases[ch] = make([]float64, len(components))
		for k := range components {
			phases[ch][k] = rng.Float64() * 2 * math.Pi
		}
	}

	step := time.Duration(float64(time.Second) / s.Rate)
	for i := 0; i < n; i++ {
		t := float64(i) / s.Rate
		for ch := 0; ch < eeg.Channels; ch++ {
			v := 20.0 + float64(ch)
			for k, f := range components {
				v += 10 / float64(k+1) * math.Sin(2*math.Pi*f*t+phases[ch][k])
			}
			rec.Series.Data[ch][i] = v + rng.NormFloat64()
		}
		rec.Seq[i] = uint8(i)
		rec.Timestamps[i] = Start.Add(time.Duration(i) * step)
	}

	rec.Markers = append(rec.Markers, eeg.Marker{Index: 0, Label: "Fixation Cross"})
	for k := 0; k < s.Markers; k++ {
		idx := int(math.Round((s.FirstMarker + float64(k)*s.Spacing) * s.Rate))
		if idx >= n {
			break
		}
		rec.Markers = append(rec.Markers, eeg.Marker{Index: idx, Label: fmt.Sprintf("Stimulus_%d", k+1)})
	}
	return rec
}

// WriteLog writes rec as a RecordingLog at path and returns the effective path.
func WriteLog(path string, rec *recording.Recording) (string, error) {
	w, err := recording.OpenAppend(path)
	if err != nil {
		return "", err
	}
	labels := make(map[int]string, len(rec.Markers))
	for _, m := range rec.Markers {
		labels[m.Index] = m.Label
	}
	for i := 0; i < rec.Len(); i++ {
		s := frame.Sample{Seq: rec.Seq[i], Timestamp: rec.Timestamps[i]}
		for ch := 0; ch < eeg.Channels; ch++ {
			s.Channels[ch] = rec.Series.Data[ch][i]
		}
		if err := w.Append(s, labels[i]); err != nil {
			w.Close()
			return "", err
		}
	}
	return w.Path(), w.Close()
}

// WriteArtifacts writes a ranking table selecting features 1..topK, an
// identity scaler and a model with coefficients 0.01 and intercept 12.5 into
// dir, returning the three paths.
func WriteArtifacts(dir string, topK int) (ranking, scaler, model string, err error) {
	names := make([]string, topK)
	idx := make([]string, topK)
	mean := make([]string, topK)
	scale := make([]string, topK)
	coef := make([]string, topK)
	for i := 0; i < topK; i++ {
		names[i] = fmt.Sprintf("f%d", i+1)
		idx[i] = strconv.Itoa(i + 1)
		mean[i] = "0"
		scale[i] = "1"
		coef[i] = "0.01"
	}

	ranking = filepath.Join(dir, "ranking.csv")
	scaler = filepath.Join(dir, "scaler.json")
	model = filepath.Join(dir, "model.yaml")

	files := map[string]string{
		ranking: strings.Join(names, ",") + "\n" + strings.Join(idx, ",") + "\n",
		scaler:  fmt.Sprintf(`{"mean": [%s], "scale": [%s]}`, strings.Join(mean, ","), strings.Join(scale, ",")),
		model:   fmt.Sprintf("coef: [[%s]]\nintercept: [12.5]\n", strings.Join(coef, ", ")),
	}
	for path, body := range files {
		if err = os.WriteFile(path, []byte(body), 0o644); err != nil {
			return "", "", "", err
		}
	}
	return ranking, scaler, model, nil
}
