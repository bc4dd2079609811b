package predict

import (
	"fmt"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/features"
)

// TopK is the number of ranked features the model consumes.
const TopK = 495

// Transformer scales a selected feature vector.
type Transformer interface {
	Transform(x []float64) ([]float64, error)
}

// Regressor maps a scaled feature vector to a score.
type Regressor interface {
	Predict(x []float64) (float64, error)
}

type widther interface {
	Width() int
}

// Predictor selects ranked features from a row, scales them and scores them.
type Predictor struct {
	selected []int
	scaler   Transformer
	model    Regressor
	dim      int
}

// New builds a Predictor using the first TopK ranked features of rows of
// features.RowLength values. Parameter widths are checked when known.
func New(ranking *RankingTable, scaler Transformer, model Regressor) (*Predictor, error) {
	selected, err := ranking.Top(TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	if w, ok := scaler.(widther); ok && w.Width() != TopK {
		return nil, fmt.Errorf("%w: scaler width %d, want %d", ErrArtifact, w.Width(), TopK)
	}
	if w, ok := model.(widther); ok && w.Width() != TopK {
		return nil, fmt.Errorf("%w: model width %d, want %d", ErrArtifact, w.Width(), TopK)
	}
	return &Predictor{selected: selected, scaler: scaler, model: model, dim: features.RowLength}, nil
}

// Load reads all artifacts. Any failure is reported before a Predictor exists.
func Load(a Artifacts) (*Predictor, error) {
	ranking, err := LoadRankingTable(a.Ranking)
	if err != nil {
		return nil, err
	}
	scaler, err := LoadScaler(a.Scaler)
	if err != nil {
		return nil, err
	}
	model, err := LoadLinearModel(a.Model)
	if err != nil {
		return nil, err
	}
	return New(ranking, scaler, model)
}

// Select returns the ranked features of row.
func (p *Predictor) Select(row []float64) ([]float64, error) {
	if len(row) != p.dim {
		return nil, eeg.Mismatch(eeg.KindRowLength, p.dim, len(row), "feature row")
	}
	out := make([]float64, len(p.selected))
	for i, idx := range p.selected {
		if idx < 0 || idx >= len(row) {
			return nil, eeg.Mismatch(eeg.KindFeatureIndex, len(row), idx+1,
				fmt.Sprintf("ranked feature %d is outside 1..%d", i+1, len(row)))
		}
		out[i] = row[idx]
	}
	return out, nil
}

// Predict scores one feature row.
func (p *Predictor) Predict(row []float64) (float64, error) {
	x, err := p.Select(row)
	if err != nil {
		return 0, err
	}
	x, err = p.scaler.Transform(x)
	if err != nil {
		return 0, fmt.Errorf("scaling: %w", err)
	}
	y, err := p.model.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("inference: %w", err)
	}
	return y, nil
}
