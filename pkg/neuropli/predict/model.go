package predict

import (
	"fmt"
	"math"
)

// Scaler standardises features as (x - mean) / scale.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// NewScaler validates the parameter vectors. A zero scale is treated as 1.
func NewScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("%w: scaler mean/scale lengths %d/%d", ErrArtifact, len(mean), len(scale))
	}
	s := &Scaler{Mean: append([]float64(nil), mean...), Scale: append([]float64(nil), scale...)}
	for i, v := range s.Scale {
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return s, nil
}

// Width is the number of features the scaler accepts.
func (s *Scaler) Width() int { return len(s.Mean) }

func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

// LinearModel scores a feature vector as coef . x + intercept.
type LinearModel struct {
	Coef      []float64
	Intercept float64
}

func NewLinearModel(coef []float64, intercept float64) (*LinearModel, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("%w: linear model has no coefficients", ErrArtifact)
	}
	return &LinearModel{Coef: append([]float64(nil), coef...), Intercept: intercept}, nil
}

// Width is the number of features the model accepts.
func (m *LinearModel) Width() int { return len(m.Coef) }

func (m *LinearModel) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coef) {
		return 0, fmt.Errorf("model expects %d features, got %d", len(m.Coef), len(x))
	}
	y := m.Intercept
	for i, c := range m.Coef {
		y += c * x[i]
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("non-finite score %v", y)
	}
	return y, nil
}
