package predict

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/himanishpuri/NeuroPLI/internal/testsignal"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupArtifacts(t *testing.T) Artifacts {
	t.Helper()
	ranking, scaler, model, err := testsignal.WriteArtifacts(t.TempDir(), TopK)
	require.NoError(t, err)
	return Artifacts{Ranking: ranking, Scaler: scaler, Model: model}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPredictZeroRow(t *testing.T) {
	p, err := Load(setupArtifacts(t))
	require.NoError(t, err)

	y, err := p.Predict(make([]float64, features.RowLength))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(y) || math.IsInf(y, 0))
	assert.InDelta(t, 12.5, y, 1e-12)
}

func TestPredictUsesRankedColumns(t *testing.T) {
	p, err := Load(setupArtifacts(t))
	require.NoError(t, err)

	row := make([]float64, features.RowLength)
	row[0] = 100   // ranked
	row[494] = 100 // ranked
	row[495] = 1e6 // not ranked

	y, err := p.Predict(row)
	require.NoError(t, err)
	assert.InDelta(t, 12.5+2, y, 1e-9)
}

func TestPredictRowLength(t *testing.T) {
	p, err := Load(setupArtifacts(t))
	require.NoError(t, err)

	_, err = p.Predict(make([]float64, features.RowLength-1))
	assert.True(t, eeg.IsKind(err, eeg.KindRowLength))
}

func TestPredictFeatureIndexOutOfRange(t *testing.T) {
	idx := make([]string, TopK)
	for i := range idx {
		idx[i] = "1"
	}
	idx[10] = "11061"
	table, err := ParseRankingTable(strings.NewReader("x\n" + strings.Join(idx, ",") + "\n"))
	require.NoError(t, err)

	scaler, err := NewScaler(make([]float64, TopK), make([]float64, TopK))
	require.NoError(t, err)
	model, err := NewLinearModel(make([]float64, TopK), 0)
	require.NoError(t, err)

	p, err := New(table, scaler, model)
	require.NoError(t, err)

	_, err = p.Predict(make([]float64, features.RowLength))
	ie, ok := eeg.AsIntegrity(err)
	require.True(t, ok)
	assert.Equal(t, eeg.KindFeatureIndex, ie.Kind)
	assert.Equal(t, 11061, ie.Actual)
}

func TestRankingTableShape(t *testing.T) {
	_, err := ParseRankingTable(strings.NewReader("1,2,3\n"))
	assert.ErrorIs(t, err, ErrArtifact)
	assert.True(t, eeg.IsKind(err, eeg.KindRankingShape))

	// column layout is not transposed
	_, err = ParseRankingTable(strings.NewReader("a,1\nb,2\nc,3\n"))
	assert.True(t, eeg.IsKind(err, eeg.KindRankingShape))

	_, err = ParseRankingTable(strings.NewReader("a,b\n1,x\n"))
	assert.ErrorIs(t, err, ErrArtifact)

	table, err := ParseRankingTable(strings.NewReader("a,b,c\n3,1.0,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, table.Indices)

	top, err := table.Top(2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, top)

	_, err = table.Top(4)
	assert.True(t, eeg.IsKind(err, eeg.KindRankingShape))
}

func TestNewRejectsShortRanking(t *testing.T) {
	table := &RankingTable{Indices: []int{1, 2, 3}}
	_, err := New(table, nil, nil)
	assert.ErrorIs(t, err, ErrArtifact)
}

func TestNewRejectsWidthMismatch(t *testing.T) {
	a := setupArtifacts(t)
	table, err := LoadRankingTable(a.Ranking)
	require.NoError(t, err)

	scaler, err := NewScaler([]float64{0}, []float64{1})
	require.NoError(t, err)
	model, err := NewLinearModel(make([]float64, TopK), 0)
	require.NoError(t, err)

	_, err = New(table, scaler, model)
	assert.ErrorIs(t, err, ErrArtifact)
}

func TestScaler(t *testing.T) {
	s, err := NewScaler([]float64{1, 2}, []float64{2, 0})
	require.NoError(t, err)

	out, err := s.Transform([]float64{5, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, out)

	_, err = s.Transform([]float64{1})
	assert.Error(t, err)

	_, err = NewScaler([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrArtifact)
}

func TestLinearModelNonFinite(t *testing.T) {
	m, err := NewLinearModel([]float64{1, 1}, 0)
	require.NoError(t, err)

	y, err := m.Predict([]float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 5.0, y)

	_, err = m.Predict([]float64{math.Inf(1), math.Inf(-1)})
	assert.Error(t, err)

	_, err = NewLinearModel(nil, 1)
	assert.ErrorIs(t, err, ErrArtifact)
}

func TestLoadArtifactShapes(t *testing.T) {
	flat := writeFile(t, "m.json", `{"coef": [1, 2], "intercept": 3}`)
	m, err := LoadLinearModel(flat)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, m.Coef)
	assert.Equal(t, 3.0, m.Intercept)

	nested := writeFile(t, "m.yaml", "coef:\n  - [1, 2]\nintercept: [3]\n")
	m, err = LoadLinearModel(nested)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, m.Coef)
	assert.Equal(t, 3.0, m.Intercept)

	multi := writeFile(t, "multi.yaml", "coef: [1]\nintercept: [1, 2]\n")
	_, err = LoadLinearModel(multi)
	assert.ErrorIs(t, err, ErrArtifact)

	broken := writeFile(t, "s.yaml", "mean: {a: 1}\nscale: [1]\n")
	_, err = LoadScaler(broken)
	assert.ErrorIs(t, err, ErrArtifact)
}

func TestLoadFailsBeforeComputation(t *testing.T) {
	a := setupArtifacts(t)
	a.Model = filepath.Join(t.TempDir(), "missing.yaml")

	p, err := Load(a)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrArtifact)

	a = setupArtifacts(t)
	a.Ranking = filepath.Join(t.TempDir(), "missing.csv")
	_, err = Load(a)
	assert.ErrorIs(t, err, ErrArtifact)
}
