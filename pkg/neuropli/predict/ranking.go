package predict

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
)

// RankingTable is a two-row CSV whose second row lists 1-based feature
// indices in descending importance.
type RankingTable struct {
	Names   []string
	Indices []int
}

// LoadRankingTable reads a ranking table from path.
func LoadRankingTable(path string) (*RankingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: ranking table: %v", ErrArtifact, err)
	}
	defer f.Close()
	return ParseRankingTable(f)
}

// ParseRankingTable validates the two-row layout. The table is never
// transposed to fit.
func ParseRankingTable(r io.Reader) (*RankingTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: ranking table: %v", ErrArtifact, err)
	}
	if len(rows) != 2 {
		return nil, fmt.Errorf("%w: %w", ErrArtifact,
			eeg.Mismatch(eeg.KindRankingShape, 2, len(rows), "ranking table rows"))
	}

	t := &RankingTable{Names: rows[0], Indices: make([]int, 0, len(rows[1]))}
	for i, s := range rows[1] {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v != float64(int(v)) {
			return nil, fmt.Errorf("%w: ranking entry %d: %q is not an integer index", ErrArtifact, i, s)
		}
		t.Indices = append(t.Indices, int(v))
	}
	return t, nil
}

// Top returns the first k indices converted to 0-based.
func (t *RankingTable) Top(k int) ([]int, error) {
	if len(t.Indices) < k {
		return nil, eeg.Mismatch(eeg.KindRankingShape, k, len(t.Indices), "ranked feature count")
	}
	out := make([]int, k)
	for i := range out {
		out[i] = t.Indices[i] - 1
	}
	return out, nil
}
