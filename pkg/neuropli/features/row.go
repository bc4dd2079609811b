package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteRow writes row as a single headerless CSV line.
func WriteRow(w io.Writer, row []float64) error {
	rec := make([]string, len(row))
	for i, v := range row {
		rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(rec); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ReadRow reads a feature file holding exactly one CSV line.
func ReadRow(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading feature row: %w", err)
	}
	if len(recs) != 1 {
		return nil, fmt.Errorf("feature file must hold 1 row, got %d", len(recs))
	}
	row := make([]float64, len(recs[0]))
	for i, s := range recs[0] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		row[i] = v
	}
	return row, nil
}
