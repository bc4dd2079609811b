package recording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
)

// Recording is a parsed RecordingLog at the native device rate.
type Recording struct {
	Series     eeg.Series
	Seq        []uint8
	Timestamps []time.Time
	Markers    []eeg.Marker
}

// Len returns the number of samples.
func (r *Recording) Len() int { return r.Series.Len() }

// MarkersMatching returns markers whose label contains substr, in order.
// An empty substr returns all markers.
func (r *Recording) MarkersMatching(substr string) []eeg.Marker {
	out := make([]eeg.Marker, 0, len(r.Markers))
	for _, m := range r.Markers {
		if strings.Contains(m.Label, substr) {
			out = append(out, m)
		}
	}
	return out
}

// Load parses the RecordingLog at path.
func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording log: %w", err)
	}
	defer f.Close()

	rec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rec, nil
}

// Parse reads a RecordingLog. Columns are positional; a first row whose
// sample index is not numeric is treated as the header.
func Parse(r io.Reader) (*Recording, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	cr.ReuseRecord = true

	rec := &Recording{Series: eeg.NewSeries(eeg.Channels, 0, eeg.NativeRate)}
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		seq, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 8)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: bad sample index %q", line, row[0])
		}

		for ch := 0; ch < eeg.Channels; ch++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[1+ch]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: channel %d: %w", line, ch, err)
			}
			rec.Series.Data[ch] = append(rec.Series.Data[ch], v)
		}

		ts, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(row[9]), time.Local)
		if err != nil {
			return nil, fmt.Errorf("line %d: timestamp: %w", line, err)
		}

		idx := len(rec.Seq)
		rec.Seq = append(rec.Seq, uint8(seq))
		rec.Timestamps = append(rec.Timestamps, ts)
		if label := strings.TrimSpace(row[10]); label != "" {
			rec.Markers = append(rec.Markers, eeg.Marker{Index: idx, Label: label})
		}
	}
	return rec, nil
}
