package recording

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/frame"
	"github.com/himanishpuri/NeuroPLI/pkg/utils"
)

// TimestampLayout is the layout of the timestamp column.
const TimestampLayout = "2006-01-02 15:04:05.000"

// Columns is the fixed header row of a RecordingLog.
var Columns = [...]string{
	"sample_index",
	"eeg_ch0", "eeg_ch1", "eeg_ch2", "eeg_ch3",
	"eeg_ch4", "eeg_ch5", "eeg_ch6", "eeg_ch7",
	"timestamp",
	"event",
}

// Writer appends samples to a RecordingLog file.
type Writer struct {
	path    string
	f       *os.File
	w       *bufio.Writer
	line    []byte
	written int
}

// OpenAppend opens path for appending, creating it if needed. A ".txt"
// extension is rewritten to ".csv". The header row is written only when the
// file is new or empty.
func OpenAppend(path string) (*Writer, error) {
	path = utils.EnsureCSVExt(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
	}

	writeHeader, err := utils.IsEmptyOrMissing(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening recording log: %w", err)
	}

	w := &Writer{path: path, f: f, w: bufio.NewWriterSize(f, 16*1024)}
	if writeHeader {
		for i, col := range Columns {
			if i > 0 {
				w.w.WriteByte(',')
			}
			w.w.WriteString(col)
		}
		w.w.WriteByte('\n')
		if err := w.Flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

// Path returns the effective file path.
func (w *Writer) Path() string { return w.path }

// Written returns the number of sample rows written through w.
func (w *Writer) Written() int { return w.written }

// Append buffers one sample row. The row is durable only after Flush.
func (w *Writer) Append(s frame.Sample, label string) error {
	b := w.line[:0]
	b = strconv.AppendUint(b, uint64(s.Seq), 10)
	for ch := 0; ch < eeg.Channels; ch++ {
		b = append(b, ',')
		b = strconv.AppendFloat(b, s.Channels[ch], 'f', 6, 64)
	}
	b = append(b, ',')
	b = s.Timestamp.AppendFormat(b, TimestampLayout)
	b = append(b, ',')
	b = appendLabel(b, label)
	b = append(b, '\n')
	w.line = b

	if _, err := w.w.Write(b); err != nil {
		return fmt.Errorf("writing sample row: %w", err)
	}
	w.written++
	return nil
}

// appendLabel writes label with the field and row separators replaced, so a
// label can never shift the positional columns.
func appendLabel(b []byte, label string) []byte {
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch c {
		case ',', '\n', '\r':
			c = ' '
		}
		b = append(b, c)
	}
	return b
}

// Flush writes buffered rows and syncs the file to stable storage.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flushing recording log: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("syncing recording log: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	ferr := w.Flush()
	cerr := w.f.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}
