package recording

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/go-audio/wav"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)

func sampleAt(i int) frame.Sample {
	var counts [eeg.Channels]int32
	for ch := range counts {
		counts[ch] = int32(1000*ch + i)
	}
	s, _ := frame.Decode(frame.Encode(uint8(i), counts), t0.Add(time.Duration(i)*4*time.Millisecond))
	return s
}

func writeSegment(t *testing.T, path, label string, from, n int) string {
	t.Helper()
	w, err := OpenAppend(path)
	require.NoError(t, err)
	for i := from; i < from+n; i++ {
		l := ""
		if i == from {
			l = label
		}
		require.NoError(t, w.Append(sampleAt(i), l))
	}
	require.NoError(t, w.Close())
	return w.Path()
}

func TestWriterHeaderOnceAcrossSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.txt")

	got := writeSegment(t, path, "Fixation Cross", 0, 5)
	assert.True(t, strings.HasSuffix(got, "session.csv"))
	writeSegment(t, got, "Stimulus_1", 5, 5)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	require.Len(t, lines, 11)
	assert.Equal(t, strings.Join(Columns[:], ","), lines[0])
	assert.Equal(t, 1, strings.Count(string(data), "sample_index"))

	labelled := 0
	for _, l := range lines[1:] {
		fields := strings.Split(l, ",")
		require.Len(t, fields, len(Columns))
		if fields[10] != "" {
			labelled++
		}
	}
	assert.Equal(t, 2, labelled)
	assert.True(t, strings.HasSuffix(lines[1], ",Fixation Cross"))
	assert.True(t, strings.HasSuffix(lines[6], ",Stimulus_1"))
}

func TestWriterRowFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmt.csv")
	writeSegment(t, path, "a,b", 3, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	fields := strings.Split(lines[1], ",")

	require.Len(t, fields, len(Columns))
	assert.Equal(t, "3", fields[0])
	assert.Equal(t, "0.067055", fields[1])
	assert.Equal(t, "2025-03-01 09:30:00.012", fields[9])
	assert.Equal(t, "a b", fields[10])
}

func TestParseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.csv")
	writeSegment(t, path, "Fixation Cross", 0, 10)
	writeSegment(t, path, "Stimulus_1", 10, 10)
	writeSegment(t, path, "Stimulus_2", 20, 10)

	rec, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, rec.Len())
	assert.Equal(t, eeg.NativeRate, rec.Series.Rate)
	assert.Equal(t, []eeg.Marker{
		{Index: 0, Label: "Fixation Cross"},
		{Index: 10, Label: "Stimulus_1"},
		{Index: 20, Label: "Stimulus_2"},
	}, rec.Markers)
	assert.Len(t, rec.MarkersMatching("Stimulus"), 2)
	assert.Len(t, rec.MarkersMatching(""), 3)

	want := sampleAt(17)
	for ch := 0; ch < eeg.Channels; ch++ {
		assert.InDelta(t, want.Channels[ch], rec.Series.Data[ch][17], 1e-6)
	}
	assert.Equal(t, uint8(17), rec.Seq[17])
	assert.True(t, want.Timestamp.Equal(rec.Timestamps[17]))
}

func TestParseRejectsMalformedRows(t *testing.T) {
	_, err := Parse(strings.NewReader("0,1,2,3\n"))
	assert.Error(t, err)

	bad := "sample_index,a,b,c,d,e,f,g,h,timestamp,event\n" +
		"1,0,0,0,0,0,0,0,x,2025-03-01 09:30:00.000,\n"
	_, err = Parse(strings.NewReader(bad))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestExportEDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.csv")
	writeSegment(t, path, "Fixation Cross", 0, 300)
	rec, err := Load(path)
	require.NoError(t, err)

	f, err := os.OpenFile(filepath.Join(t.TempDir(), "exp.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	require.NoError(t, ExportEDF(rec, f, "subject-1"))

	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	er, err := edf.Open(f)
	require.NoError(t, err)

	sr, err := er.Signal(3)
	require.NoError(t, err)
	got := make([]float64, 300)
	n, err := sr.Read(got)
	require.NoError(t, err)
	require.Equal(t, 300, n)
	for i := 0; i < 300; i += 37 {
		assert.InDelta(t, rec.Series.Data[3][i], got[i], 0.1, "sample %d", i)
	}
}

func TestExportWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.csv")
	writeSegment(t, path, "Fixation Cross", 0, 50)
	rec, err := Load(path)
	require.NoError(t, err)

	f, err := os.OpenFile(filepath.Join(t.TempDir(), "exp.wav"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, ExportWAV(rec, f))

	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, eeg.Channels, buf.Format.NumChannels)
	assert.Equal(t, int(eeg.NativeRate), buf.Format.SampleRate)
	require.Len(t, buf.Data, 50*eeg.Channels)
	// interleaved: sample 7, channel 2
	assert.Equal(t, 2000+7, buf.Data[7*eeg.Channels+2])
}

func TestExportEmpty(t *testing.T) {
	rec := &Recording{Series: eeg.NewSeries(eeg.Channels, 0, eeg.NativeRate)}
	assert.ErrorIs(t, ExportWAV(rec, nil), ErrEmptyRecording)
	assert.ErrorIs(t, ExportEDF(rec, nil, ""), ErrEmptyRecording)
}
