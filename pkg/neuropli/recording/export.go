package recording

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/frame"
)

// ErrEmptyRecording is returned when exporting a recording without samples.
var ErrEmptyRecording = errors.New("recording has no samples")

const (
	edfDigitalMin = -32768
	edfDigitalMax = 32767
	wavBitDepth   = 24
	wavPCM        = 1
)

// ExportEDF writes the native-rate series as an EDF file with one-second data
// records. The trailing partial record is padded with each channel's last value.
func ExportEDF(rec *Recording, w io.WriteSeeker, patientID string) error {
	n := rec.Len()
	if n == 0 {
		return ErrEmptyRecording
	}
	perRecord := int(rec.Series.Rate)

	start := time.Now()
	if len(rec.Timestamps) > 0 {
		start = rec.Timestamps[0]
	}

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          patientID,
		RecordingID:        fmt.Sprintf("Startdate %s NeuroPLI", start.Format("02-Jan-2006")),
		StartTime:          start,
		DataRecordDuration: time.Second,
		SignalCount:        rec.Series.Channels(),
	}
	for ch := 0; ch < rec.Series.Channels(); ch++ {
		lo, hi := physicalRange(rec.Series.Data[ch])
		hdr.Signals = append(hdr.Signals, edf.Signal{
			Label:             "EEG " + eeg.ChannelNames[ch],
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       lo,
			PhysicalMax:       hi,
			DigitalMin:        edfDigitalMin,
			DigitalMax:        edfDigitalMax,
			SamplesPerRecord:  perRecord,
		})
	}

	ew, err := edf.Create(w, hdr)
	if err != nil {
		return fmt.Errorf("creating edf: %w", err)
	}

	block := make([][]float64, rec.Series.Channels())
	for ch := range block {
		block[ch] = make([]float64, perRecord)
	}
	for off := 0; off < n; off += perRecord {
		for ch, row := range rec.Series.Data {
			k := copy(block[ch], row[off:min(off+perRecord, n)])
			for i := k; i < perRecord; i++ {
				block[ch][i] = row[n-1]
			}
		}
		if err := ew.WriteRecord(block); err != nil {
			return fmt.Errorf("writing edf record %d: %w", off/perRecord, err)
		}
	}
	return ew.Close()
}

// physicalRange returns a non-degenerate [lo, hi] covering values, rounded
// outward to whole microvolts so the 8-character header field holds it.
func physicalRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo, hi = math.Floor(lo)-1, math.Ceil(hi)+1
	return lo, hi
}

// ExportWAV writes the raw device counts as an interleaved multi-channel
// 24-bit PCM WAV at the recording rate.
func ExportWAV(rec *Recording, w io.WriteSeeker) error {
	n := rec.Len()
	if n == 0 {
		return ErrEmptyRecording
	}
	chans := rec.Series.Channels()
	rate := int(rec.Series.Rate)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: chans, SampleRate: rate},
		Data:           make([]int, 0, n*chans),
		SourceBitDepth: wavBitDepth,
	}
	for i := 0; i < n; i++ {
		for ch := 0; ch < chans; ch++ {
			buf.Data = append(buf.Data, int(math.Round(rec.Series.Data[ch][i]/frame.ScaleFactor)))
		}
	}

	enc := wav.NewEncoder(w, rate, wavBitDepth, chans, wavPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return enc.Close()
}
