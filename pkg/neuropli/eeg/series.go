package eeg

import (
	"fmt"
	"time"
)

// Acquisition constants of the headset.
const (
	Channels   = 8
	NativeRate = 250.0
)

// ChannelNames are the electrode positions in channel order.
var ChannelNames = [Channels]string{"Fp1", "Fpz", "Fp2", "AF8", "AF7", "AF3", "AFz", "AF4"}

// Series is a channel-major signal matrix (Data[ch][t]) paired with its sample rate.
type Series struct {
	Data [][]float64
	Rate float64
}

// NewSeries allocates a zeroed channels x n series.
func NewSeries(channels, n int, rate float64) Series {
	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, n)
	}
	return Series{Data: data, Rate: rate}
}

// Channels returns the number of channels.
func (s Series) Channels() int { return len(s.Data) }

// Len returns the number of samples per channel.
func (s Series) Len() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

// Duration returns the time span covered by the series.
func (s Series) Duration() time.Duration {
	if s.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(s.Len()) / s.Rate * float64(time.Second))
}

// Slice returns samples [start, end) of every channel. The returned series
// shares memory with s.
func (s Series) Slice(start, end int) (Series, error) {
	if start < 0 || end > s.Len() || start > end {
		return Series{}, fmt.Errorf("slice [%d:%d] out of range for %d samples", start, end, s.Len())
	}
	out := Series{Data: make([][]float64, len(s.Data)), Rate: s.Rate}
	for ch, row := range s.Data {
		out.Data[ch] = row[start:end]
	}
	return out, nil
}

// Clone returns a deep copy of s.
func (s Series) Clone() Series {
	out := Series{Data: make([][]float64, len(s.Data)), Rate: s.Rate}
	for ch, row := range s.Data {
		out.Data[ch] = append([]float64(nil), row...)
	}
	return out
}

// SamplesFor converts a duration in seconds to a sample count at the series rate.
func (s Series) SamplesFor(seconds float64) int {
	return int(seconds*s.Rate + 0.5)
}

// ChannelMeans returns the per-channel mean.
func (s Series) ChannelMeans() []float64 {
	means := make([]float64, len(s.Data))
	for ch, row := range s.Data {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, v := range row {
			sum += v
		}
		means[ch] = sum / float64(len(row))
	}
	return means
}

// SubtractChannels subtracts offsets[ch] from every sample of channel ch in place.
func (s Series) SubtractChannels(offsets []float64) {
	for ch, row := range s.Data {
		off := offsets[ch]
		for i := range row {
			row[i] -= off
		}
	}
}

// Marker is an event label attached to a sample index.
type Marker struct {
	Index int
	Label string
}
