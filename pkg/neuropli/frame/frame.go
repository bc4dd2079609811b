package frame

import (
	"errors"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
)

// Wire protocol constants.
const (
	Size         = 33
	HeaderByte   = 0xA0
	FooterByte   = 0xC0
	HeaderOffset = 0
	SeqOffset    = 1
	DataOffset   = 2
	FooterOffset = Size - 1
	BytesPerChan = 3

	// ScaleFactor converts device counts to microvolts.
	ScaleFactor = 0.022351744455307063

	StartCommand = 'b'
	StopCommand  = 's'
)

// ErrInvalidFrame is returned by Decode for a window that is not a frame.
var ErrInvalidFrame = errors.New("invalid frame")

// Sample is a decoded frame.
type Sample struct {
	Seq       uint8
	Channels  [eeg.Channels]float64
	Timestamp time.Time
}

// Valid reports whether b holds a header and footer at their fixed offsets.
func Valid(b []byte) bool {
	return len(b) == Size && b[HeaderOffset] == HeaderByte && b[FooterOffset] == FooterByte
}

// Counts reconstructs the signed channel value from its 3 payload bytes.
//
// The bytes plus an appended zero are read as a little-endian int32 and then
// arithmetically shifted right by 8, so only b1 and b2 survive. Recorded data
// and the trained model depend on this exact arithmetic.
func Counts(b0, b1, b2 byte) int32 {
	v := int32(uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16)
	return v >> 8
}

// Microvolts converts counts to microvolts.
func Microvolts(counts int32) float64 {
	return float64(counts) * ScaleFactor
}

// Decode validates b and converts it to a Sample stamped with ts truncated
// to millisecond resolution.
func Decode(b []byte, ts time.Time) (Sample, error) {
	if !Valid(b) {
		return Sample{}, ErrInvalidFrame
	}
	s := Sample{
		Seq:       b[SeqOffset],
		Timestamp: ts.Truncate(time.Millisecond),
	}
	for ch := 0; ch < eeg.Channels; ch++ {
		off := DataOffset + ch*BytesPerChan
		s.Channels[ch] = Microvolts(Counts(b[off], b[off+1], b[off+2]))
	}
	return s, nil
}

// Encode builds a frame whose channels decode to the given counts. Counts
// must lie in [0, 65535], the range the device reconstruction can express.
func Encode(seq uint8, counts [eeg.Channels]int32) []byte {
	b := make([]byte, Size)
	b[HeaderOffset] = HeaderByte
	b[SeqOffset] = seq
	for ch, c := range counts {
		if c < 0 {
			c = 0
		}
		if c > 0xFFFF {
			c = 0xFFFF
		}
		off := DataOffset + ch*BytesPerChan
		b[off+1] = byte(c)
		b[off+2] = byte(c >> 8)
	}
	b[FooterOffset] = FooterByte
	return b
}
