package frame

import "time"

// Synchronizer recovers frames from an unreliable byte stream. The only state
// kept between calls is the unconsumed buffer tail.
type Synchronizer struct {
	buf       []byte
	discarded uint64
	now       func() time.Time
}

// NewSynchronizer returns a synchronizer stamping samples with the wall clock.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{now: time.Now}
}

// NewSynchronizerWithClock is NewSynchronizer with an injectable clock.
func NewSynchronizerWithClock(now func() time.Time) *Synchronizer {
	return &Synchronizer{now: now}
}

// Feed appends p to the buffer and returns every sample that can be decoded,
// in stream order.
func (s *Synchronizer) Feed(p []byte) []Sample {
	s.buf = append(s.buf, p...)

	var out []Sample
	for len(s.buf) >= Size {
		pos := s.findFrame()
		if pos < 0 {
			// Keep a possible partial frame; everything before it is noise.
			if len(s.buf) > Size-1 {
				drop := len(s.buf) - (Size - 1)
				s.discarded += uint64(drop)
				s.buf = append(s.buf[:0], s.buf[drop:]...)
			}
			break
		}

		sample, err := Decode(s.buf[pos:pos+Size], s.now())
		if err == nil {
			out = append(out, sample)
		}
		s.discarded += uint64(pos)
		s.buf = s.buf[pos+Size:]
	}

	if cap(s.buf) > 4*Size && len(s.buf) < Size {
		s.buf = append([]byte(nil), s.buf...)
	}
	return out
}

// findFrame returns the earliest offset at which a header byte is followed,
// Size-1 bytes later, by a footer byte, or -1.
func (s *Synchronizer) findFrame() int {
	for i := 0; i+Size <= len(s.buf); i++ {
		if s.buf[i] == HeaderByte && s.buf[i+FooterOffset] == FooterByte {
			return i
		}
	}
	return -1
}

// Buffered returns the number of bytes retained for the next call.
func (s *Synchronizer) Buffered() int { return len(s.buf) }

// Discarded returns the number of bytes dropped as noise so far.
func (s *Synchronizer) Discarded() uint64 { return s.discarded }

// Reset drops the retained tail.
func (s *Synchronizer) Reset() {
	s.buf = s.buf[:0]
}
