package device

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/frame"
)

// ErrClosed is returned by a closed Simulator.
var ErrClosed = errors.New("simulator closed")

// Simulator is an in-memory headset. After the start command it produces
// frames at its sample rate, paced by its clock, until the stop command.
type Simulator struct {
	mu sync.Mutex

	rate    float64
	now     func() time.Time
	rng     *rand.Rand
	junk    float64
	started time.Time
	emitted int
	seq     uint8
	pending []byte
	running bool
	closed  bool
	cmds    []byte
}

// SimOption configures a Simulator.
type SimOption func(*Simulator)

func WithRate(hz float64) SimOption {
	return func(s *Simulator) {
		if hz > 0 {
			s.rate = hz
		}
	}
}

func WithSimClock(now func() time.Time) SimOption {
	return func(s *Simulator) {
		s.now = now
	}
}

func WithSeed(seed int64) SimOption {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithJunk inserts a short run of garbage bytes before a frame with
// probability p, to exercise resynchronisation.
func WithJunk(p float64) SimOption {
	return func(s *Simulator) {
		s.junk = p
	}
}

// NewSimulator returns an idle 250 Hz simulator.
func NewSimulator(opts ...SimOption) *Simulator {
	s := &Simulator{
		rate: eeg.NativeRate,
		now:  time.Now,
		rng:  rand.New(rand.NewSource(1)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write interprets control bytes. Unknown bytes are ignored.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	for _, c := range p {
		s.cmds = append(s.cmds, c)
		switch c {
		case frame.StartCommand:
			if !s.running {
				s.running = true
				s.started = s.now()
				s.emitted = 0
			}
		case frame.StopCommand:
			s.running = false
			s.pending = s.pending[:0]
		}
	}
	return len(p), nil
}

// Read returns the bytes of every frame due since the last read.
func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.running {
		due := int(s.now().Sub(s.started).Seconds() * s.rate)
		for ; s.emitted < due; s.emitted++ {
			if s.junk > 0 && s.rng.Float64() < s.junk {
				for n := 1 + s.rng.Intn(8); n > 0; n-- {
					s.pending = append(s.pending, byte(s.rng.Intn(frame.HeaderByte)))
				}
			}
			s.pending = append(s.pending, frame.Encode(s.seq, s.counts(s.emitted))...)
			s.seq++
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// counts synthesises one sample around mid-scale: a per-channel alpha
// rhythm with a theta component and noise.
func (s *Simulator) counts(i int) [eeg.Channels]int32 {
	var c [eeg.Channels]int32
	t := float64(i) / s.rate
	for ch := range c {
		uv := 30*math.Sin(2*math.Pi*10*t+float64(ch)*0.4) +
			15*math.Sin(2*math.Pi*6*t+float64(ch)*0.9) +
			5*s.rng.NormFloat64()
		c[ch] = 32768 + int32(math.Round(uv/frame.ScaleFactor))
	}
	return c
}

// Commands returns every control byte received so far.
func (s *Simulator) Commands() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.cmds...)
}

// Running reports whether the simulator is streaming.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.running = false
	return nil
}
