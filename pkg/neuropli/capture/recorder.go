package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/frame"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/recording"
)

var (
	// ErrBusy is returned when Collect is called while an episode is running.
	ErrBusy = errors.New("recorder is already collecting")
	// ErrDevice wraps byte source read and write failures.
	ErrDevice = errors.New("device i/o failure")
	// ErrStopped is the cancellation cause of a Scope ended by Stop.
	ErrStopped = errors.New("collection stopped")
)

// ByteSource is a device handle. A Read that returns 0 bytes and a nil error
// means nothing is waiting.
type ByteSource interface {
	io.Reader
	io.Writer
}

// Logger is the subset of pkg/logger used by the recorder.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}

// State is the recorder state.
type State int32

const (
	Idle State = iota
	Collecting
)

func (s State) String() string {
	if s == Collecting {
		return "collecting"
	}
	return "idle"
}

// Reason tells why an episode ended.
type Reason string

const (
	ReasonDuration Reason = "duration"
	ReasonStop     Reason = "stop"
	ReasonCancel   Reason = "cancel"
	ReasonError    Reason = "error"
)

// Episode is one collection segment. A zero Duration collects until Stop.
type Episode struct {
	Path     string
	Duration time.Duration
	Label    string
}

// SegmentResult summarises a finished episode.
type SegmentResult struct {
	Path      string
	Label     string
	Started   time.Time
	Ended     time.Time
	Samples   int
	BytesRead uint64
	Discarded uint64
	Reason    Reason
}

// Stats are cumulative counters over every episode of a Recorder.
type Stats struct {
	Episodes  uint64
	Samples   uint64
	BytesRead uint64
	Discarded uint64
}

const (
	DefaultPollInterval = time.Millisecond
	defaultReadSize     = 4096
)

// Option configures a Recorder.
type Option func(*Recorder)

func WithPollInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.poll = d
		}
	}
}

// WithClock replaces time.Now for sample timestamps and duration checks.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

func WithLogger(log Logger) Option {
	return func(r *Recorder) {
		if log != nil {
			r.log = log
		}
	}
}

// Recorder runs collection episodes against a single byte source.
type Recorder struct {
	src  ByteSource
	poll time.Duration
	now  func() time.Time
	log  Logger

	state atomic.Int32
	stop  atomic.Bool
	cmdMu sync.Mutex

	// mu orders Stop against the start of an episode and guards scopes.
	mu     sync.Mutex
	scopes map[*context.CancelCauseFunc]struct{}

	episodes  atomic.Uint64
	samples   atomic.Uint64
	bytesRead atomic.Uint64
	discarded atomic.Uint64
}

// NewRecorder returns an idle Recorder reading from src.
func NewRecorder(src ByteSource, opts ...Option) *Recorder {
	r := &Recorder{
		src:  src,
		poll: DefaultPollInterval,
		now:  time.Now,
		log:  nopLogger{},

		scopes: make(map[*context.CancelCauseFunc]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state.
func (r *Recorder) State() State { return State(r.state.Load()) }

// Stats returns a snapshot of the cumulative counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Episodes:  r.episodes.Load(),
		Samples:   r.samples.Load(),
		BytesRead: r.bytesRead.Load(),
		Discarded: r.discarded.Load(),
	}
}

// Stop requests the running episode to end at its next poll and cancels
// every open Scope. When idle it sends the stop command to the device
// directly.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	r.stop.Store(true)
	idle := r.State() == Idle
	for cancel := range r.scopes {
		(*cancel)(ErrStopped)
	}
	r.mu.Unlock()

	if idle {
		if err := r.command(frame.StopCommand); err != nil {
			return fmt.Errorf("%w: stop command: %v", ErrDevice, err)
		}
	}
	return nil
}

// Scope derives a context that the next Stop cancels with ErrStopped. A
// sequence of episodes run under it ends on a stop request even when the
// request arrives between two episodes.
func (r *Recorder) Scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(ctx)
	key := &cancel
	r.mu.Lock()
	r.scopes[key] = struct{}{}
	r.mu.Unlock()
	return ctx, func() {
		r.mu.Lock()
		delete(r.scopes, key)
		r.mu.Unlock()
		cancel(context.Canceled)
	}
}

// Stopped reports whether ctx was ended by Stop.
func Stopped(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrStopped)
}

func (r *Recorder) command(c byte) error {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	_, err := r.src.Write([]byte{c})
	return err
}

// Collect runs one episode: start the device, append every decoded sample to
// the log at ep.Path until stopped, cancelled or ep.Duration elapses, then
// stop the device. Only the first sample carries ep.Label. Rows are flushed
// to disk before every poll sleep.
func (r *Recorder) Collect(ctx context.Context, ep Episode) (SegmentResult, error) {
	r.mu.Lock()
	if !r.state.CompareAndSwap(int32(Idle), int32(Collecting)) {
		r.mu.Unlock()
		return SegmentResult{}, ErrBusy
	}
	r.stop.Store(false)
	r.mu.Unlock()
	defer r.state.Store(int32(Idle))
	r.episodes.Add(1)

	res := SegmentResult{Path: ep.Path, Label: ep.Label, Started: r.now()}

	w, err := recording.OpenAppend(ep.Path)
	if err != nil {
		res.Reason = ReasonError
		res.Ended = r.now()
		return res, err
	}
	res.Path = w.Path()

	runErr := r.run(ctx, ep, w, &res)

	if err := r.command(frame.StopCommand); err != nil {
		r.log.Warnf("stop command failed: %v", err)
		if runErr == nil {
			runErr = fmt.Errorf("%w: stop command: %v", ErrDevice, err)
			res.Reason = ReasonError
		}
	}
	if err := w.Close(); err != nil && runErr == nil {
		runErr = err
		res.Reason = ReasonError
	}
	res.Ended = r.now()

	if ep.Label != "" && res.Samples == 0 {
		r.log.Warnf("segment %q produced no samples; its marker was not written", ep.Label)
	}
	r.log.Infof("segment %q ended (%s): %d samples, %d bytes, %d discarded",
		ep.Label, res.Reason, res.Samples, res.BytesRead, res.Discarded)
	return res, runErr
}

func (r *Recorder) run(ctx context.Context, ep Episode, w *recording.Writer, res *SegmentResult) error {
	if err := r.command(frame.StartCommand); err != nil {
		res.Reason = ReasonError
		return fmt.Errorf("%w: start command: %v", ErrDevice, err)
	}

	framer := frame.NewSynchronizerWithClock(r.now)
	buf := make([]byte, defaultReadSize)
	label := ep.Label

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		switch {
		case r.stop.Load():
			res.Reason = ReasonStop
			return nil
		case ctx.Err() != nil:
			res.Reason = ReasonCancel
			if Stopped(ctx) {
				res.Reason = ReasonStop
			}
			return nil
		case ep.Duration > 0 && r.now().Sub(res.Started) >= ep.Duration:
			res.Reason = ReasonDuration
			return nil
		}

		// Drain whatever is waiting.
		for {
			n, err := r.src.Read(buf)
			if n > 0 {
				res.BytesRead += uint64(n)
				r.bytesRead.Add(uint64(n))

				before := framer.Discarded()
				for _, s := range framer.Feed(buf[:n]) {
					if err := w.Append(s, label); err != nil {
						res.Reason = ReasonError
						return err
					}
					label = ""
					res.Samples++
					r.samples.Add(1)
				}
				if d := framer.Discarded() - before; d > 0 {
					res.Discarded += d
					r.discarded.Add(d)
					r.log.Debugf("synchronizer skipped %d bytes", d)
				}
			}
			if err != nil {
				res.Reason = ReasonError
				return fmt.Errorf("%w: read: %v", ErrDevice, err)
			}
			if n < len(buf) {
				break
			}
		}

		if err := w.Flush(); err != nil {
			res.Reason = ReasonError
			return err
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
