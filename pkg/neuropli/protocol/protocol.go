package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/capture"
	"gopkg.in/yaml.v3"
)

var ErrEmptyProtocol = errors.New("protocol has no steps")

// Step is one labelled collection episode. A zero Duration collects until the
// recorder is stopped, which also ends the run.
type Step struct {
	Label    string        `yaml:"label"`
	Duration time.Duration `yaml:"duration"`
}

// Protocol is the ordered sequence of episodes a session is recorded with.
type Protocol struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

const (
	FixationLabel    = "Fixation Cross"
	FixationDuration = 30 * time.Second
	StimulusPrefix   = "Stimulus"
	StimulusCount    = 40
	StimulusDuration = 5500 * time.Millisecond
)

// Default is a fixation baseline followed by forty stimulus trials.
func Default() Protocol {
	p := Protocol{Name: "default", Steps: []Step{{Label: FixationLabel, Duration: FixationDuration}}}
	for k := 1; k <= StimulusCount; k++ {
		p.Steps = append(p.Steps, Step{
			Label:    fmt.Sprintf("%s_%d", StimulusPrefix, k),
			Duration: StimulusDuration,
		})
	}
	return p
}

func Load(path string) (Protocol, error) {
	f, err := os.Open(path)
	if err != nil {
		return Protocol{}, fmt.Errorf("opening protocol: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML protocol. Durations are Go duration strings ("5.5s").
func Parse(r io.Reader) (Protocol, error) {
	var p Protocol
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Protocol{}, ErrEmptyProtocol
		}
		return Protocol{}, fmt.Errorf("decoding protocol: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Protocol{}, err
	}
	return p, nil
}

func (p Protocol) Validate() error {
	if len(p.Steps) == 0 {
		return ErrEmptyProtocol
	}
	for i, s := range p.Steps {
		if s.Label == "" {
			return fmt.Errorf("step %d: empty label", i+1)
		}
		if s.Duration < 0 {
			return fmt.Errorf("step %d (%s): negative duration", i+1, s.Label)
		}
	}
	return nil
}

// Total is the summed duration of all steps.
func (p Protocol) Total() time.Duration {
	var d time.Duration
	for _, s := range p.Steps {
		d += s.Duration
	}
	return d
}

// Collector is the recorder surface a Runner drives. Scope returns a context
// that Stop cancels with capture.ErrStopped.
type Collector interface {
	Collect(ctx context.Context, ep capture.Episode) (capture.SegmentResult, error)
	Stop() error
	Scope(ctx context.Context) (context.Context, context.CancelFunc)
}

// Runner records every step of a protocol into one RecordingLog.
type Runner struct {
	Collector Collector
	Path      string
	Protocol  Protocol
	// OnSegment, if set, is called after each finished step.
	OnSegment func(i int, step Step, res capture.SegmentResult)
}

// Run collects the steps in order and stops the device afterwards. A stop
// request at any point, during a step or between two, ends the run without
// error; cancellation of ctx ends it with ctx.Err(). Results so far are
// returned.
func (r *Runner) Run(ctx context.Context) ([]capture.SegmentResult, error) {
	if err := r.Protocol.Validate(); err != nil {
		return nil, err
	}
	parent := ctx
	ctx, done := r.Collector.Scope(ctx)
	defer done()

	var results []capture.SegmentResult
	var runErr error
	for i, step := range r.Protocol.Steps {
		if ctx.Err() != nil {
			if !capture.Stopped(ctx) {
				runErr = parent.Err()
			}
			break
		}
		res, err := r.Collector.Collect(ctx, capture.Episode{Path: r.Path, Duration: step.Duration, Label: step.Label})
		results = append(results, res)
		if r.OnSegment != nil {
			r.OnSegment(i, step, res)
		}
		if err != nil {
			runErr = fmt.Errorf("step %d (%s): %w", i+1, step.Label, err)
			break
		}
		if res.Reason == capture.ReasonCancel {
			runErr = parent.Err()
			break
		}
		if res.Reason == capture.ReasonStop {
			break
		}
	}

	if err := r.Collector.Stop(); err != nil && runErr == nil {
		runErr = fmt.Errorf("stopping device: %w", err)
	}
	return results, runErr
}
