package neuropli

import "errors"

var (
	// ErrNoDevice is returned by collection calls on a service built without a
	// byte source.
	ErrNoDevice = errors.New("no acquisition device configured")
	// ErrNoSession is returned when a session id is empty.
	ErrNoSession = errors.New("session id required")
)

// ProgressFunc receives coarse completion percentages while an analysis runs.
type ProgressFunc func(percent int, stage string)

// AnalysisRequest names the RecordingLog to analyse. SessionID is optional
// and, when set, links the analysis to a catalogue session; Path may then be
// left empty.
type AnalysisRequest struct {
	SessionID string
	Path      string
	// ID reuses a pre-registered analysis row (set by callers that hand the
	// id out before the run starts).
	ID       string
	Progress ProgressFunc
}
