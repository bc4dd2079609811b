package models

import "time"

// Session is one subject's acquisition run, backed by a single RecordingLog.
type Session struct {
	ID        string    `json:"id"`         // UUID
	Subject   string    `json:"subject"`    // free-form subject identifier
	Path      string    `json:"path"`       // RecordingLog location
	Device    string    `json:"device"`     // serial port or "simulator"
	CreatedAt time.Time `json:"created_at"`
}

// Segment is one labelled collection episode appended to a session's log.
type Segment struct {
	ID        uint      `json:"id"`
	SessionID string    `json:"session_id"`
	Label     string    `json:"label"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Samples   int       `json:"samples"`
	BytesRead int64     `json:"bytes_read"`
	Discarded int64     `json:"discarded"` // bytes skipped by the frame synchronizer
	Reason    string    `json:"reason"`    // duration, stop, cancel or error
}

// Analysis is one feature extraction + prediction run over a RecordingLog.
type Analysis struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id,omitempty"`
	Path       string     `json:"path"`
	Status     string     `json:"status"`
	Score      *float64   `json:"score,omitempty"`
	ErrorKind  string     `json:"error_kind,omitempty"` // integrity error kind, when applicable
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
