package main

import (
	"fmt"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/models"
)

// CreateAnalysisRequest is the request body for POST /api/analyses
type CreateAnalysisRequest struct {
	// SessionID links the analysis to a catalogued session; its recording log
	// is used when Path is empty.
	SessionID string `json:"session_id,omitempty"`

	// Path is a recording log on the server's filesystem.
	Path string `json:"path,omitempty"`
}

// Validate checks if the request is valid
func (r *CreateAnalysisRequest) Validate() error {
	if r.SessionID == "" && r.Path == "" {
		return fmt.Errorf("session_id or path is required")
	}
	return nil
}

// JobDTO represents a queued analysis in API responses
type JobDTO struct {
	ID         string    `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	Stage      string    `json:"stage,omitempty"`
	Score      *float64  `json:"score,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toJobDTO(j Job) JobDTO {
	return JobDTO{
		ID:         j.ID,
		AnalysisID: j.AnalysisID,
		Status:     j.Status,
		Progress:   j.Progress,
		Stage:      j.Stage,
		Score:      j.Score,
		Error:      j.Error,
		CreatedAt:  j.Created,
		UpdatedAt:  j.Updated,
	}
}

// ListSessionsResponse is the response for GET /api/sessions
type ListSessionsResponse struct {
	Sessions []models.Session `json:"sessions"`
	Count    int              `json:"count"`
}

// SessionResponse is the response for GET /api/sessions/{id}
type SessionResponse struct {
	models.Session
	Segments []models.Segment  `json:"segments"`
	Analyses []models.Analysis `json:"analyses"`
}

// ListAnalysesResponse is the response for GET /api/analyses
type ListAnalysesResponse struct {
	Analyses []models.Analysis `json:"analyses"`
	Count    int               `json:"count"`
}

// DeleteSessionResponse is the response for DELETE /api/sessions/{id}
type DeleteSessionResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
