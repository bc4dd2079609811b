package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/himanishpuri/NeuroPLI/pkg/logger"
	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/storage"
	"github.com/himanishpuri/NeuroPLI/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service neuropli.Service
	config  *ServerConfig
	log     neuropli.Logger
	jobs    *JobQueue
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	DBPath         string
	AllowedOrigins []string
	Workers        int
}

const jobBacklog = 64

// NewServer creates a new server instance
func NewServer(service neuropli.Service, config *ServerConfig) *Server {
	log := logger.GetLogger().Named("http")
	return &Server{
		service: service,
		config:  config,
		log:     log,
		jobs:    NewJobQueue(service, log, config.Workers, jobBacklog),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondLookupError maps catalogue errors to 404 or 500.
func (s *Server) respondLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.log.Errorf("Failed to load %s: %v", what, err)
	s.respondError(w, http.StatusInternalServerError, "Failed to retrieve "+what)
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "NeuroPLI API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"sessions":       "GET /api/sessions",
			"getSession":     "GET /api/sessions/{id}",
			"deleteSession":  "DELETE /api/sessions/{id}",
			"createAnalysis": "POST /api/analyses",
			"analyses":       "GET /api/analyses",
			"getAnalysis":    "GET /api/analyses/{id}",
			"getJob":         "GET /api/jobs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleListSessions handles GET /api/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions()
	if err != nil {
		s.log.Errorf("Failed to list sessions: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	s.respondJSON(w, http.StatusOK, ListSessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// handleGetSession handles GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !utils.IsUUID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	sess, err := s.service.GetSession(id)
	if err != nil {
		s.respondLookupError(w, err, "session")
		return
	}
	segs, err := s.service.ListSegments(id)
	if err != nil {
		s.respondLookupError(w, err, "segments")
		return
	}
	analyses, err := s.service.ListAnalyses(id)
	if err != nil {
		s.respondLookupError(w, err, "analyses")
		return
	}
	if segs == nil {
		segs = []models.Segment{}
	}
	if analyses == nil {
		analyses = []models.Analysis{}
	}
	s.respondJSON(w, http.StatusOK, SessionResponse{Session: *sess, Segments: segs, Analyses: analyses})
}

// handleDeleteSession handles DELETE /api/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.service.DeleteSession(id); err != nil {
		s.respondLookupError(w, err, "session")
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteSessionResponse{Message: "Session deleted", ID: id})
}

// handleCreateAnalysis handles POST /api/analyses
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID != "" {
		if _, err := s.service.GetSession(req.SessionID); err != nil {
			s.respondLookupError(w, err, "session")
			return
		}
	}

	job, err := s.jobs.Submit(neuropli.AnalysisRequest{SessionID: req.SessionID, Path: req.Path})
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.log.Infof("Queued job %s (analysis %s)", job.ID, job.AnalysisID)
	w.Header().Set("Location", "/api/jobs/"+job.ID)
	s.respondJSON(w, http.StatusAccepted, toJobDTO(job))
}

// handleListAnalyses handles GET /api/analyses[?session_id=]
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.service.ListAnalyses(r.URL.Query().Get("session_id"))
	if err != nil {
		s.log.Errorf("Failed to list analyses: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve analyses")
		return
	}
	if analyses == nil {
		analyses = []models.Analysis{}
	}
	s.respondJSON(w, http.StatusOK, ListAnalysesResponse{Analyses: analyses, Count: len(analyses)})
}

// handleGetAnalysis handles GET /api/analyses/{id}
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.GetAnalysis(mux.Vars(r)["id"])
	if err != nil {
		s.respondLookupError(w, err, "analysis")
		return
	}
	s.respondJSON(w, http.StatusOK, a)
}

// handleGetJob handles GET /api/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(mux.Vars(r)["id"])
	if !ok {
		s.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, toJobDTO(job))
}
