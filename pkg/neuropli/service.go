package neuropli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/logger"
	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/capture"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/features"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/predict"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/preprocess"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/protocol"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/recording"
	"github.com/himanishpuri/NeuroPLI/pkg/utils"
)

// neuroService is the default implementation of the Service interface.
type neuroService struct {
	storage   Storage
	log       Logger
	config    *Config
	recorder  *capture.Recorder
	assembler *features.Assembler
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().Named("neuropli")
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	s := &neuroService{
		storage:   stor,
		log:       cfg.Logger,
		config:    cfg,
		assembler: features.NewAssembler(nil),
	}
	if cfg.Source != nil {
		s.recorder = capture.NewRecorder(cfg.Source,
			capture.WithPollInterval(cfg.PollInterval),
			capture.WithLogger(cfg.Logger))
	}
	return s, nil
}

// OpenSession registers the RecordingLog at path. Reopening an existing path
// returns the session it already belongs to.
func (s *neuroService) OpenSession(subject, path string) (*models.Session, error) {
	if path == "" {
		return nil, errors.New("recording path required")
	}
	dev := s.config.DeviceName
	if dev == "" {
		dev = "none"
	}
	sess, err := s.storage.CreateSession(subject, utils.EnsureCSVExt(path), dev)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	s.log.Infof("Session %s -> %s", sess.ID, sess.Path)
	return sess, nil
}

func (s *neuroService) session(id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	return s.storage.GetSession(id)
}

// Collect records one labelled segment into the session's RecordingLog.
func (s *neuroService) Collect(ctx context.Context, sessionID, label string, d time.Duration) (*models.Segment, error) {
	if s.recorder == nil {
		return nil, ErrNoDevice
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := s.recorder.Collect(ctx, capture.Episode{Path: sess.Path, Duration: d, Label: label})
	if errors.Is(err, capture.ErrBusy) {
		return nil, err
	}
	seg := s.saveSegment(sess.ID, res)
	return seg, err
}

// RunProtocol records every step of p into the session's RecordingLog.
func (s *neuroService) RunProtocol(ctx context.Context, sessionID string, p protocol.Protocol) ([]models.Segment, error) {
	if s.recorder == nil {
		return nil, ErrNoDevice
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var segs []models.Segment
	runner := &protocol.Runner{
		Collector: s.recorder,
		Path:      sess.Path,
		Protocol:  p,
		OnSegment: func(i int, step protocol.Step, res capture.SegmentResult) {
			s.log.Debugf("step %d/%d %q done", i+1, len(p.Steps), step.Label)
			if seg := s.saveSegment(sess.ID, res); seg != nil {
				segs = append(segs, *seg)
			}
		},
	}
	_, err = runner.Run(ctx)
	return segs, err
}

func (s *neuroService) saveSegment(sessionID string, res capture.SegmentResult) *models.Segment {
	seg := models.Segment{
		SessionID: sessionID,
		Label:     res.Label,
		StartedAt: res.Started,
		EndedAt:   res.Ended,
		Samples:   res.Samples,
		BytesRead: int64(res.BytesRead),
		Discarded: int64(res.Discarded),
		Reason:    string(res.Reason),
	}
	id, err := s.storage.AddSegment(seg)
	if err != nil {
		s.log.Warnf("Failed to catalogue segment %q: %v", res.Label, err)
		return &seg
	}
	seg.ID = id
	return &seg
}

func (s *neuroService) StopCollection() error {
	if s.recorder == nil {
		return ErrNoDevice
	}
	return s.recorder.Stop()
}

// ExtractFeatures converts the RecordingLog at path into its feature row.
func (s *neuroService) ExtractFeatures(ctx context.Context, path string) ([]float64, error) {
	return s.featureRow(ctx, path, func(int, string) {})
}

func (s *neuroService) featureRow(ctx context.Context, path string, progress ProgressFunc) ([]float64, error) {
	rec, err := recording.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	s.log.Debugf("Loaded %d samples, %d markers from %s", rec.Len(), len(rec.Markers), path)
	progress(models.ProgressParsed, "parsed")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pre, err := preprocess.Run(rec, s.config.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}
	baseline, err := s.assembler.StaticBaseline(pre.Static)
	if err != nil {
		return nil, fmt.Errorf("static baseline: %w", err)
	}
	progress(models.ProgressStatic, "static")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors, err := s.assembler.TaskVectors(pre.Task, pre.Markers)
	if err != nil {
		return nil, fmt.Errorf("task epochs: %w", err)
	}
	row, err := features.Combine(baseline, vectors)
	if err != nil {
		return nil, err
	}
	progress(models.ProgressTask, "task")
	return row, nil
}

// Analyze runs feature extraction and prediction and records the outcome.
// Model artifacts are loaded before any signal processing.
func (s *neuroService) Analyze(ctx context.Context, req AnalysisRequest) (*models.Analysis, error) {
	path := req.Path
	if req.SessionID != "" {
		sess, err := s.storage.GetSession(req.SessionID)
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = sess.Path
		}
	}
	if path == "" {
		return nil, errors.New("recording path required")
	}
	progress := req.Progress
	if progress == nil {
		progress = func(int, string) {}
	}

	a := models.Analysis{
		ID:        req.ID,
		SessionID: req.SessionID,
		Path:      path,
		Status:    models.AnalysisRunning,
		CreatedAt: time.Now(),
	}
	id, err := s.storage.SaveAnalysis(a)
	if err != nil {
		return nil, fmt.Errorf("failed to register analysis: %w", err)
	}
	a.ID = id
	s.log.Infof("Analysis %s started for %s", a.ID, path)

	score, runErr := s.predict(ctx, path, progress)

	finished := time.Now()
	a.FinishedAt = &finished
	if runErr != nil {
		a.Status = models.AnalysisFailed
		a.Error = runErr.Error()
		a.ErrorKind = errorKind(runErr)
		s.log.Errorf("Analysis %s failed: %v", a.ID, runErr)
	} else {
		a.Status = models.AnalysisSucceeded
		a.Score = &score
		s.log.Infof("Analysis %s score %.4f", a.ID, score)
	}
	if _, err := s.storage.SaveAnalysis(a); err != nil {
		s.log.Warnf("Failed to save analysis %s: %v", a.ID, err)
	}
	return &a, runErr
}

func (s *neuroService) predict(ctx context.Context, path string, progress ProgressFunc) (float64, error) {
	p, err := predict.Load(s.config.Artifacts)
	if err != nil {
		return 0, err
	}
	row, err := s.featureRow(ctx, path, progress)
	if err != nil {
		return 0, err
	}
	score, err := p.Predict(row)
	if err != nil {
		return 0, fmt.Errorf("prediction failed: %w", err)
	}
	progress(models.ProgressPredicted, "predicted")
	return score, nil
}

func errorKind(err error) string {
	if ie, ok := eeg.AsIntegrity(err); ok {
		return ie.Kind.String()
	}
	switch {
	case errors.Is(err, predict.ErrArtifact):
		return "artifact"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return ""
}

func (s *neuroService) GetSession(sessionID string) (*models.Session, error) {
	return s.session(sessionID)
}

func (s *neuroService) ListSessions() ([]models.Session, error) {
	return s.storage.ListSessions()
}

func (s *neuroService) ListSegments(sessionID string) ([]models.Segment, error) {
	return s.storage.ListSegments(sessionID)
}

func (s *neuroService) GetAnalysis(analysisID string) (*models.Analysis, error) {
	return s.storage.GetAnalysis(analysisID)
}

func (s *neuroService) ListAnalyses(sessionID string) ([]models.Analysis, error) {
	return s.storage.ListAnalyses(sessionID)
}

// DeleteSession removes the catalogue entries; the RecordingLog stays on disk.
func (s *neuroService) DeleteSession(sessionID string) error {
	if err := s.storage.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.log.Infof("Deleted session %s", sessionID)
	return nil
}

func (s *neuroService) Close() error {
	return s.storage.Close()
}
