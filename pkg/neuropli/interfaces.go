package neuropli

import (
	"context"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/protocol"
)

type Service interface {
	OpenSession(subject, path string) (*models.Session, error)
	Collect(ctx context.Context, sessionID, label string, d time.Duration) (*models.Segment, error)
	RunProtocol(ctx context.Context, sessionID string, p protocol.Protocol) ([]models.Segment, error)
	StopCollection() error
	ExtractFeatures(ctx context.Context, path string) ([]float64, error)
	Analyze(ctx context.Context, req AnalysisRequest) (*models.Analysis, error)
	GetSession(sessionID string) (*models.Session, error)
	ListSessions() ([]models.Session, error)
	ListSegments(sessionID string) ([]models.Segment, error)
	GetAnalysis(analysisID string) (*models.Analysis, error)
	ListAnalyses(sessionID string) ([]models.Analysis, error)
	DeleteSession(sessionID string) error
	Close() error
}

type Storage interface {
	CreateSession(subject, path, device string) (*models.Session, error)
	GetSession(id string) (*models.Session, error)
	ListSessions() ([]models.Session, error)
	DeleteSession(id string) error
	AddSegment(seg models.Segment) (uint, error)
	ListSegments(sessionID string) ([]models.Segment, error)
	SaveAnalysis(a models.Analysis) (string, error)
	GetAnalysis(id string) (*models.Analysis, error)
	ListAnalyses(sessionID string) ([]models.Analysis, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
