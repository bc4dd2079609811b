package neuropli

import (
	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) CreateSession(subject, path, device string) (*models.Session, error) {
	return s.db.CreateSession(subject, path, device)
}

func (s *storageAdapter) GetSession(id string) (*models.Session, error) {
	return s.db.GetSession(id)
}

func (s *storageAdapter) ListSessions() ([]models.Session, error) {
	return s.db.ListSessions()
}

func (s *storageAdapter) DeleteSession(id string) error {
	return s.db.DeleteSession(id)
}

func (s *storageAdapter) AddSegment(seg models.Segment) (uint, error) {
	return s.db.AddSegment(seg)
}

func (s *storageAdapter) ListSegments(sessionID string) ([]models.Segment, error) {
	return s.db.ListSegments(sessionID)
}

func (s *storageAdapter) SaveAnalysis(a models.Analysis) (string, error) {
	return s.db.SaveAnalysis(a)
}

func (s *storageAdapter) GetAnalysis(id string) (*models.Analysis, error) {
	return s.db.GetAnalysis(id)
}

func (s *storageAdapter) ListAnalyses(sessionID string) ([]models.Analysis, error) {
	return s.db.ListAnalyses(sessionID)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
