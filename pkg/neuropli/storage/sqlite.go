package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "neuropli.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned when a session or analysis id is unknown.
var ErrNotFound = errors.New("record not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Session struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Subject   string `gorm:"index:idx_session_subject"`
	Path      string `gorm:"uniqueIndex:idx_session_path"`
	Device    string
	CreatedAt time.Time
}

type Segment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"type:varchar(36);index:idx_segment_session"`
	Label     string
	StartedAt time.Time
	EndedAt   time.Time
	Samples   int
	BytesRead int64
	Discarded int64
	Reason    string
}

type Analysis struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	SessionID  string `gorm:"type:varchar(36);index:idx_analysis_session"`
	Path       string
	Status     string `gorm:"index:idx_analysis_status"`
	Score      *float64
	ErrorKind  string
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("NEUROPLI_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Session{}, &Segment{}, &Analysis{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *DBClient) ready() error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return nil
}

// CreateSession registers a session for the RecordingLog at path. A path that
// is already registered returns the existing session.
func (c *DBClient) CreateSession(subject, path, device string) (*models.Session, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var s Session
	err := c.DB.Where("path = ?", path).First(&s).Error
	if err == nil {
		return toSession(s), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("querying existing session: %w", err)
	}

	s = Session{ID: utils.GenerateUUID(), Subject: subject, Path: path, Device: device}
	if err := c.DB.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return toSession(s), nil
}

func (c *DBClient) GetSession(id string) (*models.Session, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var s Session
	if err := c.DB.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return toSession(s), nil
}

func (c *DBClient) ListSessions() ([]models.Session, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var rows []Session
	if err := c.DB.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	out := make([]models.Session, 0, len(rows))
	for _, s := range rows {
		out = append(out, *toSession(s))
	}
	return out, nil
}

// DeleteSession removes a session with its segments and analyses. The
// RecordingLog file is left alone.
func (c *DBClient) DeleteSession(id string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&Segment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&Analysis{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (c *DBClient) AddSegment(seg models.Segment) (uint, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	row := Segment{
		SessionID: seg.SessionID,
		Label:     seg.Label,
		StartedAt: seg.StartedAt,
		EndedAt:   seg.EndedAt,
		Samples:   seg.Samples,
		BytesRead: seg.BytesRead,
		Discarded: seg.Discarded,
		Reason:    seg.Reason,
	}
	if err := c.DB.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("adding segment: %w", err)
	}
	return row.ID, nil
}

func (c *DBClient) ListSegments(sessionID string) ([]models.Segment, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var rows []Segment
	if err := c.DB.Where("session_id = ?", sessionID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing segments: %w", err)
	}
	out := make([]models.Segment, len(rows))
	for i, r := range rows {
		out[i] = models.Segment{
			ID:        r.ID,
			SessionID: r.SessionID,
			Label:     r.Label,
			StartedAt: r.StartedAt,
			EndedAt:   r.EndedAt,
			Samples:   r.Samples,
			BytesRead: r.BytesRead,
			Discarded: r.Discarded,
			Reason:    r.Reason,
		}
	}
	return out, nil
}

// SaveAnalysis inserts or updates an analysis. An empty ID is assigned a new
// UUID, which is returned.
func (c *DBClient) SaveAnalysis(a models.Analysis) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if a.ID == "" {
		a.ID = utils.GenerateUUID()
	}
	row := Analysis{
		ID:         a.ID,
		SessionID:  a.SessionID,
		Path:       a.Path,
		Status:     a.Status,
		Score:      a.Score,
		ErrorKind:  a.ErrorKind,
		Error:      a.Error,
		CreatedAt:  a.CreatedAt,
		FinishedAt: a.FinishedAt,
	}
	if err := c.DB.Save(&row).Error; err != nil {
		return "", fmt.Errorf("saving analysis: %w", err)
	}
	return row.ID, nil
}

func (c *DBClient) GetAnalysis(id string) (*models.Analysis, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var a Analysis
	if err := c.DB.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return toAnalysis(a), nil
}

// ListAnalyses returns analyses newest first, optionally for one session.
func (c *DBClient) ListAnalyses(sessionID string) ([]models.Analysis, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	q := c.DB.Order("created_at DESC")
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	var rows []Analysis
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	out := make([]models.Analysis, 0, len(rows))
	for _, a := range rows {
		out = append(out, *toAnalysis(a))
	}
	return out, nil
}

func toSession(s Session) *models.Session {
	return &models.Session{ID: s.ID, Subject: s.Subject, Path: s.Path, Device: s.Device, CreatedAt: s.CreatedAt}
}

func toAnalysis(a Analysis) *models.Analysis {
	return &models.Analysis{
		ID:         a.ID,
		SessionID:  a.SessionID,
		Path:       a.Path,
		Status:     a.Status,
		Score:      a.Score,
		ErrorKind:  a.ErrorKind,
		Error:      a.Error,
		CreatedAt:  a.CreatedAt,
		FinishedAt: a.FinishedAt,
	}
}
