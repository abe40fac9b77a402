package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxhq/astir/models"
)

// Store persists lifted snapshots keyed by source digest
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// BeginSession records the start of a batch run
func (s *Store) BeginSession(root string) (*models.Session, error) {
	session := &models.Session{
		ID:   uuid.NewString(),
		Root: root,
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// EndSession closes a session and stores its final counters
func (s *Store) EndSession(session *models.Session, scanned, lifted, failed int) error {
	now := time.Now()
	session.EndedAt = &now
	session.ScannedCount = scanned
	session.LiftedCount = lifted
	session.FailedCount = failed
	if err := s.db.Save(session).Error; err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// SaveSnapshot stores a lifted file, assigning a fresh ID
func (s *Store) SaveSnapshot(snap *models.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if err := s.db.Create(snap).Error; err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// FindByDigest returns the most recent snapshot for a source digest,
// or nil when the digest has never been lifted
func (s *Store) FindByDigest(digest string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.db.Where("digest = ?", digest).
		Order("created_at DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("digest lookup failed: %w", err)
	}
	return &snap, nil
}

// History lists snapshots for a path, newest first
func (s *Store) History(path string, limit int) ([]models.Snapshot, error) {
	query := s.db.Where("path = ?", path).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var snaps []models.Snapshot
	if err := query.Find(&snaps).Error; err != nil {
		return nil, fmt.Errorf("history lookup failed: %w", err)
	}
	return snaps, nil
}
