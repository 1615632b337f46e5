// Package record stores verification records in memory or PostgreSQL.
package record

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
)

// InMemoryStore keeps records in maps guarded by a single RWMutex. The
// one-active-record rule is checked under the write lock.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.VerificationID]*models.VerificationRecord
	active  map[id.UserID]id.VerificationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[id.VerificationID]*models.VerificationRecord),
		active:  make(map[id.UserID]id.VerificationID),
	}
}

// Create inserts rec with version 1.
func (s *InMemoryStore) Create(_ context.Context, rec *models.VerificationRecord) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrConflict)
	}
	if rec.Status.IsActive() {
		if _, busy := s.active[rec.UserID]; busy {
			return fmt.Errorf("user %s already has an active record: %w", rec.UserID, sentinel.ErrConflict)
		}
		s.active[rec.UserID] = rec.ID
	}
	rec.Version = 1
	s.records[rec.ID] = rec.Clone()
	return nil
}

// Update writes rec if its Version still matches the stored one, then bumps
// rec.Version.
func (s *InMemoryStore) Update(_ context.Context, rec *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[rec.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != rec.Version {
		return fmt.Errorf("record %s version %d: %w", rec.ID, rec.Version, sentinel.ErrConflict)
	}
	if rec.Status.IsActive() {
		if other, busy := s.active[rec.UserID]; busy && other != rec.ID {
			return fmt.Errorf("user %s already has an active record: %w", rec.UserID, sentinel.ErrConflict)
		}
		s.active[rec.UserID] = rec.ID
	} else if s.active[rec.UserID] == rec.ID {
		delete(s.active, rec.UserID)
	}
	rec.Version++
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, recordID id.VerificationID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// FindByIDs returns the records that exist, in no particular order.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []id.VerificationID) ([]*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VerificationRecord, 0, len(ids))
	for _, recordID := range ids {
		if rec, ok := s.records[recordID]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindActiveByUser(_ context.Context, userID id.UserID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recordID, ok := s.active[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.records[recordID].Clone(), nil
}

// ListByUser returns the user's records, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VerificationRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec.Clone())
		}
	}
	slices.SortFunc(out, newestFirst)
	return out, nil
}

func (s *InMemoryStore) Query(_ context.Context, scope models.ReviewerScope, filter models.QueueFilter) (models.PagedResult, error) {
	return models.Project(s.snapshot(), scope, filter), nil
}

func (s *InMemoryStore) Stats(_ context.Context, scope models.ReviewerScope) (models.Stats, error) {
	return models.Tally(s.snapshot(), scope), nil
}

func (s *InMemoryStore) snapshot() []*models.VerificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VerificationRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out
}

func newestFirst(a, b *models.VerificationRecord) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(b.ID.String(), a.ID.String())
}
