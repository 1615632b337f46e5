// Package document stores document attachments. Detaching deletes the row;
// the uploaded file itself is left to the blob writer.
package document

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*models.DocumentAttachment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID]*models.DocumentAttachment)}
}

func (s *InMemoryStore) Save(_ context.Context, d *models.DocumentAttachment) error {
	if d == nil {
		return fmt.Errorf("document is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[d.ID]; exists {
		return fmt.Errorf("document %s: %w", d.ID, sentinel.ErrConflict)
	}
	s.docs[d.ID] = clone(d)
	return nil
}

// Update overwrites a stored document. Last write wins.
func (s *InMemoryStore) Update(_ context.Context, d *models.DocumentAttachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.docs[d.ID] = clone(d)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, docID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.DocumentAttachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(d), nil
}

// FindByFileURL returns the user's most recent document pointing at url.
func (s *InMemoryStore) FindByFileURL(_ context.Context, userID id.UserID, url string) (*models.DocumentAttachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.DocumentAttachment
	for _, d := range s.docs {
		if d.UserID != userID || d.FileURL != url {
			continue
		}
		if found == nil || d.UploadedAt.After(found.UploadedAt) {
			found = d
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(found), nil
}

// ListByVerification returns the record's documents, oldest upload first.
func (s *InMemoryStore) ListByVerification(_ context.Context, verificationID id.VerificationID) ([]*models.DocumentAttachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.DocumentAttachment{}
	for _, d := range s.docs {
		if d.VerificationID == verificationID {
			out = append(out, clone(d))
		}
	}
	slices.SortFunc(out, func(a, b *models.DocumentAttachment) int {
		if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func clone(d *models.DocumentAttachment) *models.DocumentAttachment {
	cp := *d
	if d.VerifiedBy != nil {
		v := *d.VerifiedBy
		cp.VerifiedBy = &v
	}
	if d.VerifiedAt != nil {
		v := *d.VerifiedAt
		cp.VerifiedAt = &v
	}
	return &cp
}
