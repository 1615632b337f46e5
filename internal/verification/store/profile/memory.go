// Package profile stores persona profiles. Profiles are append-only: saving a
// new one for a record supersedes the previous one without deleting it.
package profile

import (
	"context"
	"fmt"
	"sync"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.VerificationID][]*models.PersonaProfile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.VerificationID][]*models.PersonaProfile)}
}

func (s *InMemoryStore) Save(_ context.Context, p *models.PersonaProfile) error {
	if p == nil || p.Data == nil {
		return fmt.Errorf("profile is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.VerificationID] = append(s.profiles[p.VerificationID], &cp)
	return nil
}

// FindLatest returns the profile saved last for the record.
func (s *InMemoryStore) FindLatest(_ context.Context, verificationID id.VerificationID) (*models.PersonaProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.profiles[verificationID]
	if len(history) == 0 {
		return nil, sentinel.ErrNotFound
	}
	cp := *history[len(history)-1]
	return &cp, nil
}
