package record

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) draft(userID id.UserID) *models.VerificationRecord {
	rec := models.NewDraft(id.NewVerificationID(), userID, models.PersonaStudent, s.now)
	s.Require().NoError(s.store.Create(s.ctx, rec))
	return rec
}

func (s *InMemoryStoreSuite) TestCreate() {
	s.Run("assigns version 1 and stores a copy", func() {
		rec := s.draft(id.NewUserID())
		s.Equal(1, rec.Version)

		rec.Status = models.StatusPending
		stored, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnverified, stored.Status)
	})

	s.Run("second active record for a user conflicts", func() {
		userID := id.NewUserID()
		s.draft(userID)
		err := s.store.Create(s.ctx, models.NewDraft(id.NewVerificationID(), userID, models.PersonaStudent, s.now))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestUpdate() {
	s.Run("bumps version on success", func() {
		rec := s.draft(id.NewUserID())
		rec.ApplySubmission(s.now)
		s.Require().NoError(s.store.Update(s.ctx, rec))
		s.Equal(2, rec.Version)
	})

	s.Run("stale version conflicts", func() {
		rec := s.draft(id.NewUserID())
		stale := rec.Clone()
		rec.ApplySubmission(s.now)
		s.Require().NoError(s.store.Update(s.ctx, rec))

		stale.ApplySubmission(s.now)
		s.ErrorIs(s.store.Update(s.ctx, stale), sentinel.ErrConflict)
	})

	s.Run("unknown record", func() {
		rec := models.NewDraft(id.NewVerificationID(), id.NewUserID(), models.PersonaStudent, s.now)
		s.ErrorIs(s.store.Update(s.ctx, rec), sentinel.ErrNotFound)
	})

	s.Run("terminal record frees the active slot", func() {
		userID := id.NewUserID()
		rec := s.draft(userID)
		rec.ApplySubmission(s.now)
		s.Require().NoError(s.store.Update(s.ctx, rec))
		rec.ApplyDenial(id.NewUserID(), "blurry", time.Hour, s.now)
		s.Require().NoError(s.store.Update(s.ctx, rec))

		_, err := s.store.FindActiveByUser(s.ctx, userID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.draft(userID)
	})

	s.Run("concurrent writers on one version: exactly one wins", func() {
		rec := s.draft(id.NewUserID())
		rec.ApplySubmission(s.now)
		s.Require().NoError(s.store.Update(s.ctx, rec))

		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				mine := rec.Clone()
				if i%2 == 0 {
					mine.ApplyApproval(id.NewUserID(), "", s.now)
				} else {
					mine.ApplyDenial(id.NewUserID(), "no", time.Hour, s.now)
				}
				if err := s.store.Update(s.ctx, mine); err != nil {
					s.ErrorIs(err, sentinel.ErrConflict)
					conflicts.Add(1)
					return
				}
				wins.Add(1)
			}()
		}
		wg.Wait()
		s.Equal(int32(1), wins.Load())
		s.Equal(int32(7), conflicts.Load())
	})
}

func (s *InMemoryStoreSuite) TestHistory() {
	userID := id.NewUserID()
	first := s.draft(userID)
	first.ApplySubmission(s.now)
	s.Require().NoError(s.store.Update(s.ctx, first))
	first.ApplyDenial(id.NewUserID(), "blurry", time.Hour, s.now)
	s.Require().NoError(s.store.Update(s.ctx, first))

	second := models.NewDraft(id.NewVerificationID(), userID, models.PersonaStudent, s.now.Add(2*time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, second))

	history, err := s.store.ListByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(second.ID, history[0].ID)

	found, err := s.store.FindByIDs(s.ctx, []id.VerificationID{first.ID, id.NewVerificationID()})
	s.Require().NoError(err)
	s.Len(found, 1)
}

func (s *InMemoryStoreSuite) TestQueryAndStats() {
	for range 3 {
		rec := s.draft(id.NewUserID())
		rec.ApplySubmission(s.now)
		s.Require().NoError(s.store.Update(s.ctx, rec))
	}
	s.draft(id.NewUserID())

	scope := models.AdminScope(id.NewUserID())
	res, err := s.store.Query(s.ctx, scope, models.QueueFilter{Status: models.StatusPending})
	s.Require().NoError(err)
	s.Equal(3, res.Pagination.Total)

	stats, err := s.store.Stats(s.ctx, scope)
	s.Require().NoError(err)
	s.Equal(models.Stats{Total: 4, Unverified: 1, Pending: 3}, stats)
}
