package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store  *InMemoryStore
	ctx    context.Context
	now    time.Time
	userID id.UserID
	record id.VerificationID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	s.userID = id.NewUserID()
	s.record = id.NewVerificationID()
}

func (s *InMemoryStoreSuite) attach(url string, offset time.Duration) *models.DocumentAttachment {
	d := &models.DocumentAttachment{
		ID:             id.NewDocumentID(),
		VerificationID: s.record,
		UserID:         s.userID,
		Type:           "UMID",
		FileName:       "umid.png",
		FileURL:        url,
		SizeBytes:      2048,
		UploadedAt:     s.now.Add(offset),
	}
	s.Require().NoError(s.store.Save(s.ctx, d))
	return d
}

func (s *InMemoryStoreSuite) TestListOrdersByUpload() {
	second := s.attach("/uploads/b.png", time.Minute)
	first := s.attach("/uploads/a.png", 0)

	docs, err := s.store.ListByVerification(s.ctx, s.record)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(first.ID, docs[0].ID)
	s.Equal(second.ID, docs[1].ID)

	empty, err := s.store.ListByVerification(s.ctx, id.NewVerificationID())
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *InMemoryStoreSuite) TestFindByFileURL() {
	s.attach("/uploads/a.png", 0)
	newer := s.attach("/uploads/a.png", time.Hour)

	got, err := s.store.FindByFileURL(s.ctx, s.userID, "/uploads/a.png")
	s.Require().NoError(err)
	s.Equal(newer.ID, got.ID)

	_, err = s.store.FindByFileURL(s.ctx, id.NewUserID(), "/uploads/a.png")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdateAndDelete() {
	d := s.attach("/uploads/a.png", 0)
	d.ApplyVerification(id.NewUserID(), s.now)
	s.Require().NoError(s.store.Update(s.ctx, d))

	got, err := s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.True(got.IsVerified)

	s.Require().NoError(s.store.Delete(s.ctx, d.ID))
	s.ErrorIs(s.store.Delete(s.ctx, d.ID), sentinel.ErrNotFound)
	_, err = s.store.FindByID(s.ctx, d.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
