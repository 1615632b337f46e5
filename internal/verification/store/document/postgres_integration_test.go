//go:build integration

package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idverify/internal/platform/postgres"
	"idverify/internal/verification/models"
	"idverify/internal/verification/store/document"
	"idverify/internal/verification/store/profile"
	"idverify/internal/verification/store/record"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
	"idverify/pkg/testutil/containers"
)

// PostgresStoresSuite covers the document and profile stores, which both
// hang off a verification record row.
type PostgresStoresSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	documents *document.PostgresStore
	profiles  *profile.PostgresStore
	records   *record.PostgresStore
	ctx       context.Context
	now       time.Time
	rec       *models.VerificationRecord
}

func TestPostgresStoresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoresSuite))
}

func (s *PostgresStoresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(s.ctx, s.postgres.DB))
	s.documents = document.NewPostgresStore(s.postgres.DB)
	s.profiles = profile.NewPostgresStore(s.postgres.DB)
	s.records = record.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoresSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx, "verification_documents", "verification_profiles", "verification_records"))
	s.now = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	s.rec = models.NewDraft(id.NewVerificationID(), id.NewUserID(), models.PersonaStudent, s.now)
	s.Require().NoError(s.records.Create(s.ctx, s.rec))
}

func (s *PostgresStoresSuite) TestDocumentLifecycle() {
	d := &models.DocumentAttachment{
		ID:             id.NewDocumentID(),
		VerificationID: s.rec.ID,
		UserID:         s.rec.UserID,
		Type:           "Passport",
		FileName:       "passport.pdf",
		FileURL:        "/uploads/passport.pdf",
		ContentType:    "application/pdf",
		SizeBytes:      4096,
		UploadedAt:     s.now,
	}
	s.Require().NoError(s.documents.Save(s.ctx, d))

	byURL, err := s.documents.FindByFileURL(s.ctx, s.rec.UserID, d.FileURL)
	s.Require().NoError(err)
	s.Equal(d, byURL)

	d.ApplyVerification(id.NewUserID(), s.now.Add(time.Minute))
	s.Require().NoError(s.documents.Update(s.ctx, d))
	list, err := s.documents.ListByVerification(s.ctx, s.rec.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(d, list[0])

	s.Require().NoError(s.documents.Delete(s.ctx, d.ID))
	_, err = s.documents.FindByID(s.ctx, d.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoresSuite) TestProfileLatestWins() {
	for i, school := range []string{"North High", "South Academy"} {
		s.Require().NoError(s.profiles.Save(s.ctx, &models.PersonaProfile{
			ID:             id.NewProfileID(),
			VerificationID: s.rec.ID,
			UserID:         s.rec.UserID,
			Data:           &models.StudentProfile{School: school, StudentNumber: "1", Program: "CS", YearLevel: "1"},
			CreatedAt:      s.now.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := s.profiles.FindLatest(s.ctx, s.rec.ID)
	s.Require().NoError(err)
	s.Equal("South Academy", latest.Data.SchoolName())
	s.Equal(s.rec.UserID, latest.UserID)

	_, err = s.profiles.FindLatest(s.ctx, id.NewVerificationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
