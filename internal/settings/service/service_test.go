package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idverify/internal/settings/models"
	"idverify/internal/settings/store"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/audit"
	auditmemory "idverify/pkg/platform/audit/store/memory"
	"idverify/pkg/platform/audit/publisher"
	"idverify/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	audits  *auditmemory.InMemoryStore
	ctx     context.Context
	admin   id.UserID
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.audits = auditmemory.NewInMemoryStore()
	s.service = New(
		store.NewInMemoryStore(models.Defaults([]string{"UMID", "Passport", "Company ID"})),
		WithAuditPublisher(publisher.NewPublisher(s.audits)),
	)
	s.admin = id.NewUserID()
	s.now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithUser(context.Background(), s.admin, id.RoleAdmin), s.now)
}

func (s *ServiceSuite) TestMutationsStampAndAudit() {
	snap, err := s.service.AddDocumentType(s.ctx, "Selfie")
	s.Require().NoError(err)
	s.Contains(snap.AllowedDocumentTypes, "Selfie")
	s.Equal(int64(1), snap.Revision)
	s.Equal(s.now, snap.UpdatedAt)

	events, err := s.audits.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventSettingsUpdated), events[0].Action)
	s.Equal(audit.CategorySecurity, events[0].Category)
	s.Equal("document_types", events[0].Subject)
	s.Equal(s.admin.String(), events[0].ActorID)
}

type failingAudit struct{}

func (failingAudit) Emit(context.Context, audit.Event) error {
	return errors.New("audit sink unavailable")
}

func (s *ServiceSuite) TestAuditEmitFailureIsLogged() {
	var buf bytes.Buffer
	svc := New(
		store.NewInMemoryStore(models.Defaults([]string{"UMID"})),
		WithAuditPublisher(failingAudit{}),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	snap, err := svc.AddDocumentType(s.ctx, "Selfie")
	s.Require().NoError(err)
	s.Contains(snap.AllowedDocumentTypes, "Selfie")
	s.Contains(buf.String(), "level=WARN")
	s.Contains(buf.String(), "audit emit failed")
	s.Contains(buf.String(), "audit sink unavailable")
}

func (s *ServiceSuite) TestRejectedMutationChangesNothing() {
	_, err := s.service.AddDocumentType(s.ctx, "umid")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	snap, err := s.service.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), snap.Revision)

	events, _ := s.audits.ListRecent(s.ctx, 10)
	s.Empty(events)
}

func (s *ServiceSuite) TestFileSizeAndPolicy() {
	snap, err := s.service.SetMaxFileSize(s.ctx, 1024)
	s.Require().NoError(err)
	s.Equal(int64(1024), snap.MaxFileSizeBytes)

	snap, err = s.service.ResetMaxFileSize(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.DefaultMaxFileSizeBytes, snap.MaxFileSizeBytes)

	cooldown := time.Hour
	limit := 5
	snap, err = s.service.UpdatePolicy(s.ctx, &cooldown, &limit)
	s.Require().NoError(err)
	s.Equal(time.Hour, snap.Cooldown)
	s.Equal(5, snap.MaxResubmissions)
}

func (s *ServiceSuite) TestCurrentPrefersPinnedSnapshot() {
	pinned, err := s.service.Snapshot(s.ctx)
	s.Require().NoError(err)
	ctx := models.WithSnapshot(s.ctx, pinned)

	_, err = s.service.SetMaxFileSize(s.ctx, 10)
	s.Require().NoError(err)

	got, err := s.service.Current(ctx)
	s.Require().NoError(err)
	s.Equal(pinned.MaxFileSizeBytes, got.MaxFileSizeBytes)

	fresh, err := s.service.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(10), fresh.MaxFileSizeBytes)
}

func (s *ServiceSuite) TestSnapshotMiddleware() {
	var seen models.Snapshot
	h := s.service.SnapshotMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := models.FromContext(r.Context())
		s.Require().True(ok)
		seen = snap
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal([]string{"UMID", "Passport", "Company ID"}, seen.AllowedDocumentTypes)
}
