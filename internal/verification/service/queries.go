package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/requestcontext"
)

// StatusView is what the owner sees about their own verification.
type StatusView struct {
	Status                 models.Status
	Record                 *models.VerificationRecord
	CanResubmit            bool
	RemainingResubmissions int
	CooldownUntil          *time.Time
}

// Detail is a record with its current evidence.
type Detail struct {
	Record    *models.VerificationRecord
	Profile   *models.PersonaProfile
	Documents []*models.DocumentAttachment
}

// SchoolQueue is a school's page of students plus counts over its whole scope.
type SchoolQueue struct {
	SchoolName string
	Page       models.PagedResult
	Stats      models.Stats
}

// Status reports the owner's current record: the active one if any,
// otherwise the newest. A user with no records is unverified.
func (s *Service) Status(ctx context.Context, userID id.UserID) (_ StatusView, err error) {
	ctx, finish := s.startSpan(ctx, "status")
	defer finish(&err)

	snap, err := s.policy(ctx)
	if err != nil {
		return StatusView{}, err
	}
	history, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return StatusView{}, translate(err, "failed to load verification")
	}
	if len(history) == 0 {
		return StatusView{Status: models.StatusUnverified, RemainingResubmissions: snap.MaxResubmissions}, nil
	}
	current := history[0]
	for _, rec := range history {
		if rec.Status.IsActive() {
			current = rec
			break
		}
	}
	view := StatusView{
		Status:                 current.Status,
		Record:                 current,
		RemainingResubmissions: current.RemainingResubmissions(snap.MaxResubmissions),
		CooldownUntil:          current.CooldownUntil,
	}
	if current.Status == models.StatusDenied {
		view.CanResubmit = current.CanResubmit(snap.MaxResubmissions, requestcontext.Now(ctx)) == nil
	}
	return view, nil
}

// History lists every record the owner ever had, newest first.
func (s *Service) History(ctx context.Context, userID id.UserID) (_ []*models.VerificationRecord, err error) {
	ctx, finish := s.startSpan(ctx, "history")
	defer finish(&err)

	history, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "failed to load verification history")
	}
	return history, nil
}

// GetDetail returns a record with its evidence to the owner, any admin, or a
// school whose scope admits it.
func (s *Service) GetDetail(ctx context.Context, viewerID id.UserID, role id.Role, recordID id.VerificationID) (_ *Detail, err error) {
	ctx, finish := s.startSpan(ctx, "get_detail", attribute.String("role", string(role)))
	defer finish(&err)

	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, viewerID, role, rec); err != nil {
		return nil, err
	}
	profile, err := s.currentProfile(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByVerification(ctx, rec.ID)
	if err != nil {
		return nil, translate(err, "failed to list documents")
	}
	return &Detail{Record: rec, Profile: profile, Documents: docs}, nil
}

func (s *Service) authorizeView(ctx context.Context, viewerID id.UserID, role id.Role, rec *models.VerificationRecord) error {
	if rec.IsOwnedBy(viewerID) {
		return nil
	}
	switch role {
	case id.RoleAdmin:
		return nil
	case id.RoleSchool:
		scope, err := s.SchoolScopeFor(ctx, viewerID)
		if err != nil {
			return err
		}
		if scope.Admits(rec) {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "verification is outside your review scope")
}

// Queue is the admin review listing.
func (s *Service) Queue(ctx context.Context, adminID id.UserID, filter models.QueueFilter) (models.PagedResult, error) {
	return s.QueueFor(ctx, models.AdminScope(adminID), filter)
}

// Stats counts every record by status for an admin.
func (s *Service) Stats(ctx context.Context, adminID id.UserID) (models.Stats, error) {
	return s.StatsFor(ctx, models.AdminScope(adminID))
}

// QueueFor projects the records visible in scope. A filter that asks for
// records the scope can never see is refused rather than silently narrowed.
func (s *Service) QueueFor(ctx context.Context, scope models.ReviewerScope, filter models.QueueFilter) (_ models.PagedResult, err error) {
	ctx, finish := s.startSpan(ctx, "queue", attribute.String("scope", string(scope.Kind)))
	defer finish(&err)

	if err := filter.CheckScope(scope); err != nil {
		return models.PagedResult{}, err
	}
	filter.Normalize()
	start := time.Now()
	page, err := s.records.Query(ctx, scope, filter)
	s.metrics.ObserveQueueLatency(string(scope.Kind), time.Since(start))
	if err != nil {
		return models.PagedResult{}, translate(err, "failed to query review queue")
	}
	return page, nil
}

func (s *Service) StatsFor(ctx context.Context, scope models.ReviewerScope) (_ models.Stats, err error) {
	ctx, finish := s.startSpan(ctx, "stats", attribute.String("scope", string(scope.Kind)))
	defer finish(&err)

	start := time.Now()
	st, err := s.records.Stats(ctx, scope)
	s.metrics.ObserveQueueLatency(string(scope.Kind), time.Since(start))
	if err != nil {
		return models.Stats{}, translate(err, "failed to count verifications")
	}
	return st, nil
}

// SchoolQueueFor resolves the school's scope and returns its page and counts.
func (s *Service) SchoolQueueFor(ctx context.Context, schoolUserID id.UserID, filter models.QueueFilter) (SchoolQueue, error) {
	scope, err := s.SchoolScopeFor(ctx, schoolUserID)
	if err != nil {
		return SchoolQueue{}, err
	}
	page, err := s.QueueFor(ctx, scope, filter)
	if err != nil {
		return SchoolQueue{}, err
	}
	stats, err := s.StatsFor(ctx, scope)
	if err != nil {
		return SchoolQueue{}, err
	}
	return SchoolQueue{SchoolName: scope.SchoolName, Page: page, Stats: stats}, nil
}

// SchoolScopeFor derives a school reviewer's scope from the institution name
// on their own verified School profile. Without one they review nobody.
func (s *Service) SchoolScopeFor(ctx context.Context, schoolUserID id.UserID) (models.ReviewerScope, error) {
	history, err := s.records.ListByUser(ctx, schoolUserID)
	if err != nil {
		return models.ReviewerScope{}, translate(err, "failed to resolve school")
	}
	for _, rec := range history {
		if rec.Status != models.StatusVerified || rec.Persona != models.PersonaSchool {
			continue
		}
		name := rec.Subject.FullName
		p, err := s.currentProfile(ctx, rec.ID)
		if err != nil {
			return models.ReviewerScope{}, err
		}
		if p != nil {
			name = p.Data.DisplayName()
		}
		if strings.TrimSpace(name) != "" {
			return models.SchoolScope(schoolUserID, name), nil
		}
	}
	return models.ReviewerScope{}, dErrors.New(dErrors.CodeForbidden, "a verified school profile is required to review students")
}
