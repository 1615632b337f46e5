// Package service runs the verification lifecycle: draft profiles and
// documents, the status transition engine, resubmission, bulk review, and the
// scoped review queues. Handlers call it; stores never see a request.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	settingsmodels "idverify/internal/settings/models"
	"idverify/internal/verification/metrics"
	"idverify/internal/verification/models"
	"idverify/pkg/attrs"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/audit"
	"idverify/pkg/platform/sentinel"
	"idverify/pkg/requestcontext"
)

const tracerName = "idverify/internal/verification/service"

type RecordStore interface {
	Create(ctx context.Context, rec *models.VerificationRecord) error
	Update(ctx context.Context, rec *models.VerificationRecord) error
	FindByID(ctx context.Context, recordID id.VerificationID) (*models.VerificationRecord, error)
	FindByIDs(ctx context.Context, ids []id.VerificationID) ([]*models.VerificationRecord, error)
	FindActiveByUser(ctx context.Context, userID id.UserID) (*models.VerificationRecord, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.VerificationRecord, error)
	Query(ctx context.Context, scope models.ReviewerScope, filter models.QueueFilter) (models.PagedResult, error)
	Stats(ctx context.Context, scope models.ReviewerScope) (models.Stats, error)
}

type ProfileStore interface {
	Save(ctx context.Context, p *models.PersonaProfile) error
	FindLatest(ctx context.Context, verificationID id.VerificationID) (*models.PersonaProfile, error)
}

type DocumentStore interface {
	Save(ctx context.Context, d *models.DocumentAttachment) error
	Update(ctx context.Context, d *models.DocumentAttachment) error
	Delete(ctx context.Context, docID id.DocumentID) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.DocumentAttachment, error)
	FindByFileURL(ctx context.Context, userID id.UserID, url string) (*models.DocumentAttachment, error)
	ListByVerification(ctx context.Context, verificationID id.VerificationID) ([]*models.DocumentAttachment, error)
}

// SettingsProvider yields the policy snapshot in force for this request.
type SettingsProvider interface {
	Current(ctx context.Context) (settingsmodels.Snapshot, error)
}

// BlobWriter persists uploaded files and returns their retrievable URL.
type BlobWriter interface {
	Write(ctx context.Context, owner id.UserID, fileName string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	records   RecordStore
	profiles  ProfileStore
	documents DocumentStore
	settings  SettingsProvider

	tx             TxRunner
	blobs          BlobWriter
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	bulkLimit      int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner replaces the in-process lock with a database transaction.
func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithBlobWriter(w BlobWriter) Option {
	return func(s *Service) {
		s.blobs = w
	}
}

// WithBulkConcurrency bounds how many records a bulk update touches at once.
func WithBulkConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bulkLimit = n
		}
	}
}

func New(records RecordStore, profiles ProfileStore, documents DocumentStore, settings SettingsProvider, opts ...Option) *Service {
	s := &Service{
		records:   records,
		profiles:  profiles,
		documents: documents,
		settings:  settings,
		tracer:    otel.Tracer(tracerName),
		bulkLimit: defaultBulkConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx()
	}
	return s
}

func (s *Service) policy(ctx context.Context) (settingsmodels.Snapshot, error) {
	snap, err := s.settings.Current(ctx)
	if err != nil {
		return settingsmodels.Snapshot{}, translate(err, "failed to load verification settings")
	}
	return snap, nil
}

// startSpan opens a span for op; finish records the outcome and counts
// rejections by code.
func (s *Service) startSpan(ctx context.Context, op string, kv ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := s.tracer.Start(ctx, "verification."+op, trace.WithAttributes(kv...))
	return ctx, func(errp *error) {
		defer span.End()
		if errp == nil || *errp == nil {
			return
		}
		code := string(dErrors.CodeOf(*errp))
		span.SetAttributes(attribute.String("error.code", code))
		span.RecordError(*errp)
		span.SetStatus(codes.Error, code)
		s.metrics.IncrementRejection(op, code)
	}
}

func (s *Service) loadRecord(ctx context.Context, recordID id.VerificationID) (*models.VerificationRecord, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, translate(err, "verification not found")
	}
	return rec, nil
}

// save commits a mutated record after re-checking the aggregate invariants.
func (s *Service) save(ctx context.Context, rec *models.VerificationRecord) error {
	if err := rec.CheckInvariants(); err != nil {
		return err
	}
	if err := s.records.Update(ctx, rec); err != nil {
		return translate(err, "failed to save verification")
	}
	return nil
}

// userState is a user's record history reduced to what the engine needs.
type userState struct {
	// active is the user's one unverified/pending/pre-approved record.
	active *models.VerificationRecord
	// last is the newest record that was ever submitted.
	last *models.VerificationRecord
}

func (s *Service) loadUserState(ctx context.Context, userID id.UserID) (userState, error) {
	history, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return userState{}, translate(err, "failed to load verification history")
	}
	var st userState
	for _, rec := range history {
		if st.active == nil && rec.Status.IsActive() {
			st.active = rec
		}
		if st.last == nil && rec.Status != models.StatusUnverified {
			st.last = rec
		}
	}
	return st, nil
}

// ensureDraft returns the user's editable record, opening a draft when there
// is none. A verified user has nothing left to edit.
func (s *Service) ensureDraft(ctx context.Context, st userState, userID id.UserID, persona models.Persona, now time.Time) (*models.VerificationRecord, error) {
	if st.active != nil {
		return st.active, nil
	}
	if st.last != nil && st.last.Status == models.StatusVerified {
		return nil, dErrors.New(dErrors.CodeConflict, "verification already approved")
	}
	draft := models.NewDraft(id.NewVerificationID(), userID, persona, now)
	if err := s.records.Create(ctx, draft); err != nil {
		return nil, translate(err, "failed to open verification draft")
	}
	return draft, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	userID, _ := id.ParseUserID(attrs.ExtractString(attributes, "user_id"))
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Category:  event.Category(),
		UserID:    userID,
		Subject:   attrs.ExtractString(attributes, "verification_id"),
		Action:    string(event),
		Persona:   attrs.ExtractString(attributes, "persona"),
		Decision:  attrs.ExtractString(attributes, "decision"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		ActorID:   attrs.ExtractString(attributes, "actor_id"),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.Device(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "event", string(event), "error", err)
	}
}

func (s *Service) recordTransition(ctx context.Context, event audit.AuditEvent, rec *models.VerificationRecord, actor id.UserID, reason string) {
	s.metrics.IncrementTransition(transitionLabel(event), rec.Persona.String())
	s.logAudit(ctx, event,
		"user_id", rec.UserID.String(),
		"verification_id", rec.ID.String(),
		"persona", rec.Persona.String(),
		"decision", rec.Status.String(),
		"reason", reason,
		"actor_id", actor.String(),
	)
}

func transitionLabel(event audit.AuditEvent) string {
	switch event {
	case audit.EventSubmitted:
		return "submit"
	case audit.EventResubmitted:
		return "resubmit"
	case audit.EventPreApproved:
		return "pre_approve"
	case audit.EventApproved:
		return "approve"
	case audit.EventDenied:
		return "deny"
	}
	return string(event)
}

// translate maps store sentinels onto domain errors. Domain errors pass
// through so guards keep their codes.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "verification was modified concurrently; reload and retry")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, msg)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound)
}
