// Package service manages the process-wide verification policy: accepted
// document types, upload size cap, denial cooldown and resubmission cap.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"idverify/internal/settings/models"
	"idverify/internal/settings/store"
	"idverify/pkg/attrs"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/audit"
	"idverify/pkg/platform/sentinel"
	"idverify/pkg/requestcontext"
)

type Store interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Update(ctx context.Context, fn store.Mutator) (models.Snapshot, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
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

func New(st Store, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current policy.
func (s *Service) Snapshot(ctx context.Context) (models.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return models.Snapshot{}, translate(err, "failed to load settings")
	}
	return snap, nil
}

// Current prefers the snapshot pinned on ctx so one request sees one policy.
func (s *Service) Current(ctx context.Context) (models.Snapshot, error) {
	if snap, ok := models.FromContext(ctx); ok {
		return snap, nil
	}
	return s.Snapshot(ctx)
}

func (s *Service) ListDocumentTypes(ctx context.Context) ([]string, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.AllowedDocumentTypes, nil
}

func (s *Service) AddDocumentType(ctx context.Context, name string) (models.Snapshot, error) {
	return s.update(ctx, "document_types", "add:"+name, func(cur models.Snapshot) (models.Snapshot, error) {
		return cur.AddDocumentType(name)
	})
}

func (s *Service) RenameDocumentType(ctx context.Context, from, to string) (models.Snapshot, error) {
	return s.update(ctx, "document_types", "rename:"+from+"->"+to, func(cur models.Snapshot) (models.Snapshot, error) {
		return cur.RenameDocumentType(from, to)
	})
}

func (s *Service) RemoveDocumentType(ctx context.Context, name string) (models.Snapshot, error) {
	return s.update(ctx, "document_types", "remove:"+name, func(cur models.Snapshot) (models.Snapshot, error) {
		return cur.RemoveDocumentType(name)
	})
}

func (s *Service) ReplaceDocumentTypes(ctx context.Context, names []string) (models.Snapshot, error) {
	return s.update(ctx, "document_types", "replace", func(cur models.Snapshot) (models.Snapshot, error) {
		return cur.ReplaceDocumentTypes(names)
	})
}

func (s *Service) SetMaxFileSize(ctx context.Context, bytes int64) (models.Snapshot, error) {
	return s.update(ctx, "max_file_size", strconv.FormatInt(bytes, 10), func(cur models.Snapshot) (models.Snapshot, error) {
		return cur.WithMaxFileSize(bytes)
	})
}

func (s *Service) ResetMaxFileSize(ctx context.Context) (models.Snapshot, error) {
	return s.update(ctx, "max_file_size", "reset", func(cur models.Snapshot) (models.Snapshot, error) {
		return cur.WithDefaultMaxFileSize(), nil
	})
}

// UpdatePolicy changes cooldown and resubmission cap; nil leaves a value alone.
func (s *Service) UpdatePolicy(ctx context.Context, cooldown *time.Duration, maxResubmissions *int) (models.Snapshot, error) {
	return s.update(ctx, "policy", "update", func(cur models.Snapshot) (models.Snapshot, error) {
		return cur.WithPolicy(cooldown, maxResubmissions)
	})
}

func (s *Service) update(ctx context.Context, setting, change string, fn store.Mutator) (models.Snapshot, error) {
	now := requestcontext.Now(ctx)
	snap, err := s.store.Update(ctx, func(cur models.Snapshot) (models.Snapshot, error) {
		next, err := fn(cur)
		if err != nil {
			return cur, err
		}
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return models.Snapshot{}, translate(err, "failed to update settings")
	}
	s.logAudit(ctx, string(audit.EventSettingsUpdated),
		"setting", setting,
		"change", change,
		"revision", snap.Revision,
		"actor_id", requestcontext.UserID(ctx).String(),
	)
	return snap, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    event,
		Subject:   attrs.ExtractString(attributes, "setting"),
		Decision:  attrs.ExtractString(attributes, "change"),
		ActorID:   attrs.ExtractString(attributes, "actor_id"),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.Device(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "event", event, "error", err)
	}
}

func translate(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "settings changed concurrently; retry")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
