package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
)

const (
	defaultBulkConcurrency = 8
	maxBulkIDs             = 500
)

// BulkFailure explains why one id of a bulk update was not modified.
type BulkFailure struct {
	ID      string       `json:"id"`
	Code    dErrors.Code `json:"error"`
	Message string       `json:"message"`
}

type BulkResult struct {
	ModifiedCount int           `json:"modifiedCount"`
	Failures      []BulkFailure `json:"failures"`
}

// BulkUpdateStatus applies one admin decision to many records. Each id is
// decided in its own transaction; a failure never rolls back the others.
// Duplicate ids count once. Failures are reported in input order.
func (s *Service) BulkUpdateStatus(ctx context.Context, adminID id.UserID, rawIDs []string, status models.Status, reason string) (_ BulkResult, err error) {
	ctx, finish := s.startSpan(ctx, "bulk_update", attribute.Int("ids", len(rawIDs)), attribute.String("status", status.String()))
	defer finish(&err)

	if len(rawIDs) == 0 {
		return BulkResult{}, dErrors.WithFields(dErrors.CodeValidation, "ids must not be empty", map[string]string{"ids": "required"})
	}
	if len(rawIDs) > maxBulkIDs {
		return BulkResult{}, dErrors.WithFields(dErrors.CodeValidation, "too many ids",
			map[string]string{"ids": "at most 500 per request"})
	}
	if status != models.StatusVerified && status != models.StatusDenied {
		return BulkResult{}, dErrors.WithFields(dErrors.CodeBadRequest, "status must be verified or denied",
			map[string]string{"status": "must be verified or denied"})
	}
	if status == models.StatusDenied && strings.TrimSpace(reason) == "" {
		return BulkResult{}, dErrors.WithFields(dErrors.CodeValidation, "a denial reason is required", map[string]string{"reason": "required"})
	}

	ids := uniqueIDs(rawIDs)
	failures := make([]*BulkFailure, len(ids))
	parsed := make([]id.VerificationID, len(ids))
	for i, raw := range ids {
		recordID, perr := id.ParseVerificationID(raw)
		if perr != nil {
			failures[i] = &BulkFailure{ID: raw, Code: dErrors.CodeBadRequest, Message: "invalid verification id"}
			continue
		}
		parsed[i] = recordID
	}

	// Load the batch once so unknown ids fail without opening a transaction.
	existing, err := s.loadBatch(ctx, parsed, failures)
	if err != nil {
		return BulkResult{}, err
	}
	for i, raw := range ids {
		if failures[i] == nil {
			if _, ok := existing[parsed[i]]; !ok {
				failures[i] = &BulkFailure{ID: raw, Code: dErrors.CodeNotFound, Message: "verification not found"}
			}
		}
	}

	var (
		mu       sync.Mutex
		modified int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.bulkLimit)
	for i, raw := range ids {
		if failures[i] != nil {
			continue
		}
		g.Go(func() error {
			if _, err := s.UpdateStatus(gctx, adminID, parsed[i], status, reason); err != nil {
				failures[i] = &BulkFailure{ID: raw, Code: dErrors.CodeOf(err), Message: publicMessage(err)}
				return nil
			}
			mu.Lock()
			modified++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	res := BulkResult{ModifiedCount: modified, Failures: []BulkFailure{}}
	for _, f := range failures {
		if f != nil {
			res.Failures = append(res.Failures, *f)
		}
	}
	s.metrics.AddBulkResults(res.ModifiedCount, len(res.Failures))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "bulk status update",
			"status", status.String(),
			"requested", len(ids),
			"modified", res.ModifiedCount,
			"failed", len(res.Failures),
			"actor_id", adminID.String(),
		)
	}
	return res, nil
}

// loadBatch fetches the records behind the ids that parsed.
func (s *Service) loadBatch(ctx context.Context, parsed []id.VerificationID, failures []*BulkFailure) (map[id.VerificationID]struct{}, error) {
	lookup := make([]id.VerificationID, 0, len(parsed))
	for i, recordID := range parsed {
		if failures[i] == nil {
			lookup = append(lookup, recordID)
		}
	}
	out := make(map[id.VerificationID]struct{}, len(lookup))
	if len(lookup) == 0 {
		return out, nil
	}
	recs, err := s.records.FindByIDs(ctx, lookup)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verifications")
	}
	for _, rec := range recs {
		out[rec.ID] = struct{}{}
	}
	return out, nil
}

// uniqueIDs trims ids and drops repeats, keeping first occurrences in order.
func uniqueIDs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.ToLower(strings.TrimSpace(r))
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// publicMessage hides internal details the same way the HTTP layer does.
func publicMessage(err error) string {
	var de *dErrors.Error
	if !errors.As(err, &de) || de.Code == dErrors.CodeInternal {
		return "internal error"
	}
	return de.Message
}
