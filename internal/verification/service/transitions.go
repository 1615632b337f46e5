package service

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"

	settingsmodels "idverify/internal/settings/models"
	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/audit"
	"idverify/pkg/requestcontext"
)

// SubmitInput is what the owner sends to put a record up for review. Profile
// may be empty when the draft already carries one for the same persona.
type SubmitInput struct {
	Persona                models.Persona
	Profile                json.RawMessage
	DeclarationsAndConsent bool
}

// ResubmitInput optionally replaces the persona and profile of a denied
// verification. Empty fields carry the previous values over.
type ResubmitInput struct {
	Persona models.Persona
	Profile json.RawMessage
}

// Submit moves the owner's draft to pending. When the newest submitted record
// was denied, the submission is treated as a resubmission and the cooldown
// and cap apply.
func (s *Service) Submit(ctx context.Context, userID id.UserID, in SubmitInput) (_ *models.VerificationRecord, err error) {
	ctx, finish := s.startSpan(ctx, "submit", attribute.String("persona", in.Persona.String()))
	defer finish(&err)

	if !in.DeclarationsAndConsent {
		return nil, dErrors.WithFields(dErrors.CodeValidation, "declarations and consent must be accepted",
			map[string]string{"declarationsAndConsent": "must be true"})
	}
	if _, err := models.ParsePersona(in.Persona.String()); err != nil {
		return nil, err
	}
	var profile models.Profile
	if len(in.Profile) > 0 {
		if profile, err = decodeProfile(in.Persona, in.Profile); err != nil {
			return nil, err
		}
	}
	snap, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	var (
		rec   *models.VerificationRecord
		event = audit.EventSubmitted
	)
	err = s.tx.RunInTx(ctx, userID.String(), func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		st, err := s.loadUserState(ctx, userID)
		if err != nil {
			return err
		}
		if st.active != nil && st.active.Status.AwaitingReview() {
			return st.active.CanSubmit()
		}
		if st.last != nil && st.last.Status == models.StatusDenied {
			event = audit.EventResubmitted
			rec, err = s.resubmit(ctx, st, userID, in.Persona, profile, snap, now)
			return err
		}
		draft, err := s.ensureDraft(ctx, st, userID, in.Persona, now)
		if err != nil {
			return err
		}
		if err := s.attachSubmittedProfile(ctx, draft, in.Persona, profile, now); err != nil {
			return err
		}
		if err := draft.CanSubmit(); err != nil {
			return err
		}
		draft.ApplySubmission(now)
		if err := s.save(ctx, draft); err != nil {
			return err
		}
		rec = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, event, rec, userID, "")
	return rec, nil
}

// Resubmit opens the pending successor of the owner's denied verification.
func (s *Service) Resubmit(ctx context.Context, userID id.UserID, in ResubmitInput) (_ *models.VerificationRecord, err error) {
	ctx, finish := s.startSpan(ctx, "resubmit")
	defer finish(&err)

	if in.Persona != "" {
		if _, err := models.ParsePersona(in.Persona.String()); err != nil {
			return nil, err
		}
	}
	snap, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	var rec *models.VerificationRecord
	err = s.tx.RunInTx(ctx, userID.String(), func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		st, err := s.loadUserState(ctx, userID)
		if err != nil {
			return err
		}
		if st.active != nil && st.active.Status.AwaitingReview() {
			return dErrors.New(dErrors.CodeConflict, "verification already submitted")
		}
		if st.last == nil {
			return dErrors.New(dErrors.CodeNotFound, "no denied verification to resubmit")
		}
		if st.last.Status == models.StatusVerified {
			return dErrors.New(dErrors.CodeConflict, "verification already approved")
		}
		persona := in.Persona
		if persona == "" {
			persona = st.last.Persona
		}
		var profile models.Profile
		if len(in.Profile) > 0 {
			if profile, err = decodeProfile(persona, in.Profile); err != nil {
				return err
			}
		}
		rec, err = s.resubmit(ctx, st, userID, persona, profile, snap, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, audit.EventResubmitted, rec, userID, "")
	return rec, nil
}

// resubmit runs inside the caller's transaction. The successor is the
// owner's draft when there is one, otherwise a new record. Its profile is the
// one supplied, the draft's own, or a copy of the denied record's; documents
// are carried over when the successor has none.
func (s *Service) resubmit(ctx context.Context, st userState, userID id.UserID, persona models.Persona, profile models.Profile, snap settingsmodels.Snapshot, now time.Time) (*models.VerificationRecord, error) {
	prev := st.last
	if err := prev.CanResubmit(snap.MaxResubmissions, now); err != nil {
		return nil, err
	}

	next := st.active
	if next == nil {
		next = models.NewDraft(id.NewVerificationID(), userID, persona, now)
		if err := s.records.Create(ctx, next); err != nil {
			return nil, translate(err, "failed to open resubmission")
		}
	}

	if profile == nil {
		carried, err := s.resubmissionProfile(ctx, prev, next, persona)
		if err != nil {
			return nil, err
		}
		profile = carried
	}
	if _, err := s.storeProfile(ctx, next, profile, now); err != nil {
		return nil, err
	}
	if err := s.carryDocuments(ctx, prev, next); err != nil {
		return nil, err
	}

	prev.ApplyResubmissionOnto(next, now)
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// resubmissionProfile picks the profile a resubmission reuses: the draft's
// own when it matches persona, otherwise the denied record's.
func (s *Service) resubmissionProfile(ctx context.Context, prev, next *models.VerificationRecord, persona models.Persona) (models.Profile, error) {
	for _, rec := range []*models.VerificationRecord{next, prev} {
		p, err := s.currentProfile(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Persona() == persona {
			return p.Data, nil
		}
	}
	return nil, dErrors.WithFields(dErrors.CodeValidation, "profile is required",
		map[string]string{"profile": "required for " + persona.String()})
}

// attachSubmittedProfile stores the submitted profile on draft, or checks the
// draft already holds one for persona.
func (s *Service) attachSubmittedProfile(ctx context.Context, draft *models.VerificationRecord, persona models.Persona, profile models.Profile, now time.Time) error {
	if profile != nil {
		if err := draft.CanReplaceProfile(); err != nil {
			return err
		}
		_, err := s.storeProfile(ctx, draft, profile, now)
		return err
	}
	existing, err := s.currentProfile(ctx, draft.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.Persona() != persona {
		return dErrors.WithFields(dErrors.CodeValidation, "profile is required",
			map[string]string{"profile": "required for " + persona.String()})
	}
	if err := models.ValidateProfile(existing.Data); err != nil {
		return err
	}
	draft.ApplyProfile(existing.Data, now)
	return nil
}

// PreApprove is a school's endorsement of a pending student in its scope.
func (s *Service) PreApprove(ctx context.Context, schoolUserID id.UserID, recordID id.VerificationID, notes string) (_ *models.VerificationRecord, err error) {
	ctx, finish := s.startSpan(ctx, "pre_approve")
	defer finish(&err)

	scope, err := s.SchoolScopeFor(ctx, schoolUserID)
	if err != nil {
		return nil, err
	}
	return s.review(ctx, scope, recordID, audit.EventPreApproved, "", func(rec *models.VerificationRecord, _ settingsmodels.Snapshot, now time.Time) error {
		if err := rec.CanPreApprove(); err != nil {
			return err
		}
		rec.ApplyPreApproval(schoolUserID, notes, now)
		return nil
	})
}

// SchoolDeny lets a school reject a student in its scope before an admin does.
func (s *Service) SchoolDeny(ctx context.Context, schoolUserID id.UserID, recordID id.VerificationID, reason string) (_ *models.VerificationRecord, err error) {
	ctx, finish := s.startSpan(ctx, "school_deny")
	defer finish(&err)

	scope, err := s.SchoolScopeFor(ctx, schoolUserID)
	if err != nil {
		return nil, err
	}
	return s.review(ctx, scope, recordID, audit.EventDenied, reason, denyWith(schoolUserID, reason))
}

func (s *Service) Approve(ctx context.Context, adminID id.UserID, recordID id.VerificationID, notes string) (_ *models.VerificationRecord, err error) {
	ctx, finish := s.startSpan(ctx, "approve")
	defer finish(&err)

	return s.review(ctx, models.AdminScope(adminID), recordID, audit.EventApproved, "", func(rec *models.VerificationRecord, _ settingsmodels.Snapshot, now time.Time) error {
		if err := rec.CanApprove(); err != nil {
			return err
		}
		rec.ApplyApproval(adminID, notes, now)
		return nil
	})
}

func (s *Service) Deny(ctx context.Context, adminID id.UserID, recordID id.VerificationID, reason string) (_ *models.VerificationRecord, err error) {
	ctx, finish := s.startSpan(ctx, "deny")
	defer finish(&err)

	return s.review(ctx, models.AdminScope(adminID), recordID, audit.EventDenied, reason, denyWith(adminID, reason))
}

// UpdateStatus is the admin's single entry point for a decision: verified
// approves, denied denies with reason as the denial reason, and notes otherwise.
func (s *Service) UpdateStatus(ctx context.Context, adminID id.UserID, recordID id.VerificationID, status models.Status, reason string) (*models.VerificationRecord, error) {
	switch status {
	case models.StatusVerified:
		return s.Approve(ctx, adminID, recordID, reason)
	case models.StatusDenied:
		return s.Deny(ctx, adminID, recordID, reason)
	}
	return nil, dErrors.WithFields(dErrors.CodeBadRequest, "status must be verified or denied",
		map[string]string{"status": "must be verified or denied"})
}

func denyWith(reviewer id.UserID, reason string) reviewFunc {
	return func(rec *models.VerificationRecord, snap settingsmodels.Snapshot, now time.Time) error {
		if err := rec.CanDeny(reason); err != nil {
			return err
		}
		rec.ApplyDenial(reviewer, reason, snap.Cooldown, now)
		return nil
	}
}

type reviewFunc func(rec *models.VerificationRecord, snap settingsmodels.Snapshot, now time.Time) error

// review loads the record, enforces scope, applies the decision and commits
// it with a version check. A reviewer outside scope learns nothing beyond
// Forbidden.
func (s *Service) review(ctx context.Context, scope models.ReviewerScope, recordID id.VerificationID, event audit.AuditEvent, reason string, decide reviewFunc) (*models.VerificationRecord, error) {
	snap, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}
	var rec *models.VerificationRecord
	err = s.tx.RunInTx(ctx, recordID.String(), func(ctx context.Context) error {
		found, err := s.loadRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if !scope.Admits(found) {
			return dErrors.New(dErrors.CodeForbidden, "verification is outside your review scope")
		}
		if err := decide(found, snap, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.save(ctx, found); err != nil {
			return err
		}
		rec = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, event, rec, scope.ReviewerID, reason)
	return rec, nil
}
