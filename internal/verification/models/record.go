package models

import (
	"strings"
	"time"

	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
)

// Subject is the denormalized view of the profile that reviewers search and
// schools are scoped by. It is refreshed whenever the profile is replaced.
type Subject struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	SchoolName string `json:"schoolName,omitempty"`
}

// SubjectOf extracts the searchable subject from a profile.
func SubjectOf(p Profile) Subject {
	if p == nil {
		return Subject{}
	}
	return Subject{
		FullName:   p.DisplayName(),
		Email:      strings.TrimSpace(p.ContactEmail()),
		SchoolName: p.SchoolName(),
	}
}

// VerificationRecord is the aggregate root of one verification cycle.
//
// Invariants:
//   - At most one record per user has an active status (unverified, pending, pre-approved)
//   - DenialReason and CooldownUntil are set iff Status is denied
//   - VerifiedAt and VerifiedBy are set iff Status is verified
//   - ResubmissionCount never decreases along a PreviousID chain
//   - Records are never deleted; a resubmission is a new record pointing at the denied one
//
// Version is bumped by the store on every successful update and used as the
// compare-and-swap token.
type VerificationRecord struct {
	ID                     id.VerificationID
	UserID                 id.UserID
	Persona                Persona
	Status                 Status
	DeclarationsAndConsent bool
	Subject                Subject

	SubmittedAt   *time.Time
	PreApprovedAt *time.Time
	PreApprovedBy *id.UserID
	VerifiedAt    *time.Time
	VerifiedBy    *id.UserID
	ReviewedAt    *time.Time
	ReviewedBy    *id.UserID
	ReviewerNotes string

	DenialReason      *string
	CooldownUntil     *time.Time
	ResubmissionCount int
	PreviousID        *id.VerificationID

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDraft opens an unverified record. Persona may be empty until the user
// saves a profile.
func NewDraft(recordID id.VerificationID, userID id.UserID, persona Persona, now time.Time) *VerificationRecord {
	return &VerificationRecord{
		ID:        recordID,
		UserID:    userID,
		Persona:   persona,
		Status:    StatusUnverified,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SortTime is the queue ordering key: submission time, or creation time for drafts.
func (r *VerificationRecord) SortTime() time.Time {
	if r.SubmittedAt != nil {
		return *r.SubmittedAt
	}
	return r.CreatedAt
}

func (r *VerificationRecord) IsOwnedBy(userID id.UserID) bool {
	return r.UserID == userID
}

// Clone returns a deep copy so callers can mutate without touching store state.
func (r *VerificationRecord) Clone() *VerificationRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.SubmittedAt = clonePtr(r.SubmittedAt)
	c.PreApprovedAt = clonePtr(r.PreApprovedAt)
	c.PreApprovedBy = clonePtr(r.PreApprovedBy)
	c.VerifiedAt = clonePtr(r.VerifiedAt)
	c.VerifiedBy = clonePtr(r.VerifiedBy)
	c.ReviewedAt = clonePtr(r.ReviewedAt)
	c.ReviewedBy = clonePtr(r.ReviewedBy)
	c.DenialReason = clonePtr(r.DenialReason)
	c.CooldownUntil = clonePtr(r.CooldownUntil)
	c.PreviousID = clonePtr(r.PreviousID)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// -----------------------------------------------------------------------------
// Draft edits
// -----------------------------------------------------------------------------

// CanEditEvidence allows profile and document changes until review completes.
func (r *VerificationRecord) CanEditEvidence() error {
	if r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeImmutableState, "verification is "+r.Status.String()+"; its evidence can no longer change")
	}
	return nil
}

// CanReplaceProfile allows profile saves only on drafts. A pending record's
// profile is what the reviewer is looking at.
func (r *VerificationRecord) CanReplaceProfile() error {
	if err := r.CanEditEvidence(); err != nil {
		return err
	}
	if r.Status != StatusUnverified {
		return dErrors.New(dErrors.CodeImmutableState, "profile cannot change while the verification is under review")
	}
	return nil
}

// ApplyProfile records the persona and refreshes the searchable subject.
func (r *VerificationRecord) ApplyProfile(p Profile, now time.Time) {
	r.Persona = p.Persona()
	r.Subject = SubjectOf(p)
	r.UpdatedAt = now
}

// -----------------------------------------------------------------------------
// Submit
// -----------------------------------------------------------------------------

func (r *VerificationRecord) CanSubmit() error {
	switch r.Status {
	case StatusUnverified:
		return nil
	case StatusPending, StatusPreApproved:
		return dErrors.New(dErrors.CodeConflict, "verification already submitted")
	case StatusVerified:
		return dErrors.New(dErrors.CodeConflict, "verification already approved")
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "denied verifications must be resubmitted")
	}
}

func (r *VerificationRecord) ApplySubmission(now time.Time) {
	r.Status = StatusPending
	r.DeclarationsAndConsent = true
	r.SubmittedAt = &now
	r.UpdatedAt = now
}

// -----------------------------------------------------------------------------
// Reviewer actions
// -----------------------------------------------------------------------------

// Reviewer guards report a record another reviewer already decided as a
// conflict, so a losing concurrent reviewer always sees CodeConflict.

// CanPreApprove allows school endorsement of pending student records only.
func (r *VerificationRecord) CanPreApprove() error {
	if r.Persona != PersonaStudent {
		return dErrors.New(dErrors.CodeInvariantViolation, "only student verifications can be pre-approved")
	}
	switch r.Status {
	case StatusPending:
		return nil
	case StatusPreApproved:
		return dErrors.New(dErrors.CodeConflict, "verification already pre-approved")
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot pre-approve a "+r.Status.String()+" verification")
	}
}

func (r *VerificationRecord) ApplyPreApproval(reviewer id.UserID, notes string, now time.Time) {
	r.Status = StatusPreApproved
	r.PreApprovedAt = &now
	r.PreApprovedBy = &reviewer
	r.markReviewed(reviewer, notes, now)
}

func (r *VerificationRecord) CanApprove() error {
	switch r.Status {
	case StatusPending, StatusPreApproved:
		return nil
	case StatusVerified:
		return dErrors.New(dErrors.CodeConflict, "verification already approved")
	case StatusDenied:
		return dErrors.New(dErrors.CodeConflict, "verification already denied")
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot approve a "+r.Status.String()+" verification")
	}
}

func (r *VerificationRecord) ApplyApproval(reviewer id.UserID, notes string, now time.Time) {
	r.Status = StatusVerified
	r.VerifiedAt = &now
	r.VerifiedBy = &reviewer
	r.markReviewed(reviewer, notes, now)
}

func (r *VerificationRecord) CanDeny(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.WithFields(dErrors.CodeValidation, "a denial reason is required", map[string]string{"reason": "required"})
	}
	switch r.Status {
	case StatusPending, StatusPreApproved:
		return nil
	case StatusDenied:
		return dErrors.New(dErrors.CodeConflict, "verification already denied")
	case StatusVerified:
		return dErrors.New(dErrors.CodeConflict, "verification already approved")
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot deny a "+r.Status.String()+" verification")
	}
}

// ApplyDenial starts the cooldown and counts the attempt against the cap.
func (r *VerificationRecord) ApplyDenial(reviewer id.UserID, reason string, cooldown time.Duration, now time.Time) {
	reason = strings.TrimSpace(reason)
	until := now.Add(cooldown)
	r.Status = StatusDenied
	r.DenialReason = &reason
	r.CooldownUntil = &until
	r.ResubmissionCount++
	r.markReviewed(reviewer, reason, now)
}

func (r *VerificationRecord) markReviewed(reviewer id.UserID, notes string, now time.Time) {
	r.ReviewedAt = &now
	r.ReviewedBy = &reviewer
	if notes = strings.TrimSpace(notes); notes != "" {
		r.ReviewerNotes = notes
	}
	r.UpdatedAt = now
}

// -----------------------------------------------------------------------------
// Resubmission
// -----------------------------------------------------------------------------

// CanResubmit checks the cap first since it never clears, then the cooldown.
func (r *VerificationRecord) CanResubmit(maxResubmissions int, now time.Time) error {
	if r.Status != StatusDenied {
		return dErrors.New(dErrors.CodeInvariantViolation, "only denied verifications can be resubmitted")
	}
	if r.ResubmissionCount >= maxResubmissions {
		return dErrors.New(dErrors.CodeResubmissionLimit, "resubmission limit reached")
	}
	if r.CooldownUntil != nil && now.Before(*r.CooldownUntil) {
		return dErrors.WithRetryAfter(dErrors.CodeCooldownActive,
			"resubmission is blocked until "+r.CooldownUntil.UTC().Format(time.RFC3339),
			r.CooldownUntil.Sub(now))
	}
	return nil
}

// RemainingResubmissions is never negative.
func (r *VerificationRecord) RemainingResubmissions(maxResubmissions int) int {
	return max(maxResubmissions-r.ResubmissionCount, 0)
}

// ApplyResubmissionOnto turns next (a fresh record or the user's draft) into
// the pending successor of r.
func (r *VerificationRecord) ApplyResubmissionOnto(next *VerificationRecord, now time.Time) {
	prev := r.ID
	next.PreviousID = &prev
	next.ResubmissionCount = r.ResubmissionCount
	if next.Persona == "" {
		next.Persona = r.Persona
	}
	if next.Subject == (Subject{}) {
		next.Subject = r.Subject
	}
	next.ApplySubmission(now)
}

// -----------------------------------------------------------------------------
// Invariants
// -----------------------------------------------------------------------------

// CheckInvariants reports the first status-dependent field that is out of place.
func (r *VerificationRecord) CheckInvariants() error {
	denied := r.Status == StatusDenied
	if (r.DenialReason != nil) != denied {
		return dErrors.New(dErrors.CodeInvariantViolation, "denialReason must be set iff status is denied")
	}
	if (r.CooldownUntil != nil) != denied {
		return dErrors.New(dErrors.CodeInvariantViolation, "cooldownUntil must be set iff status is denied")
	}
	verified := r.Status == StatusVerified
	if (r.VerifiedAt != nil) != verified || (r.VerifiedBy != nil) != verified {
		return dErrors.New(dErrors.CodeInvariantViolation, "verifiedAt/verifiedBy must be set iff status is verified")
	}
	if r.Status != StatusUnverified && r.SubmittedAt == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "submitted records need submittedAt")
	}
	if r.ResubmissionCount < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "resubmissionCount must not be negative")
	}
	return nil
}
