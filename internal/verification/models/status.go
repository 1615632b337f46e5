package models

import dErrors "idverify/pkg/domain-errors"

// Status is the lifecycle state of a verification record.
type Status string

const (
	StatusUnverified  Status = "unverified"
	StatusPending     Status = "pending"
	StatusPreApproved Status = "pre-approved"
	StatusVerified    Status = "verified"
	StatusDenied      Status = "denied"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []Status{StatusUnverified, StatusPending, StatusPreApproved, StatusVerified, StatusDenied}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown status: "+s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusUnverified, StatusPending, StatusPreApproved, StatusVerified, StatusDenied:
		return true
	}
	return false
}

// IsActive reports whether the record still occupies the user's single
// active slot.
func (s Status) IsActive() bool {
	return s == StatusUnverified || s == StatusPending || s == StatusPreApproved
}

// IsTerminal reports whether review has completed.
func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusDenied
}

// AwaitingReview reports whether a reviewer may act on the record.
func (s Status) AwaitingReview() bool {
	return s == StatusPending || s == StatusPreApproved
}

func (s Status) String() string {
	return string(s)
}

// ActiveStatuses are the statuses guarded by the one-active-record rule.
var ActiveStatuses = []Status{StatusUnverified, StatusPending, StatusPreApproved}
