package handler

import (
	"time"

	"idverify/internal/verification/models"
	"idverify/internal/verification/service"
	id "idverify/pkg/domain"
)

type RecordResponse struct {
	ID                     id.VerificationID  `json:"id"`
	UserID                 id.UserID          `json:"userId"`
	Persona                models.Persona     `json:"persona,omitempty"`
	Type                   models.RecordType  `json:"type,omitempty"`
	SubRole                models.SubRole     `json:"subRole,omitempty"`
	Status                 models.Status      `json:"status"`
	DeclarationsAndConsent bool               `json:"declarationsAndConsent"`
	FullName               string             `json:"fullName,omitempty"`
	Email                  string             `json:"email,omitempty"`
	SchoolName             string             `json:"schoolName,omitempty"`
	SubmittedAt            *time.Time         `json:"submittedAt,omitempty"`
	PreApprovedAt          *time.Time         `json:"preApprovedAt,omitempty"`
	PreApprovedBy          *id.UserID         `json:"preApprovedBy,omitempty"`
	VerifiedAt             *time.Time         `json:"verifiedAt,omitempty"`
	VerifiedBy             *id.UserID         `json:"verifiedBy,omitempty"`
	ReviewedAt             *time.Time         `json:"reviewedAt,omitempty"`
	ReviewedBy             *id.UserID         `json:"reviewedBy,omitempty"`
	ReviewerNotes          string             `json:"reviewerNotes,omitempty"`
	DenialReason           *string            `json:"denialReason,omitempty"`
	CooldownUntil          *time.Time         `json:"cooldownUntil,omitempty"`
	ResubmissionCount      int                `json:"resubmissionCount"`
	PreviousID             *id.VerificationID `json:"previousVerificationId,omitempty"`
	Version                int                `json:"version"`
	CreatedAt              time.Time          `json:"createdAt"`
	UpdatedAt              time.Time          `json:"updatedAt"`
}

func toRecordResponse(r *models.VerificationRecord) *RecordResponse {
	if r == nil {
		return nil
	}
	return &RecordResponse{
		ID:                     r.ID,
		UserID:                 r.UserID,
		Persona:                r.Persona,
		Type:                   r.Persona.Type(),
		SubRole:                r.Persona.SubRole(),
		Status:                 r.Status,
		DeclarationsAndConsent: r.DeclarationsAndConsent,
		FullName:               r.Subject.FullName,
		Email:                  r.Subject.Email,
		SchoolName:             r.Subject.SchoolName,
		SubmittedAt:            r.SubmittedAt,
		PreApprovedAt:          r.PreApprovedAt,
		PreApprovedBy:          r.PreApprovedBy,
		VerifiedAt:             r.VerifiedAt,
		VerifiedBy:             r.VerifiedBy,
		ReviewedAt:             r.ReviewedAt,
		ReviewedBy:             r.ReviewedBy,
		ReviewerNotes:          r.ReviewerNotes,
		DenialReason:           r.DenialReason,
		CooldownUntil:          r.CooldownUntil,
		ResubmissionCount:      r.ResubmissionCount,
		PreviousID:             r.PreviousID,
		Version:                r.Version,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

type StatusResponse struct {
	Status                 models.Status   `json:"status"`
	Verification           *RecordResponse `json:"verification,omitempty"`
	CanResubmit            bool            `json:"canResubmit"`
	RemainingResubmissions int             `json:"remainingResubmissions"`
	CooldownUntil          *time.Time      `json:"cooldownUntil,omitempty"`
}

func toStatusResponse(v service.StatusView) StatusResponse {
	return StatusResponse{
		Status:                 v.Status,
		Verification:           toRecordResponse(v.Record),
		CanResubmit:            v.CanResubmit,
		RemainingResubmissions: v.RemainingResubmissions,
		CooldownUntil:          v.CooldownUntil,
	}
}

type HistoryResponse struct {
	Items []*RecordResponse `json:"items"`
}

func toHistoryResponse(records []*models.VerificationRecord) HistoryResponse {
	items := make([]*RecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, toRecordResponse(r))
	}
	return HistoryResponse{Items: items}
}

type DetailResponse struct {
	Verification *RecordResponse              `json:"verification"`
	Profile      *models.PersonaProfile       `json:"profile,omitempty"`
	Documents    []*models.DocumentAttachment `json:"documents"`
}

func toDetailResponse(d *service.Detail) DetailResponse {
	docs := d.Documents
	if docs == nil {
		docs = []*models.DocumentAttachment{}
	}
	return DetailResponse{
		Verification: toRecordResponse(d.Record),
		Profile:      d.Profile,
		Documents:    docs,
	}
}

type DocumentsResponse struct {
	Documents []*models.DocumentAttachment `json:"documents"`
}

type SchoolQueueResponse struct {
	SchoolName string                    `json:"schoolName"`
	Items      []models.ReviewQueueEntry `json:"items"`
	Pagination models.Pagination         `json:"pagination"`
	Stats      models.Stats              `json:"stats"`
}

func toSchoolQueueResponse(q service.SchoolQueue) SchoolQueueResponse {
	return SchoolQueueResponse{
		SchoolName: q.SchoolName,
		Items:      q.Page.Items,
		Pagination: q.Page.Pagination,
		Stats:      q.Stats,
	}
}
