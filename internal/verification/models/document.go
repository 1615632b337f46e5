package models

import (
	"time"

	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
)

// DocumentAttachment references an uploaded file. Only reviewers flip
// IsVerified, and doing so never moves the parent record's status.
type DocumentAttachment struct {
	ID             id.DocumentID     `json:"id"`
	VerificationID id.VerificationID `json:"verificationId"`
	UserID         id.UserID         `json:"userId"`
	Type           string            `json:"documentType"`
	FileName       string            `json:"fileName"`
	FileURL        string            `json:"fileUrl"`
	ContentType    string            `json:"contentType,omitempty"`
	SizeBytes      int64             `json:"sizeBytes"`
	UploadedAt     time.Time         `json:"uploadedAt"`
	IsVerified     bool              `json:"isVerified"`
	VerifiedBy     *id.UserID        `json:"verifiedBy,omitempty"`
	VerifiedAt     *time.Time        `json:"verifiedAt,omitempty"`
}

// FileRef describes an upload before it becomes an attachment.
type FileRef struct {
	FileName    string
	FileURL     string
	ContentType string
	SizeBytes   int64
}

// CanMarkVerified rejects a second verification of the same document.
func (d *DocumentAttachment) CanMarkVerified() error {
	if d.IsVerified {
		return dErrors.New(dErrors.CodeConflict, "document already verified")
	}
	return nil
}

func (d *DocumentAttachment) ApplyVerification(reviewer id.UserID, now time.Time) {
	d.IsVerified = true
	d.VerifiedBy = &reviewer
	d.VerifiedAt = &now
}

// CopyFor clones the attachment onto another record as a fresh, unverified
// document. The file itself is shared.
func (d *DocumentAttachment) CopyFor(docID id.DocumentID, verificationID id.VerificationID, now time.Time) *DocumentAttachment {
	return &DocumentAttachment{
		ID:             docID,
		VerificationID: verificationID,
		UserID:         d.UserID,
		Type:           d.Type,
		FileName:       d.FileName,
		FileURL:        d.FileURL,
		ContentType:    d.ContentType,
		SizeBytes:      d.SizeBytes,
		UploadedAt:     now,
	}
}
