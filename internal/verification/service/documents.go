package service

import (
	"context"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/audit"
	"idverify/pkg/requestcontext"
)

// Upload is a file received from the owner, not yet stored.
type Upload struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// UploadDocument checks the file against the policy, stores it and attaches
// it to the owner's editable record. A draft is opened when the owner has no
// active record.
func (s *Service) UploadDocument(ctx context.Context, userID id.UserID, docType string, up Upload) (_ *models.DocumentAttachment, err error) {
	ctx, finish := s.startSpan(ctx, "upload_document", attribute.String("document_type", docType))
	defer finish(&err)

	if s.blobs == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "document storage is not configured")
	}
	snap, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}
	canonical, err := snap.CheckDocument(docType, up.SizeBytes)
	if err != nil {
		return nil, err
	}

	var doc *models.DocumentAttachment
	err = s.tx.RunInTx(ctx, userID.String(), func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		st, err := s.loadUserState(ctx, userID)
		if err != nil {
			return err
		}
		rec, err := s.ensureDraft(ctx, st, userID, "", now)
		if err != nil {
			return err
		}
		if err := rec.CanEditEvidence(); err != nil {
			return err
		}
		url, err := s.blobs.Write(ctx, userID, up.FileName, up.Body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
		}
		doc = newAttachment(rec, canonical, models.FileRef{
			FileName:    up.FileName,
			FileURL:     url,
			ContentType: up.ContentType,
			SizeBytes:   up.SizeBytes,
		}, now)
		if err := s.documents.Save(ctx, doc); err != nil {
			_ = s.blobs.Delete(ctx, url)
			return translate(err, "failed to attach document")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.documentAudit(ctx, audit.EventDocumentAttached, "attach", doc, userID)
	return doc, nil
}

// Attach records an already stored file against one of the owner's records.
func (s *Service) Attach(ctx context.Context, userID id.UserID, recordID id.VerificationID, docType string, ref models.FileRef) (_ *models.DocumentAttachment, err error) {
	ctx, finish := s.startSpan(ctx, "attach_document", attribute.String("document_type", docType))
	defer finish(&err)

	snap, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}
	canonical, err := snap.CheckDocument(docType, ref.SizeBytes)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ref.FileURL) == "" {
		return nil, dErrors.WithFields(dErrors.CodeValidation, "file URL is required", map[string]string{"fileUrl": "required"})
	}

	var doc *models.DocumentAttachment
	err = s.tx.RunInTx(ctx, userID.String(), func(ctx context.Context) error {
		rec, err := s.loadRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if !rec.IsOwnedBy(userID) {
			return dErrors.New(dErrors.CodeForbidden, "verification belongs to another user")
		}
		if err := rec.CanEditEvidence(); err != nil {
			return err
		}
		doc = newAttachment(rec, canonical, ref, requestcontext.Now(ctx))
		return translate(s.documents.Save(ctx, doc), "failed to attach document")
	})
	if err != nil {
		return nil, err
	}
	s.documentAudit(ctx, audit.EventDocumentAttached, "attach", doc, userID)
	return doc, nil
}

// Detach removes a document while its record is still under the owner's
// control. The stored file stays: resubmitted records may share it.
func (s *Service) Detach(ctx context.Context, userID id.UserID, docID id.DocumentID) (err error) {
	ctx, finish := s.startSpan(ctx, "detach_document")
	defer finish(&err)

	var doc *models.DocumentAttachment
	err = s.tx.RunInTx(ctx, userID.String(), func(ctx context.Context) error {
		found, err := s.documents.FindByID(ctx, docID)
		if err != nil {
			return translate(err, "document not found")
		}
		doc = found
		return s.detach(ctx, userID, doc)
	})
	if err != nil {
		return err
	}
	s.documentAudit(ctx, audit.EventDocumentDetached, "detach", doc, userID)
	return nil
}

// DetachByFileURL removes the owner's newest attachment pointing at url.
func (s *Service) DetachByFileURL(ctx context.Context, userID id.UserID, url string) (err error) {
	ctx, finish := s.startSpan(ctx, "detach_document")
	defer finish(&err)

	url = strings.TrimSpace(url)
	if url == "" {
		return dErrors.WithFields(dErrors.CodeValidation, "filePath is required", map[string]string{"filePath": "required"})
	}
	var doc *models.DocumentAttachment
	err = s.tx.RunInTx(ctx, userID.String(), func(ctx context.Context) error {
		found, err := s.documents.FindByFileURL(ctx, userID, url)
		if err != nil {
			return translate(err, "document not found")
		}
		doc = found
		return s.detach(ctx, userID, doc)
	})
	if err != nil {
		return err
	}
	s.documentAudit(ctx, audit.EventDocumentDetached, "detach", doc, userID)
	return nil
}

func (s *Service) detach(ctx context.Context, userID id.UserID, doc *models.DocumentAttachment) error {
	rec, err := s.loadRecord(ctx, doc.VerificationID)
	if err != nil {
		return err
	}
	if !rec.IsOwnedBy(userID) {
		return dErrors.New(dErrors.CodeForbidden, "document belongs to another user")
	}
	if err := rec.CanEditEvidence(); err != nil {
		return err
	}
	return translate(s.documents.Delete(ctx, doc.ID), "failed to remove document")
}

// MarkDocumentVerified flags one document as checked by a reviewer. The
// parent record's status does not move.
func (s *Service) MarkDocumentVerified(ctx context.Context, reviewerID id.UserID, docID id.DocumentID) (_ *models.DocumentAttachment, err error) {
	ctx, finish := s.startSpan(ctx, "verify_document")
	defer finish(&err)

	var doc *models.DocumentAttachment
	err = s.tx.RunInTx(ctx, docID.String(), func(ctx context.Context) error {
		found, err := s.documents.FindByID(ctx, docID)
		if err != nil {
			return translate(err, "document not found")
		}
		doc = found
		if err := doc.CanMarkVerified(); err != nil {
			return err
		}
		doc.ApplyVerification(reviewerID, requestcontext.Now(ctx))
		return translate(s.documents.Update(ctx, doc), "failed to verify document")
	})
	if err != nil {
		return nil, err
	}
	s.documentAudit(ctx, audit.EventDocumentVerified, "verify", doc, reviewerID)
	return doc, nil
}

// ListDocuments returns a record's attachments, oldest first.
func (s *Service) ListDocuments(ctx context.Context, recordID id.VerificationID) (_ []*models.DocumentAttachment, err error) {
	ctx, finish := s.startSpan(ctx, "list_documents")
	defer finish(&err)

	docs, err := s.documents.ListByVerification(ctx, recordID)
	if err != nil {
		return nil, translate(err, "failed to list documents")
	}
	return docs, nil
}

// ActiveDocuments lists the attachments of the owner's active record, or
// none when there is no active record.
func (s *Service) ActiveDocuments(ctx context.Context, userID id.UserID) ([]*models.DocumentAttachment, error) {
	rec, err := s.records.FindActiveByUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return []*models.DocumentAttachment{}, nil
		}
		return nil, translate(err, "failed to load verification")
	}
	return s.ListDocuments(ctx, rec.ID)
}

// carryDocuments copies prev's attachments onto next as fresh unverified
// documents, unless next already has its own.
func (s *Service) carryDocuments(ctx context.Context, prev, next *models.VerificationRecord) error {
	existing, err := s.documents.ListByVerification(ctx, next.ID)
	if err != nil {
		return translate(err, "failed to list documents")
	}
	if len(existing) > 0 {
		return nil
	}
	docs, err := s.documents.ListByVerification(ctx, prev.ID)
	if err != nil {
		return translate(err, "failed to list documents")
	}
	now := requestcontext.Now(ctx)
	for _, d := range docs {
		if err := s.documents.Save(ctx, d.CopyFor(id.NewDocumentID(), next.ID, now)); err != nil {
			return translate(err, "failed to carry documents over")
		}
	}
	return nil
}

func newAttachment(rec *models.VerificationRecord, docType string, ref models.FileRef, now time.Time) *models.DocumentAttachment {
	return &models.DocumentAttachment{
		ID:             id.NewDocumentID(),
		VerificationID: rec.ID,
		UserID:         rec.UserID,
		Type:           docType,
		FileName:       ref.FileName,
		FileURL:        ref.FileURL,
		ContentType:    ref.ContentType,
		SizeBytes:      ref.SizeBytes,
		UploadedAt:     now,
	}
}

func (s *Service) documentAudit(ctx context.Context, event audit.AuditEvent, action string, doc *models.DocumentAttachment, actor id.UserID) {
	s.metrics.IncrementDocument(action)
	s.logAudit(ctx, event,
		"user_id", doc.UserID.String(),
		"verification_id", doc.VerificationID.String(),
		"document_id", doc.ID.String(),
		"decision", doc.Type,
		"actor_id", actor.String(),
	)
}
