// Package handler exposes the verification lifecycle over HTTP. Routes
// assume the bearer-token middleware already ran; role checks happen here.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"idverify/internal/verification/models"
	"idverify/internal/verification/service"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/httputil"
	authmw "idverify/pkg/platform/middleware/auth"
	"idverify/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the slice of the verification service the HTTP layer drives.
type Service interface {
	Status(ctx context.Context, userID id.UserID) (service.StatusView, error)
	History(ctx context.Context, userID id.UserID) ([]*models.VerificationRecord, error)
	SaveProfile(ctx context.Context, userID id.UserID, persona models.Persona, data []byte) (*models.PersonaProfile, error)
	Submit(ctx context.Context, userID id.UserID, in service.SubmitInput) (*models.VerificationRecord, error)
	Resubmit(ctx context.Context, userID id.UserID, in service.ResubmitInput) (*models.VerificationRecord, error)
	UploadDocument(ctx context.Context, userID id.UserID, docType string, up service.Upload) (*models.DocumentAttachment, error)
	ActiveDocuments(ctx context.Context, userID id.UserID) ([]*models.DocumentAttachment, error)
	Detach(ctx context.Context, userID id.UserID, docID id.DocumentID) error
	DetachByFileURL(ctx context.Context, userID id.UserID, url string) error
	MarkDocumentVerified(ctx context.Context, reviewerID id.UserID, docID id.DocumentID) (*models.DocumentAttachment, error)
	GetDetail(ctx context.Context, viewerID id.UserID, role id.Role, recordID id.VerificationID) (*service.Detail, error)
	UpdateStatus(ctx context.Context, adminID id.UserID, recordID id.VerificationID, status models.Status, reason string) (*models.VerificationRecord, error)
	BulkUpdateStatus(ctx context.Context, adminID id.UserID, ids []string, status models.Status, reason string) (service.BulkResult, error)
	Queue(ctx context.Context, adminID id.UserID, filter models.QueueFilter) (models.PagedResult, error)
	Stats(ctx context.Context, adminID id.UserID) (models.Stats, error)
	SchoolQueueFor(ctx context.Context, schoolUserID id.UserID, filter models.QueueFilter) (service.SchoolQueue, error)
	PreApprove(ctx context.Context, schoolUserID id.UserID, recordID id.VerificationID, notes string) (*models.VerificationRecord, error)
	SchoolDeny(ctx context.Context, schoolUserID id.UserID, recordID id.VerificationID, reason string) (*models.VerificationRecord, error)
}

// DefaultMaxUploadBytes bounds a multipart request regardless of the
// configured per-file cap, which the service enforces.
const DefaultMaxUploadBytes int64 = 32 << 20

type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

func New(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{service: service, logger: logger, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) Register(r chi.Router) {
	admin := r.With(authmw.RequireRole(h.logger, id.RoleAdmin))
	school := r.With(authmw.RequireRole(h.logger, id.RoleSchool))

	r.Get("/identity-verification/status", h.HandleStatus)
	r.Get("/identity-verification/history", h.HandleHistory)
	r.Put("/identity-verification/{persona}/profile", h.HandleSaveProfile)
	r.Post("/identity-verification/{persona}/submit", h.HandleSubmit)
	r.Post("/identity-verification/resubmit", h.HandleResubmit)
	r.Post("/identity-verification/upload-document", h.HandleUploadDocument)
	r.Get("/identity-verification/documents", h.HandleListDocuments)
	r.Delete("/identity-verification/document/{id}", h.HandleDeleteDocument)
	r.Post("/identity-verification/delete-document", h.HandleDeleteDocumentByPath)

	admin.Get("/identity-verification/all", h.HandleListAll)
	admin.Get("/identity-verification/stats", h.HandleStats)
	admin.Post("/identity-verification/bulk-update", h.HandleBulkUpdate)
	admin.Put("/identity-verification/{id}/status", h.HandleUpdateStatus)
	admin.Post("/identity-verification/document/{id}/verify", h.HandleVerifyDocument)

	r.Get("/identity-verification/{id}", h.HandleGetDetail)

	school.Get("/kyc-kyb-verification/school/queue", h.HandleSchoolQueue)
	school.Post("/kyc-kyb-verification/pre-approve/{id}", h.HandlePreApprove)
	school.Post("/kyc-kyb-verification/school-deny/{id}", h.HandleSchoolDeny)
}

// -----------------------------------------------------------------------------
// Owner routes
// -----------------------------------------------------------------------------

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Status(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, "status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(view))
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.service.History(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, "history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponse(records))
}

func (h *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	persona, ok := h.personaParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProfileRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	saved, err := h.service.SaveProfile(ctx, requestcontext.UserID(ctx), persona, req.Profile)
	if err != nil {
		h.fail(w, r, "save_profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, saved)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	persona, ok := h.personaParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.Submit(ctx, requestcontext.UserID(ctx), service.SubmitInput{
		Persona:                persona,
		Profile:                req.Profile,
		DeclarationsAndConsent: req.DeclarationsAndConsent,
	})
	if err != nil {
		h.fail(w, r, "submit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := &ResubmitRequest{}
	if r.ContentLength != 0 {
		var ok bool
		if req, ok = httputil.DecodeAndPrepare[ResubmitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}
	persona := models.Persona(req.Persona)
	if persona != "" && !personaAllowed(requestcontext.Role(ctx), persona) {
		h.fail(w, r, "resubmit", dErrors.New(dErrors.CodeForbidden, "persona "+req.Persona+" is not available to your account"))
		return
	}
	rec, err := h.service.Resubmit(ctx, requestcontext.UserID(ctx), service.ResubmitInput{
		Persona: persona,
		Profile: req.Profile,
	})
	if err != nil {
		h.fail(w, r, "resubmit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, "upload", dErrors.New(dErrors.CodeSizeLimitExceeded, "upload exceeds the request size limit"))
			return
		}
		h.fail(w, r, "upload", dErrors.Wrap(err, dErrors.CodeBadRequest, "expected a multipart/form-data body"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	docType := strings.TrimSpace(r.FormValue("documentType"))
	if docType == "" {
		h.fail(w, r, "upload", dErrors.WithFields(dErrors.CodeValidation, "documentType is required", map[string]string{"documentType": "required"}))
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		h.fail(w, r, "upload", dErrors.WithFields(dErrors.CodeValidation, "document file is required", map[string]string{"document": "required"}))
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(ctx, requestcontext.UserID(ctx), docType, service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        file,
	})
	if err != nil {
		h.fail(w, r, "upload", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.service.ActiveDocuments(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, "list_documents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DocumentsResponse{Documents: docs})
}

func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "delete_document", err)
		return
	}
	if err := h.service.Detach(ctx, requestcontext.UserID(ctx), docID); err != nil {
		h.fail(w, r, "delete_document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDeleteDocumentByPath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DeleteDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.DetachByFileURL(ctx, requestcontext.UserID(ctx), req.FilePath); err != nil {
		h.fail(w, r, "delete_document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetDetail serves owners, admins and in-scope schools; the service
// decides which.
func (h *Handler) HandleGetDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := h.recordParam(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetDetail(ctx, requestcontext.UserID(ctx), requestcontext.Role(ctx), recordID)
	if err != nil {
		h.fail(w, r, "get_detail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetailResponse(detail))
}

// -----------------------------------------------------------------------------
// Admin routes
// -----------------------------------------------------------------------------

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseQueueFilter(r)
	if err != nil {
		h.fail(w, r, "list_all", err)
		return
	}
	page, err := h.service.Queue(ctx, requestcontext.UserID(ctx), filter)
	if err != nil {
		h.fail(w, r, "list_all", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, "stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[BulkUpdateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.BulkUpdateStatus(ctx, requestcontext.UserID(ctx), req.IDs, req.status, req.Reason)
	if err != nil {
		h.fail(w, r, "bulk_update", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := h.recordParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StatusUpdateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.UpdateStatus(ctx, requestcontext.UserID(ctx), recordID, req.status, req.Reason)
	if err != nil {
		h.fail(w, r, "update_status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) HandleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "verify_document", err)
		return
	}
	doc, err := h.service.MarkDocumentVerified(ctx, requestcontext.UserID(ctx), docID)
	if err != nil {
		h.fail(w, r, "verify_document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// -----------------------------------------------------------------------------
// School routes
// -----------------------------------------------------------------------------

func (h *Handler) HandleSchoolQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseQueueFilter(r)
	if err != nil {
		h.fail(w, r, "school_queue", err)
		return
	}
	q, err := h.service.SchoolQueueFor(ctx, requestcontext.UserID(ctx), filter)
	if err != nil {
		h.fail(w, r, "school_queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSchoolQueueResponse(q))
}

func (h *Handler) HandlePreApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, req, ok := h.reviewParams(w, r)
	if !ok {
		return
	}
	rec, err := h.service.PreApprove(ctx, requestcontext.UserID(ctx), recordID, req.Notes)
	if err != nil {
		h.fail(w, r, "pre_approve", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) HandleSchoolDeny(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, req, ok := h.reviewParams(w, r)
	if !ok {
		return
	}
	rec, err := h.service.SchoolDeny(ctx, requestcontext.UserID(ctx), recordID, req.Reason)
	if err != nil {
		h.fail(w, r, "school_deny", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (h *Handler) personaParam(w http.ResponseWriter, r *http.Request) (models.Persona, bool) {
	persona, err := models.ParsePersona(chi.URLParam(r, "persona"))
	if err != nil {
		h.fail(w, r, "persona", err)
		return "", false
	}
	if !personaAllowed(requestcontext.Role(r.Context()), persona) {
		h.fail(w, r, "persona", dErrors.New(dErrors.CodeForbidden, "persona "+persona.String()+" is not available to your account"))
		return "", false
	}
	return persona, true
}

func (h *Handler) recordParam(w http.ResponseWriter, r *http.Request) (id.VerificationID, bool) {
	recordID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "record_id", err)
		return id.VerificationID{}, false
	}
	return recordID, true
}

func (h *Handler) reviewParams(w http.ResponseWriter, r *http.Request) (id.VerificationID, *ReviewRequest, bool) {
	recordID, ok := h.recordParam(w, r)
	if !ok {
		return recordID, nil, false
	}
	if r.ContentLength == 0 {
		return recordID, &ReviewRequest{}, true
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	return recordID, req, ok
}

// personaAllowed maps account roles onto the personas they may verify as.
func personaAllowed(role id.Role, p models.Persona) bool {
	switch role {
	case id.RoleStudent:
		return p == models.PersonaStudent
	case id.RoleSponsor:
		return p.Type() == models.TypeSponsor
	case id.RoleSchool:
		return p == models.PersonaSchool
	}
	return false
}

func parseQueueFilter(r *http.Request) (models.QueueFilter, error) {
	q := r.URL.Query()
	var f models.QueueFilter
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = status
	}
	// "type" is accepted as an alias for personaType.
	raw := strings.TrimSpace(q.Get("personaType"))
	if raw == "" {
		raw = strings.TrimSpace(q.Get("type"))
	}
	if raw != "" {
		typ, persona, err := models.ParseRecordType(raw)
		if err != nil {
			return f, err
		}
		f.Type, f.Persona = typ, persona
	}
	f.Search = q.Get("search")
	var err error
	if f.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, dErrors.WithFields(dErrors.CodeBadRequest, name+" must be a positive integer", map[string]string{name: "must be a positive integer"})
	}
	return n, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if h.logger != nil && !dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.InfoContext(r.Context(), "verification request rejected",
			"op", op,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteErrorLogged(w, r, h.logger, err)
}
