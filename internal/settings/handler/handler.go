package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idverify/internal/settings/models"
	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
	"idverify/pkg/platform/httputil"
	authmw "idverify/pkg/platform/middleware/auth"
	"idverify/pkg/requestcontext"
)

type Service interface {
	Current(ctx context.Context) (models.Snapshot, error)
	AddDocumentType(ctx context.Context, name string) (models.Snapshot, error)
	RenameDocumentType(ctx context.Context, from, to string) (models.Snapshot, error)
	RemoveDocumentType(ctx context.Context, name string) (models.Snapshot, error)
	ReplaceDocumentTypes(ctx context.Context, names []string) (models.Snapshot, error)
	SetMaxFileSize(ctx context.Context, bytes int64) (models.Snapshot, error)
	ResetMaxFileSize(ctx context.Context) (models.Snapshot, error)
	UpdatePolicy(ctx context.Context, cooldown *time.Duration, maxResubmissions *int) (models.Snapshot, error)
}

// Handler serves the admin-managed verification settings. Any authenticated
// user may read them; only admins change them.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	admin := r.With(authmw.RequireRole(h.logger, id.RoleAdmin))

	r.Get("/credentials/types", h.HandleListDocumentTypes)
	admin.Post("/credentials/types", h.HandleAddDocumentType)
	admin.Put("/credentials/types", h.HandleReplaceDocumentTypes)
	admin.Put("/credentials/types/{name}", h.HandleRenameDocumentType)
	admin.Delete("/credentials/types/{name}", h.HandleRemoveDocumentType)

	r.Get("/credentials/file-size", h.HandleGetFileSize)
	admin.Post("/credentials/file-size", h.HandleSetFileSize)
	admin.Put("/credentials/file-size", h.HandleSetFileSize)
	admin.Delete("/credentials/file-size", h.HandleResetFileSize)

	r.Get("/identity-verification/policy", h.HandleGetPolicy)
	admin.Put("/identity-verification/policy", h.HandleUpdatePolicy)
}

func (h *Handler) HandleListDocumentTypes(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Current(r.Context())
	h.respond(w, r, snap, err, http.StatusOK, toDocumentTypes)
}

func (h *Handler) HandleAddDocumentType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DocumentTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.AddDocumentType(ctx, req.Name)
	h.respond(w, r, snap, err, http.StatusCreated, toDocumentTypes)
}

func (h *Handler) HandleReplaceDocumentTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DocumentTypesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.ReplaceDocumentTypes(ctx, req.Types)
	h.respond(w, r, snap, err, http.StatusOK, toDocumentTypes)
}

func (h *Handler) HandleRenameDocumentType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DocumentTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.RenameDocumentType(ctx, chi.URLParam(r, "name"), req.Name)
	h.respond(w, r, snap, err, http.StatusOK, toDocumentTypes)
}

func (h *Handler) HandleRemoveDocumentType(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.RemoveDocumentType(r.Context(), chi.URLParam(r, "name"))
	h.respond(w, r, snap, err, http.StatusOK, toDocumentTypes)
}

func (h *Handler) HandleGetFileSize(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Current(r.Context())
	h.respond(w, r, snap, err, http.StatusOK, toFileSize)
}

func (h *Handler) HandleSetFileSize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[FileSizeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.SetMaxFileSize(ctx, *req.MaxFileSizeBytes)
	h.respond(w, r, snap, err, http.StatusOK, toFileSize)
}

func (h *Handler) HandleResetFileSize(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.ResetMaxFileSize(r.Context())
	h.respond(w, r, snap, err, http.StatusOK, toFileSize)
}

func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Current(r.Context())
	h.respond(w, r, snap, err, http.StatusOK, toPolicy)
}

func (h *Handler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PolicyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.service.UpdatePolicy(ctx, req.Cooldown(), req.MaxResubmissions)
	h.respond(w, r, snap, err, http.StatusOK, toPolicy)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, snap models.Snapshot, err error, status int, render func(models.Snapshot) any) {
	if err != nil {
		if h.logger != nil && !dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.InfoContext(r.Context(), "settings request rejected",
				"request_id", requestcontext.RequestID(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
		}
		httputil.WriteErrorLogged(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, status, render(snap))
}
