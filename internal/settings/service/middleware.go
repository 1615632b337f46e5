package service

import (
	"net/http"

	"idverify/internal/settings/models"
	"idverify/pkg/platform/httputil"
)

// SnapshotMiddleware pins the current policy on the request context.
func (s *Service) SnapshotMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.Snapshot(r.Context())
		if err != nil {
			httputil.WriteErrorLogged(w, r, s.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(models.WithSnapshot(r.Context(), snap)))
	})
}
