package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	id "idverify/pkg/domain"
	"idverify/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

type AuthMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
	userID string
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.userID = uuid.NewString()
}

func (s *AuthMiddlewareSuite) serve(v JWTValidator, header string, next http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/identity-verification/status", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	RequireAuth(v, s.logger)(next).ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) TestRequireAuth() {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	s.Run("missing header is rejected", func() {
		w := s.serve(stubValidator{}, "", okHandler)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("non-bearer scheme is rejected", func() {
		w := s.serve(stubValidator{}, "Basic abc", okHandler)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("invalid token is rejected", func() {
		w := s.serve(stubValidator{err: errors.New("expired")}, "Bearer t", okHandler)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("unknown role is rejected", func() {
		w := s.serve(stubValidator{claims: &JWTClaims{UserID: s.userID, Role: "root"}}, "Bearer t", okHandler)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("valid token populates context", func() {
		var gotUser id.UserID
		var gotRole id.Role
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser = requestcontext.UserID(r.Context())
			gotRole = requestcontext.Role(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})
		w := s.serve(stubValidator{claims: &JWTClaims{UserID: s.userID, Role: "school"}}, "Bearer t", next)
		s.Equal(http.StatusNoContent, w.Code)
		s.Equal(s.userID, gotUser.String())
		s.Equal(id.RoleSchool, gotRole)
	})
}

func (s *AuthMiddlewareSuite) TestRequireRole() {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	mw := RequireRole(s.logger, id.RoleAdmin)

	s.Run("unauthenticated request gets 401", func() {
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("wrong role gets 403", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(requestcontext.WithUser(req.Context(), id.UserID(uuid.New()), id.RoleStudent))
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, req)
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("listed role passes", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(requestcontext.WithUser(req.Context(), id.UserID(uuid.New()), id.RoleAdmin))
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusNoContent, w.Code)
	})
}
