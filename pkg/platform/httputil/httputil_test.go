package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idverify/pkg/domain-errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal_error", body.Error)
		assert.Empty(t, body.Message)
	})

	t.Run("plain error is treated as internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("connection reset"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", decode(t, w).Error)
	})

	t.Run("bad request includes message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "bad_request", body.Error)
		assert.Equal(t, "invalid input", body.Message)
	})

	t.Run("validation error carries field details", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.WithFields(dErrors.CodeValidation, "profile incomplete", map[string]string{
			"identity.firstName": "required",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "required", body.Fields["identity.firstName"])
	})

	t.Run("wrapped domain error keeps its code", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := fmt.Errorf("service: %w", dErrors.New(dErrors.CodeNotFound, "record not found"))
		WriteError(w, err)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("cooldown sets Retry-After rounded up to seconds", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.WithRetryAfter(dErrors.CodeCooldownActive, "cooldown active", 90*time.Second+time.Millisecond))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "91", w.Header().Get("Retry-After"))
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:        http.StatusBadRequest,
		dErrors.CodeUnsupportedType:   http.StatusBadRequest,
		dErrors.CodeSizeLimitExceeded: http.StatusRequestEntityTooLarge,
		dErrors.CodeUnauthorized:      http.StatusUnauthorized,
		dErrors.CodeForbidden:         http.StatusForbidden,
		dErrors.CodeConflict:          http.StatusConflict,
		dErrors.CodeResubmissionLimit: http.StatusUnprocessableEntity,
		dErrors.CodeImmutableState:    http.StatusUnprocessableEntity,
		dErrors.Code("unknown"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), string(code))
	}
}
