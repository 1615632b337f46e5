package testutil

import (
	"context"
	"net/http"

	id "idverify/pkg/domain"
	"idverify/pkg/requestcontext"
)

// WithUser adds a user ID and role to the request context, the way the auth
// middleware does for authenticated requests. Invalid IDs are silently ignored.
func WithUser(req *http.Request, userID string, role id.Role) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUser(req.Context(), parsed, role))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
