package testutil

import (
	"context"
	"net/http"

	"talenttrack/internal/platform/middleware"
)

// WithUser seeds the authenticated recruiter on the request context,
// simulating what the auth middleware does for authenticated requests.
func WithUser(req *http.Request, userID, role string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	}
	return req.WithContext(ctx)
}
