// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"net/http"
)

// Session value keys. Only the authenticated flag and the user ID are
// stored in the cookie; everything else about the user is fetched fresh
// on each request so role and status changes take effect immediately.
const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the request-scoped identity injected into r.Context()
// by LoadSessionUser.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user from the request context, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a SessionUser into the request context. Intended
// for handler tests; production requests go through LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}
