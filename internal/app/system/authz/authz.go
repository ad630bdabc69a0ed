// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/skillhub/internal/app/system/auth"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. This ensures callers can trust that
// ok=true means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsSuperAdmin reports whether the current request's user is a superadmin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "superadmin"
}

// IsAdmin reports whether the current request's user is an admin.
// Note: Superadmins are also considered admins for permission purposes.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == "admin" || role == "superadmin")
}

// IsAdminOnly reports whether the current request's user is specifically an admin (not superadmin).
func IsAdminOnly(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "admin"
}

// IsMember reports whether the current request's user is a member.
func IsMember(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "member"
}

// HasAnyRole reports whether the current request's user has any of the given roles.
// Returns false if no user is present (i.e., not signed in).
func HasAnyRole(r *http.Request, roles ...string) bool {
	cur, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if cur == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// Role returns the current user's role (lowercased) and whether a user is present.
func Role(r *http.Request) (string, bool) {
	role, _, _, ok := UserCtx(r)
	return role, ok
}

// IsActor reports whether the current request's user is the given user.
func IsActor(r *http.Request, userID primitive.ObjectID) bool {
	_, _, actorID, ok := UserCtx(r)
	return ok && actorID == userID
}

// CanManageCollaboration reports whether the current user may edit a
// collaboration and its roles. Admins and superadmins always can; otherwise
// only the owner.
func CanManageCollaboration(r *http.Request, ownerID primitive.ObjectID) bool {
	role, _, actorID, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == "admin" || role == "superadmin" {
		return true
	}
	return actorID == ownerID
}

// CanActOnAssignment reports whether the current user may act on a role
// assignment (request completion, abandon a filled role). Admins always
// can; otherwise only the assignee.
func CanActOnAssignment(r *http.Request, assigneeID *primitive.ObjectID) bool {
	role, _, actorID, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == "admin" || role == "superadmin" {
		return true
	}
	return assigneeID != nil && actorID == *assigneeID
}
