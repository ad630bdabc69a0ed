// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. Admins and superadmins may manage any collaboration and the
// challenge catalog; members own what they create.
const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Account statuses. Disabled users keep their data but cannot sign in.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// ValidUserStatus reports whether s is a recognized account status.
func ValidUserStatus(s string) bool {
	return s == UserActive || s == UserDisabled
}

// User represents a marketplace participant.
//
// NOTE:
//   - Skills are embedded (small, user-curated list); SkillsCI carries the
//     folded forms used for skill search.
//   - XP and badges are written by the challenge subsystem.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"` // member | admin | superadmin
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	Skills   []string `bson:"skills,omitempty" json:"skills,omitempty"`
	SkillsCI []string `bson:"skills_ci,omitempty" json:"-"`
	XP       int      `bson:"xp" json:"xp"`
	Badges   []string `bson:"badges,omitempty" json:"badges,omitempty"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}
