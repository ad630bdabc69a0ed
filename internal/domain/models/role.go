// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleStatus is the lifecycle state of a collaboration role.
//
// A role starts OPEN. FILLED is reached when someone takes the role,
// COMPLETED only from FILLED, and ABANDONED from OPEN or FILLED.
// COMPLETED and ABANDONED are terminal.
type RoleStatus string

const (
	RoleOpen      RoleStatus = "OPEN"
	RoleFilled    RoleStatus = "FILLED"
	RoleCompleted RoleStatus = "COMPLETED"
	RoleAbandoned RoleStatus = "ABANDONED"
)

// CompletionPending marks a FILLED role whose completion request is awaiting
// the owner's confirmation.
const CompletionPending = "PENDING"

// Role is a position on a collaboration's team.
type Role struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CollaborationID primitive.ObjectID `bson:"collaboration_id" json:"collaboration_id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description" json:"description"`
	RequiredSkills  []string           `bson:"required_skills" json:"required_skills"`
	PreferredSkills []string           `bson:"preferred_skills,omitempty" json:"preferred_skills,omitempty"`

	Status           RoleStatus          `bson:"status" json:"status"`
	CompletionStatus string              `bson:"completion_status,omitempty" json:"completion_status,omitempty"`
	AssigneeID       *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	ApplicationCount int                 `bson:"application_count" json:"application_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidRoleStatus reports whether s is one of the four defined states.
func ValidRoleStatus(s RoleStatus) bool {
	switch s {
	case RoleOpen, RoleFilled, RoleCompleted, RoleAbandoned:
		return true
	}
	return false
}

// CanTransitionRole reports whether a role may move from one status to
// another. Terminal states admit no transitions.
func CanTransitionRole(from, to RoleStatus) bool {
	switch from {
	case RoleOpen:
		return to == RoleFilled || to == RoleAbandoned
	case RoleFilled:
		return to == RoleCompleted || to == RoleAbandoned
	}
	return false
}

// IsTerminalRoleStatus reports whether no further transition is defined.
func IsTerminalRoleStatus(s RoleStatus) bool {
	return s == RoleCompleted || s == RoleAbandoned
}
