// internal/domain/models/collaboration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CollaborationStatus is derived from the collaboration's role set. The
// stored copy exists for list queries and is refreshed inside every
// transaction that mutates a role.
type CollaborationStatus string

const (
	CollabRecruiting CollaborationStatus = "RECRUITING"
	CollabInProgress CollaborationStatus = "IN_PROGRESS"
	CollabCompleted  CollaborationStatus = "COMPLETED"
	CollabAbandoned  CollaborationStatus = "ABANDONED"
)

// ValidCollaborationStatus reports whether s is a recognized status value.
func ValidCollaborationStatus(s CollaborationStatus) bool {
	switch s {
	case CollabRecruiting, CollabInProgress, CollabCompleted, CollabAbandoned:
		return true
	}
	return false
}

// Collaboration is a project recruiting a team through open roles.
//
// NOTE:
//   - RoleCount/FilledRoleCount/CompletedRoleCount are authoritative and are
//     mutated only inside the same transaction that mutates a role.
//     FilledRoleCount counts roles in FILLED or COMPLETED.
//   - Participants always contains the owner; assignees are added when a
//     role is filled. Collaborations are never physically deleted.
type Collaboration struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	TitleCI     string              `bson:"title_ci" json:"-"`
	Description string              `bson:"description" json:"description"`
	Status      CollaborationStatus `bson:"status" json:"status"`

	OwnerID      primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`

	RoleCount          int `bson:"role_count" json:"role_count"`
	FilledRoleCount    int `bson:"filled_role_count" json:"filled_role_count"`
	CompletedRoleCount int `bson:"completed_role_count" json:"completed_role_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the given user is on the team.
func (c *Collaboration) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
