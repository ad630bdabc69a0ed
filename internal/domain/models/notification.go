// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds. Kind is the explicit discriminant for the payload
// fields below; consumers switch on it instead of sniffing field shapes.
const (
	NotificationRoleEvent      = "role_event"
	NotificationChallengeEvent = "challenge_event"
)

// Events carried by role notifications.
const (
	RoleEventFilled    = "filled"
	RoleEventCompleted = "completed"
	RoleEventAbandoned = "abandoned"
)

// Event carried by challenge notifications.
const ChallengeEventLive = "live"

// Notification is a per-user inbox entry. Only the fields for its Kind are
// populated.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Kind   string             `bson:"kind" json:"kind"`
	Event  string             `bson:"event" json:"event"`
	Read   bool               `bson:"read" json:"read"`

	// role_event payload
	CollaborationID    *primitive.ObjectID `bson:"collaboration_id,omitempty" json:"collaboration_id,omitempty"`
	CollaborationTitle string              `bson:"collaboration_title,omitempty" json:"collaboration_title,omitempty"`
	RoleID             *primitive.ObjectID `bson:"role_id,omitempty" json:"role_id,omitempty"`
	RoleTitle          string              `bson:"role_title,omitempty" json:"role_title,omitempty"`

	// challenge_event payload
	ChallengeID    *primitive.ObjectID `bson:"challenge_id,omitempty" json:"challenge_id,omitempty"`
	ChallengeTitle string              `bson:"challenge_title,omitempty" json:"challenge_title,omitempty"`
	ChallengeType  ChallengeType       `bson:"challenge_type,omitempty" json:"challenge_type,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NewRoleNotification builds a role_event notification for one recipient.
func NewRoleNotification(userID primitive.ObjectID, event string, collab *Collaboration, role *Role) Notification {
	return Notification{
		UserID:             userID,
		Kind:               NotificationRoleEvent,
		Event:              event,
		CollaborationID:    &collab.ID,
		CollaborationTitle: collab.Title,
		RoleID:             &role.ID,
		RoleTitle:          role.Title,
		CreatedAt:          time.Now().UTC(),
	}
}

// NewChallengeNotification builds a challenge_event notification.
func NewChallengeNotification(userID primitive.ObjectID, event string, ch *Challenge) Notification {
	return Notification{
		UserID:         userID,
		Kind:           NotificationChallengeEvent,
		Event:          event,
		ChallengeID:    &ch.ID,
		ChallengeTitle: ch.Title,
		ChallengeType:  ch.Type,
		CreatedAt:      time.Now().UTC(),
	}
}
