// internal/domain/models/loginrecord.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginRecord captures a single successful login event.
// CreatedAt is indexed for recent-activity views in the admin audit surface.
type LoginRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Method    string             `bson:"method"` // password | google
	IP        string             `bson:"ip"`
	UserAgent string             `bson:"user_agent,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}
