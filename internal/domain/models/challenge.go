// internal/domain/models/challenge.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Challenge lifecycle: pending → live → archived. Archived is terminal.
type ChallengeStatus string

const (
	ChallengePending  ChallengeStatus = "pending"
	ChallengeLive     ChallengeStatus = "live"
	ChallengeArchived ChallengeStatus = "archived"
)

// Challenge cadence types.
type ChallengeType string

const (
	ChallengeWeekly  ChallengeType = "weekly"
	ChallengeMonthly ChallengeType = "monthly"
)

// ChallengeRewards is what a participant earns on completion.
type ChallengeRewards struct {
	XP    int    `bson:"xp" json:"xp"`
	Badge string `bson:"badge" json:"badge"`
}

// Challenge is a gamified prompt generated on a weekly or monthly cadence.
//
// StartDate/EndDate are set at activation; a live challenge runs 7 days
// (weekly) or 1 month (monthly) from the moment it went live.
type Challenge struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Requirements []string           `bson:"requirements" json:"requirements"`
	Rewards      ChallengeRewards   `bson:"rewards" json:"rewards"`

	Status ChallengeStatus `bson:"status" json:"status"`
	Type   ChallengeType   `bson:"type" json:"type"`

	StartDate   *time.Time          `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate     *time.Time          `bson:"end_date,omitempty" json:"end_date,omitempty"`
	ActivatedAt *time.Time          `bson:"activated_at,omitempty" json:"activated_at,omitempty"`
	ArchivedAt  *time.Time          `bson:"archived_at,omitempty" json:"archived_at,omitempty"`
	ActivatedBy *primitive.ObjectID `bson:"activated_by,omitempty" json:"activated_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidChallengeType reports whether t is a known cadence.
func ValidChallengeType(t ChallengeType) bool {
	return t == ChallengeWeekly || t == ChallengeMonthly
}

// LiveWindow returns the end date for a challenge activated at the given
// time: +7 days for weekly, +1 calendar month for monthly. Day-granularity
// arithmetic; the time of day is preserved.
func LiveWindow(t ChallengeType, activatedAt time.Time) time.Time {
	if t == ChallengeMonthly {
		return activatedAt.AddDate(0, 1, 0)
	}
	return activatedAt.AddDate(0, 0, 7)
}
