// internal/app/store/challenges/challengestore.go

// Package challengestore persists gamified challenges and the status moves
// of their pending → live → archived lifecycle. Generation templates and the
// jobs that drive the cadence live in system/tasks; this package only talks
// to the collection.
package challengestore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/metrics"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// CacheScope is the version-key scope under which challenge list responses
// are cached. Every sweep and manual activation bumps it.
const CacheScope = "challenges"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("challenges")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Challenge, error) {
	var ch models.Challenge
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("challenge not found")
		}
		return nil, err
	}
	return &ch, nil
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Status models.ChallengeStatus
	Type   models.ChallengeType
	Limit  int64
}

// List returns challenges newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Challenge, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Challenge
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLive returns the challenges members can currently take on, soonest
// ending first.
func (s *Store) ListLive(ctx context.Context) ([]models.Challenge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "end_date", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": models.ChallengeLive}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Challenge
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertBatch inserts freshly generated pending challenges.
func (s *Store) InsertBatch(ctx context.Context, challenges []models.Challenge) (int, error) {
	if len(challenges) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(challenges))
	for i := range challenges {
		if challenges[i].ID.IsZero() {
			challenges[i].ID = primitive.NewObjectID()
		}
		challenges[i].Status = models.ChallengePending
		challenges[i].CreatedAt = now
		challenges[i].UpdatedAt = now
		docs[i] = challenges[i]
	}

	res, err := s.c.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	for _, ch := range challenges {
		metrics.ChallengesGenerated.WithLabelValues(string(ch.Type)).Inc()
	}
	return len(res.InsertedIDs), nil
}

// ArchivePendingByType retires every pending challenge of the given cadence.
// The weekly and monthly generators call this before inserting a fresh set.
func (s *Store) ArchivePendingByType(ctx context.Context, ctype models.ChallengeType, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.ChallengePending, "type": ctype},
		bson.M{"$set": bson.M{
			"status":      models.ChallengeArchived,
			"archived_at": now,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount > 0 {
		metrics.ChallengesArchived.WithLabelValues(string(ctype), "superseded").Add(float64(res.ModifiedCount))
	}
	return res.ModifiedCount, nil
}

// ArchiveExpiredLive retires live challenges whose end date has passed.
func (s *Store) ArchiveExpiredLive(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, ctype := range []models.ChallengeType{models.ChallengeWeekly, models.ChallengeMonthly} {
		res, err := s.c.UpdateMany(ctx,
			bson.M{
				"status":   models.ChallengeLive,
				"type":     ctype,
				"end_date": bson.M{"$lte": now},
			},
			bson.M{"$set": bson.M{
				"status":      models.ChallengeArchived,
				"archived_at": now,
				"updated_at":  now,
			}},
		)
		if err != nil {
			return total, err
		}
		if res.ModifiedCount > 0 {
			metrics.ChallengesArchived.WithLabelValues(string(ctype), "expired").Add(float64(res.ModifiedCount))
		}
		total += res.ModifiedCount
	}
	return total, nil
}

// ActivateAllPending moves every pending challenge to live. All challenges
// activated in one sweep share the same start time; the end date is the
// cadence window from that moment (7 days weekly, 1 calendar month monthly),
// time of day preserved.
func (s *Store) ActivateAllPending(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, ctype := range []models.ChallengeType{models.ChallengeWeekly, models.ChallengeMonthly} {
		res, err := s.c.UpdateMany(ctx,
			bson.M{"status": models.ChallengePending, "type": ctype},
			bson.M{"$set": bson.M{
				"status":       models.ChallengeLive,
				"start_date":   now,
				"end_date":     models.LiveWindow(ctype, now),
				"activated_at": now,
				"updated_at":   now,
			}},
		)
		if err != nil {
			return total, err
		}
		if res.ModifiedCount > 0 {
			metrics.ChallengesActivated.WithLabelValues(string(ctype), "scheduled").Add(float64(res.ModifiedCount))
		}
		total += res.ModifiedCount
	}
	return total, nil
}

// Activate moves a single pending challenge to live on an admin's say-so.
// Returns failed-precondition when the challenge exists but is not pending.
func (s *Store) Activate(ctx context.Context, id primitive.ObjectID, activatedBy primitive.ObjectID, now time.Time) (*models.Challenge, error) {
	ch, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch.Status != models.ChallengePending {
		return nil, apperr.FailedPrecondition("challenge is not pending")
	}

	// Status guard in the filter so a concurrent sweep can't double-activate.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ChallengePending},
		bson.M{"$set": bson.M{
			"status":       models.ChallengeLive,
			"start_date":   now,
			"end_date":     models.LiveWindow(ch.Type, now),
			"activated_at": now,
			"activated_by": activatedBy,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, apperr.FailedPrecondition("challenge is not pending")
	}

	metrics.ChallengesActivated.WithLabelValues(string(ch.Type), "manual").Inc()
	return s.GetByID(ctx, id)
}

// ActiveCountsByType returns how many live-or-pending challenges exist per
// cadence. The hourly sweep uses this to decide which types to regenerate.
func (s *Store) ActiveCountsByType(ctx context.Context) (map[models.ChallengeType]int64, error) {
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"status": bson.M{"$in": []models.ChallengeStatus{
			models.ChallengePending, models.ChallengeLive,
		}}}},
		{"$group": bson.M{"_id": "$type", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := map[models.ChallengeType]int64{
		models.ChallengeWeekly:  0,
		models.ChallengeMonthly: 0,
	}
	for cur.Next(ctx) {
		var row struct {
			Type models.ChallengeType `bson:"_id"`
			N    int64                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Type] = row.N
	}
	return counts, cur.Err()
}

// CountsByStatus returns challenge totals per lifecycle state for the admin
// dashboard.
func (s *Store) CountsByStatus(ctx context.Context) (map[models.ChallengeStatus]int64, error) {
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[models.ChallengeStatus]int64)
	for cur.Next(ctx) {
		var row struct {
			Status models.ChallengeStatus `bson:"_id"`
			N      int64                  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.N
	}
	return counts, cur.Err()
}
