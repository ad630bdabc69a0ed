// internal/app/store/collabs/collabstore.go

// Package collabstore persists collaborations and their roles. The two
// collections form one aggregate: the collaboration document carries
// authoritative role counters, so every write that changes a role's
// existence or status goes through a transaction that also maintains the
// counters and the derived collaboration status.
package collabstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/metrics"
	"github.com/dalemusser/skillhub/internal/app/system/normalize"
	"github.com/dalemusser/skillhub/internal/app/system/txn"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type Store struct {
	collabs *mongo.Collection
	roles   *mongo.Collection
	runner  *txn.Runner
}

func New(db *mongo.Database, runner *txn.Runner) *Store {
	return &Store{
		collabs: db.Collection("collaborations"),
		roles:   db.Collection("roles"),
		runner:  runner,
	}
}

// RoleInput is the caller-supplied shape of a new role.
type RoleInput struct {
	Title           string
	Description     string
	RequiredSkills  []string
	PreferredSkills []string
}

func (in RoleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("role title is required", nil)
	}
	if strings.TrimSpace(in.Description) == "" {
		return apperr.Validation("role description is required", nil)
	}
	if len(normalize.Skills(in.RequiredSkills)) == 0 {
		return apperr.Validation("role required skills are required", nil)
	}
	return nil
}

// roleDoc builds the stored form of a new OPEN role.
func (in RoleInput) roleDoc(collabID primitive.ObjectID, now time.Time) models.Role {
	return models.Role{
		ID:              primitive.NewObjectID(),
		CollaborationID: collabID,
		Title:           normalize.Name(in.Title),
		Description:     strings.TrimSpace(in.Description),
		RequiredSkills:  normalize.Skills(in.RequiredSkills),
		PreferredSkills: normalize.Skills(in.PreferredSkills),
		Status:          models.RoleOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// GetByID loads a collaboration.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Collaboration, error) {
	var c models.Collaboration
	if err := s.collabs.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("collaboration not found")
		}
		return nil, err
	}
	return &c, nil
}

// GetRole loads a role.
func (s *Store) GetRole(ctx context.Context, id primitive.ObjectID) (*models.Role, error) {
	var r models.Role
	if err := s.roles.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("role not found")
		}
		return nil, err
	}
	return &r, nil
}

// RolesFor returns a collaboration's roles in creation order.
func (s *Store) RolesFor(ctx context.Context, collabID primitive.ObjectID) ([]models.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.roles.Find(ctx, bson.M{"collaboration_id": collabID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RolesByAssignee returns the roles a user currently holds or has completed.
func (s *Store) RolesByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.roles.Find(ctx, bson.M{"assignee_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByOwner returns a user's own collaborations, most recently updated first.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Collaboration, error) {
	return s.list(ctx, bson.M{"owner_id": ownerID})
}

// ListByParticipant returns collaborations the user is on the team of,
// most recently updated first.
func (s *Store) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Collaboration, error) {
	return s.list(ctx, bson.M{"participants": userID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Collaboration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.collabs.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Collaboration
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// refreshStatus recomputes the derived collaboration status from the live
// role set and stores it together with updated_at. Must run inside the same
// transaction as the role write it follows.
func (s *Store) refreshStatus(ctx context.Context, collabID primitive.ObjectID, now time.Time) error {
	cur, err := s.roles.Find(ctx, bson.M{"collaboration_id": collabID},
		options.Find().SetProjection(bson.M{"status": 1}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	var roles []models.Role
	if err := cur.All(ctx, &roles); err != nil {
		return err
	}

	status := models.DeriveCollaborationStatus(roles)
	_, err = s.collabs.UpdateByID(ctx, collabID, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": now,
	}})
	return err
}

// wrapTxnErr converts store-level contention into the conflict error the
// API surfaces. Everything else passes through.
func wrapTxnErr(err error) error {
	if err == nil {
		return nil
	}
	if txn.IsConflict(err) {
		metrics.TransactionConflicts.Inc()
		return apperr.Conflict("the collaboration was modified concurrently", err)
	}
	return err
}

func foldTitle(title string) string {
	return text.Fold(normalize.Name(title))
}
