// internal/app/store/collabs/transitions.go
package collabstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/metrics"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// FillRole assigns an open role to a user. The transaction moves the role to
// FILLED, raises filled_role_count, adds the assignee to the participants,
// and refreshes the derived status.
func (s *Store) FillRole(ctx context.Context, roleID, assigneeID primitive.ObjectID) (*models.Role, error) {
	now := time.Now().UTC()
	var filled models.Role

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !models.CanTransitionRole(role.Status, models.RoleFilled) {
			return apperr.FailedPrecondition("role is not open")
		}

		if _, err := s.roles.UpdateByID(ctx, roleID, bson.M{
			"$set": bson.M{
				"status":      models.RoleFilled,
				"assignee_id": assigneeID,
				"updated_at":  now,
			},
			"$unset": bson.M{"completion_status": ""},
		}); err != nil {
			return err
		}

		if _, err := s.collabs.UpdateByID(ctx, role.CollaborationID, bson.M{
			"$inc":      bson.M{"filled_role_count": 1},
			"$addToSet": bson.M{"participants": assigneeID},
		}); err != nil {
			return err
		}
		if err := s.refreshStatus(ctx, role.CollaborationID, now); err != nil {
			return err
		}

		filled = *role
		filled.Status = models.RoleFilled
		filled.AssigneeID = &assigneeID
		filled.CompletionStatus = ""
		filled.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrapTxnErr(err)
	}

	metrics.RoleTransitions.WithLabelValues(string(models.RoleOpen), string(models.RoleFilled)).Inc()
	return &filled, nil
}

// RequestCompletion marks a filled role as awaiting the owner's completion
// confirmation. A single-document write: the pending marker affects no
// counter and no derived status.
func (s *Store) RequestCompletion(ctx context.Context, roleID primitive.ObjectID) (*models.Role, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.Status != models.RoleFilled {
		return nil, apperr.FailedPrecondition("only a filled role can request completion")
	}
	if role.CompletionStatus == models.CompletionPending {
		return nil, apperr.FailedPrecondition("completion already requested")
	}

	now := time.Now().UTC()
	if _, err := s.roles.UpdateByID(ctx, roleID, bson.M{"$set": bson.M{
		"completion_status": models.CompletionPending,
		"updated_at":        now,
	}}); err != nil {
		return nil, err
	}

	role.CompletionStatus = models.CompletionPending
	role.UpdatedAt = now
	return role, nil
}

// CancelCompletionRequest clears a pending completion marker, returning the
// role to plain FILLED. Used when the owner declines the request.
func (s *Store) CancelCompletionRequest(ctx context.Context, roleID primitive.ObjectID) error {
	res, err := s.roles.UpdateOne(ctx,
		bson.M{"_id": roleID, "completion_status": models.CompletionPending},
		bson.M{
			"$set":   bson.M{"updated_at": time.Now().UTC()},
			"$unset": bson.M{"completion_status": ""},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("no pending completion request")
	}
	return nil
}

// CompleteRole moves a filled role to COMPLETED, raising
// completed_role_count. filled_role_count is untouched: it counts FILLED
// and COMPLETED together.
func (s *Store) CompleteRole(ctx context.Context, roleID primitive.ObjectID) (*models.Role, error) {
	now := time.Now().UTC()
	var completed models.Role

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !models.CanTransitionRole(role.Status, models.RoleCompleted) {
			return apperr.FailedPrecondition("only a filled role can be completed")
		}

		if _, err := s.roles.UpdateByID(ctx, roleID, bson.M{
			"$set": bson.M{
				"status":     models.RoleCompleted,
				"updated_at": now,
			},
			"$unset": bson.M{"completion_status": ""},
		}); err != nil {
			return err
		}

		if _, err := s.collabs.UpdateByID(ctx, role.CollaborationID, bson.M{
			"$inc": bson.M{"completed_role_count": 1},
		}); err != nil {
			return err
		}
		if err := s.refreshStatus(ctx, role.CollaborationID, now); err != nil {
			return err
		}

		completed = *role
		completed.Status = models.RoleCompleted
		completed.CompletionStatus = ""
		completed.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrapTxnErr(err)
	}

	metrics.RoleTransitions.WithLabelValues(string(models.RoleFilled), string(models.RoleCompleted)).Inc()
	return &completed, nil
}

// AbandonRole moves an open or filled role to ABANDONED. Leaving FILLED
// lowers filled_role_count and detaches the assignee; the assignee stays a
// participant of the collaboration.
func (s *Store) AbandonRole(ctx context.Context, roleID primitive.ObjectID) (*models.Role, error) {
	now := time.Now().UTC()
	var abandoned models.Role
	var from models.RoleStatus

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !models.CanTransitionRole(role.Status, models.RoleAbandoned) {
			return apperr.FailedPrecondition("role can no longer be abandoned")
		}
		from = role.Status

		if _, err := s.roles.UpdateByID(ctx, roleID, bson.M{
			"$set": bson.M{
				"status":     models.RoleAbandoned,
				"updated_at": now,
			},
			"$unset": bson.M{
				"assignee_id":       "",
				"completion_status": "",
			},
		}); err != nil {
			return err
		}

		if role.Status == models.RoleFilled {
			if _, err := s.collabs.UpdateByID(ctx, role.CollaborationID, bson.M{
				"$inc": bson.M{"filled_role_count": -1},
			}); err != nil {
				return err
			}
		}
		if err := s.refreshStatus(ctx, role.CollaborationID, now); err != nil {
			return err
		}

		abandoned = *role
		abandoned.Status = models.RoleAbandoned
		abandoned.AssigneeID = nil
		abandoned.CompletionStatus = ""
		abandoned.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrapTxnErr(err)
	}

	metrics.RoleTransitions.WithLabelValues(string(from), string(models.RoleAbandoned)).Inc()
	return &abandoned, nil
}
