// internal/app/store/collabs/lifecycle.go
package collabstore

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/metrics"
	"github.com/dalemusser/skillhub/internal/app/system/normalize"
	"github.com/dalemusser/skillhub/internal/app/system/roledraft"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// CreateInput is the payload for creating a collaboration with its initial
// role set.
type CreateInput struct {
	Title       string
	Description string
	OwnerID     primitive.ObjectID
	Roles       []RoleInput
}

// CreateWithRoles creates a collaboration and all of its roles in one
// transaction. The collaboration starts RECRUITING with counters matching
// the role set; either everything is persisted or nothing is.
func (s *Store) CreateWithRoles(ctx context.Context, in CreateInput) (*models.Collaboration, []models.Role, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, nil, apperr.Validation("title is required", nil)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, nil, apperr.Validation("description is required", nil)
	}
	for _, r := range in.Roles {
		if err := r.validate(); err != nil {
			return nil, nil, err
		}
	}

	now := time.Now().UTC()
	collab := models.Collaboration{
		ID:           primitive.NewObjectID(),
		Title:        normalize.Name(in.Title),
		TitleCI:      foldTitle(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Status:       models.CollabRecruiting,
		OwnerID:      in.OwnerID,
		Participants: []primitive.ObjectID{in.OwnerID},
		RoleCount:    len(in.Roles),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	roles := make([]models.Role, len(in.Roles))
	for i, r := range in.Roles {
		roles[i] = r.roleDoc(collab.ID, now)
	}

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		if _, err := s.collabs.InsertOne(ctx, collab); err != nil {
			return err
		}
		if len(roles) == 0 {
			return nil
		}
		docs := make([]interface{}, len(roles))
		for i := range roles {
			docs[i] = roles[i]
		}
		_, err := s.roles.InsertMany(ctx, docs)
		return err
	})
	if err != nil {
		return nil, nil, wrapTxnErr(err)
	}

	metrics.CollaborationsCreated.Inc()
	return &collab, roles, nil
}

// UpdateRoleInput is one role in an update payload. A temp ID (or no ID)
// marks a role that does not exist yet and will be created; a durable ID
// must belong to one of the collaboration's persisted roles, whose editable
// fields are overwritten.
type UpdateRoleInput struct {
	ID string
	RoleInput
}

// UpdateInput is the payload for updating a collaboration. Roles is the
// complete submitted role set, not a delta: persisted roles missing from
// it are deleted.
type UpdateInput struct {
	Title       string
	Description string
	Roles       []UpdateRoleInput
}

// UpdateResult reports what an update persisted.
type UpdateResult struct {
	Collaboration  *models.Collaboration
	CreatedRoles   []models.Role
	DeletedRoleIDs []primitive.ObjectID
	// IDMap maps each temp ID from the payload to the durable ID it was
	// assigned, for reconciling optimistic entries.
	IDMap map[string]string
}

// Update applies a collaboration update in one transaction. The title and
// description change, and the submitted role set is reconciled against the
// persisted one: temp entries are inserted as new OPEN roles, durable
// entries have their editable fields overwritten, and persisted roles
// missing from the submission are deleted. All three counters and the
// derived status are recomputed from the resulting role set before the
// transaction commits, so a concurrent reader never sees counters that
// disagree with the roles.
func (s *Store) Update(ctx context.Context, collabID primitive.ObjectID, in UpdateInput) (*UpdateResult, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title is required", nil)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.Validation("description is required", nil)
	}
	for _, r := range in.Roles {
		if err := r.validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	res := &UpdateResult{IDMap: make(map[string]string)}

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		// Reset per attempt; the driver may retry the callback.
		res.CreatedRoles = res.CreatedRoles[:0]
		res.DeletedRoleIDs = res.DeletedRoleIDs[:0]
		for k := range res.IDMap {
			delete(res.IDMap, k)
		}

		if err := s.collabs.FindOne(ctx, bson.M{"_id": collabID},
			options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.NotFound("collaboration not found")
			}
			return err
		}

		existing, err := s.RolesFor(ctx, collabID)
		if err != nil {
			return err
		}
		byID := make(map[primitive.ObjectID]*models.Role, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		// Partition the submission: temp entries become inserts, durable
		// entries become field updates. Unknown durable IDs are rejected
		// so a stale client cannot resurrect a deleted role.
		var inserts []models.Role
		submitted := make(map[primitive.ObjectID]bool, len(in.Roles))
		for _, r := range in.Roles {
			if r.ID == "" || roledraft.IsTempID(r.ID) {
				role := r.RoleInput.roleDoc(collabID, now)
				inserts = append(inserts, role)
				if r.ID != "" {
					res.IDMap[r.ID] = role.ID.Hex()
				}
				continue
			}
			oid, err := primitive.ObjectIDFromHex(r.ID)
			if err != nil {
				return apperr.InvalidArgument("invalid role id " + r.ID)
			}
			kept, ok := byID[oid]
			if !ok {
				return apperr.NotFound("role " + r.ID + " not found in collaboration")
			}
			submitted[oid] = true

			kept.Title = normalize.Name(r.Title)
			kept.Description = strings.TrimSpace(r.Description)
			kept.RequiredSkills = normalize.Skills(r.RequiredSkills)
			kept.PreferredSkills = normalize.Skills(r.PreferredSkills)
			kept.UpdatedAt = now
			if _, err := s.roles.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
				"title":            kept.Title,
				"description":      kept.Description,
				"required_skills":  kept.RequiredSkills,
				"preferred_skills": kept.PreferredSkills,
				"updated_at":       now,
			}}); err != nil {
				return err
			}
		}

		final := make([]models.Role, 0, len(existing)+len(inserts))
		for i := range existing {
			if submitted[existing[i].ID] {
				final = append(final, existing[i])
				continue
			}
			res.DeletedRoleIDs = append(res.DeletedRoleIDs, existing[i].ID)
		}
		if len(res.DeletedRoleIDs) > 0 {
			if _, err := s.roles.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": res.DeletedRoleIDs}}); err != nil {
				return err
			}
		}

		if len(inserts) > 0 {
			docs := make([]interface{}, len(inserts))
			for i := range inserts {
				docs[i] = inserts[i]
			}
			if _, err := s.roles.InsertMany(ctx, docs); err != nil {
				return err
			}
			res.CreatedRoles = append(res.CreatedRoles, inserts...)
			final = append(final, inserts...)
		}

		counts := models.CountRoleStatuses(final)
		if _, err := s.collabs.UpdateByID(ctx, collabID, bson.M{"$set": bson.M{
			"title":                normalize.Name(in.Title),
			"title_ci":             foldTitle(in.Title),
			"description":          strings.TrimSpace(in.Description),
			"role_count":           counts.Total,
			"filled_role_count":    counts.Filled,
			"completed_role_count": counts.Completed,
			"status":               counts.Status(),
			"updated_at":           now,
		}}); err != nil {
			return err
		}

		updated, err := s.GetByID(ctx, collabID)
		if err != nil {
			return err
		}
		res.Collaboration = updated
		return nil
	})
	if err != nil {
		return nil, wrapTxnErr(err)
	}
	return res, nil
}

// CreateRoleHierarchy persists a batch of new roles under an existing
// collaboration in one transaction, raising role_count to match. The
// returned ObjectID is the durable ID of the first created role, which is
// what single-role additions key their reconciliation on.
func (s *Store) CreateRoleHierarchy(ctx context.Context, collabID primitive.ObjectID, inputs []RoleInput) (primitive.ObjectID, []models.Role, error) {
	if len(inputs) == 0 {
		return primitive.NilObjectID, nil, apperr.Validation("at least one role is required", nil)
	}
	for _, r := range inputs {
		if err := r.validate(); err != nil {
			return primitive.NilObjectID, nil, err
		}
	}

	now := time.Now().UTC()
	var roles []models.Role

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		roles = roles[:0]

		if err := s.collabs.FindOne(ctx, bson.M{"_id": collabID},
			options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				return apperr.NotFound("collaboration not found")
			}
			return err
		}

		docs := make([]interface{}, len(inputs))
		for i, in := range inputs {
			role := in.roleDoc(collabID, now)
			docs[i] = role
			roles = append(roles, role)
		}
		if _, err := s.roles.InsertMany(ctx, docs); err != nil {
			return err
		}

		if _, err := s.collabs.UpdateByID(ctx, collabID, bson.M{
			"$inc": bson.M{"role_count": len(inputs)},
		}); err != nil {
			return err
		}
		return s.refreshStatus(ctx, collabID, now)
	})
	if err != nil {
		return primitive.NilObjectID, nil, wrapTxnErr(err)
	}
	return roles[0].ID, roles, nil
}

// RoleFields is the editable field set of an existing role. Status,
// assignee, and counters are out of reach here; those change only through
// the transition operations.
type RoleFields struct {
	Title           string
	Description     string
	RequiredSkills  []string
	PreferredSkills []string
}

// ModifyRole updates a role's descriptive fields in place. This is a direct
// single-document write; no transaction is needed because no counter or
// status depends on these fields.
func (s *Store) ModifyRole(ctx context.Context, roleID primitive.ObjectID, f RoleFields) error {
	in := RoleInput(f)
	if err := in.validate(); err != nil {
		return err
	}

	res, err := s.roles.UpdateByID(ctx, roleID, bson.M{"$set": bson.M{
		"title":            normalize.Name(f.Title),
		"description":      strings.TrimSpace(f.Description),
		"required_skills":  normalize.Skills(f.RequiredSkills),
		"preferred_skills": normalize.Skills(f.PreferredSkills),
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("role not found")
	}
	return nil
}

// DeleteRole removes a role and settles the parent's counters in the same
// transaction: role_count always drops by one, filled_role_count drops when
// the role was FILLED or COMPLETED, completed_role_count when it was
// COMPLETED. The derived status is refreshed afterward.
func (s *Store) DeleteRole(ctx context.Context, roleID primitive.ObjectID) error {
	now := time.Now().UTC()

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, roleID)
		if err != nil {
			return err
		}

		if _, err := s.roles.DeleteOne(ctx, bson.M{"_id": roleID}); err != nil {
			return err
		}

		inc := bson.M{"role_count": -1}
		switch role.Status {
		case models.RoleFilled:
			inc["filled_role_count"] = -1
		case models.RoleCompleted:
			inc["filled_role_count"] = -1
			inc["completed_role_count"] = -1
		}
		if _, err := s.collabs.UpdateByID(ctx, role.CollaborationID, bson.M{"$inc": inc}); err != nil {
			return err
		}
		return s.refreshStatus(ctx, role.CollaborationID, now)
	})
	return wrapTxnErr(err)
}
