// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/skillhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
//
// The schemas are a backstop, not the source of truth: the stores normalize
// and validate before every write, so a validator rejection means a bug, not
// bad user input.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Core collections this app uses
	ensure("users", usersSchema())
	ensure("collaborations", collaborationsSchema())
	ensure("roles", rolesSchema())
	ensure("challenges", challengesSchema())
	ensure("notifications", notificationsSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("login_records", nil)
	ensure("oauth_states", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// stringList accepts an array of strings. Several update paths write a
// normalized slice straight into $set, and a nil slice marshals as BSON
// null rather than [], so null has to stay legal.
func stringList() bson.M {
	return bson.M{
		"bsonType": bson.A{"array", "null"},
		"items":    bson.M{"bsonType": "string"},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status", "auth_method"},
			"properties": bson.M{
				"full_name":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci":  bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":         bson.M{"bsonType": "string", "minLength": 1},
				"password_hash": bson.M{"bsonType": "string"},
				"role":          bson.M{"enum": bson.A{models.RoleMember, models.RoleAdmin, models.RoleSuperAdmin}},
				"status":        bson.M{"enum": bson.A{models.UserActive, models.UserDisabled}},
				"auth_method":   bson.M{"enum": bson.A{models.AuthPassword, models.AuthGoogle}},
				"skills":        stringList(),
				"skills_ci":     stringList(),
				"badges":        stringList(),
				"xp":            bson.M{"bsonType": bson.A{"int", "long"}},
				"last_login_at": bson.M{"bsonType": "date"},
				"created_at":    bson.M{"bsonType": "date"},
				"updated_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func collaborationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "title_ci", "status", "owner_id", "created_at"},
			"properties": bson.M{
				"title":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"title_ci":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"description": bson.M{"bsonType": "string"},
				"status": bson.M{"enum": bson.A{
					models.CollabRecruiting, models.CollabInProgress, models.CollabCompleted, models.CollabAbandoned,
				}},
				"owner_id":             bson.M{"bsonType": "objectId"},
				"participants":         bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"role_count":           bson.M{"bsonType": bson.A{"int", "long"}},
				"filled_role_count":    bson.M{"bsonType": bson.A{"int", "long"}},
				"completed_role_count": bson.M{"bsonType": bson.A{"int", "long"}},
				"created_at":           bson.M{"bsonType": "date"},
				"updated_at":           bson.M{"bsonType": "date"},
			},
		},
	}
}

func rolesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"collaboration_id", "title", "status", "required_skills", "created_at"},
			"properties": bson.M{
				"collaboration_id": bson.M{"bsonType": "objectId"},
				"title":            bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"description":      bson.M{"bsonType": "string"},
				"required_skills": bson.M{
					"bsonType": "array",
					"minItems": 1,
					"items":    bson.M{"bsonType": "string"},
				},
				"preferred_skills": stringList(),
				"status": bson.M{"enum": bson.A{
					models.RoleOpen, models.RoleFilled, models.RoleCompleted, models.RoleAbandoned,
				}},
				"completion_status": bson.M{"enum": bson.A{models.CompletionPending}},
				"assignee_id":       bson.M{"bsonType": "objectId"},
				"application_count": bson.M{"bsonType": bson.A{"int", "long"}},
				"created_at":        bson.M{"bsonType": "date"},
				"updated_at":        bson.M{"bsonType": "date"},
			},
		},
	}
}

func challengesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "status", "type", "created_at"},
			"properties": bson.M{
				"title":        bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"description":  bson.M{"bsonType": "string"},
				"requirements": stringList(),
				"rewards": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"xp":    bson.M{"bsonType": bson.A{"int", "long"}},
						"badge": bson.M{"bsonType": "string"},
					},
				},
				"status": bson.M{"enum": bson.A{
					models.ChallengePending, models.ChallengeLive, models.ChallengeArchived,
				}},
				"type":         bson.M{"enum": bson.A{models.ChallengeWeekly, models.ChallengeMonthly}},
				"start_date":   bson.M{"bsonType": "date"},
				"end_date":     bson.M{"bsonType": "date"},
				"activated_at": bson.M{"bsonType": "date"},
				"archived_at":  bson.M{"bsonType": "date"},
				"activated_by": bson.M{"bsonType": "objectId"},
				"created_at":   bson.M{"bsonType": "date"},
				"updated_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func notificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "kind", "event", "created_at"},
			"properties": bson.M{
				"user_id": bson.M{"bsonType": "objectId"},
				"kind":    bson.M{"enum": bson.A{models.NotificationRoleEvent, models.NotificationChallengeEvent}},
				"event":   bson.M{"bsonType": "string", "minLength": 1},
				"read":    bson.M{"bsonType": "bool"},

				"collaboration_id":    bson.M{"bsonType": "objectId"},
				"collaboration_title": bson.M{"bsonType": "string"},
				"role_id":             bson.M{"bsonType": "objectId"},
				"role_title":          bson.M{"bsonType": "string"},

				"challenge_id":    bson.M{"bsonType": "objectId"},
				"challenge_title": bson.M{"bsonType": "string"},
				"challenge_type":  bson.M{"enum": bson.A{models.ChallengeWeekly, models.ChallengeMonthly}},

				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
