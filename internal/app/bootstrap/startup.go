// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/normalize"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeout overrides applied from environment", zap.Int("count", n))
	}

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return err
		}
	}

	return nil
}

// ensureSuperAdmin promotes the configured account to superadmin, creating
// it when it does not exist yet. A created account has no password; the
// owner signs in with Google using the same address.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	db := deps.SkillHubMongoDatabase
	users := userstore.New(db)
	email = normalize.Email(email)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleSuperAdmin {
			return nil
		}
		_, err := db.Collection("users").UpdateByID(ctx, existing.ID, bson.M{"$set": bson.M{
			"role":       models.RoleSuperAdmin,
			"status":     models.UserActive,
			"updated_at": time.Now().UTC(),
		}})
		if err != nil {
			return fmt.Errorf("promote superadmin: %w", err)
		}
		logger.Info("existing user promoted to superadmin", zap.String("email", email))
		return nil

	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := users.Create(ctx, models.User{
			FullName:   "Super Admin",
			Email:      email,
			Role:       models.RoleSuperAdmin,
			Status:     models.UserActive,
			AuthMethod: models.AuthGoogle,
		})
		if err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}
		logger.Info("superadmin account created",
			zap.String("email", email),
			zap.String("id", created.ID.Hex()))
		return nil

	default:
		return fmt.Errorf("look up superadmin: %w", err)
	}
}
