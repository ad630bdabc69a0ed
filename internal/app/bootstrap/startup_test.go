package bootstrap

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/domain/models"
	"github.com/dalemusser/skillhub/internal/testutil"
	"go.uber.org/zap"
)

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{SkillHubMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "root@skillhub.dev", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	user, err := userstore.New(db).GetByEmail(ctx, "root@skillhub.dev")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("role = %q, want %q", user.Role, models.RoleSuperAdmin)
	}
	if user.Status != models.UserActive {
		t.Errorf("status = %q, want %q", user.Status, models.UserActive)
	}
	if user.AuthMethod != models.AuthGoogle {
		t.Errorf("auth_method = %q, want %q", user.AuthMethod, models.AuthGoogle)
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	deps := DBDeps{SkillHubMongoDatabase: db}

	// Mixed case on purpose; lookup folds the address.
	if err := ensureSuperAdmin(ctx, deps, "Greta@Example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	user, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("role = %q, want %q", user.Role, models.RoleSuperAdmin)
	}

	count, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if count != 1 {
		t.Errorf("users = %d, want 1 (promotion must not create a second account)", count)
	}
}

func TestEnsureSuperAdmin_AlreadySuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fx.CreateSuperAdmin(ctx, "Root Admin", "root@skillhub.dev")
	deps := DBDeps{SkillHubMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "root@skillhub.dev", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	user, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("role = %q, want %q", user.Role, models.RoleSuperAdmin)
	}
	// Mongo stores times at millisecond precision; compare against the
	// truncated original to prove the no-op path wrote nothing.
	if !user.UpdatedAt.Equal(existing.UpdatedAt.Truncate(time.Millisecond)) {
		t.Errorf("updated_at changed on a no-op bootstrap")
	}
}
