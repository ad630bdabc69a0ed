package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/skillhub/internal/app/system/validators"
	"github.com/dalemusser/skillhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	err = validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Verify collections exist
	expectedCollections := []string{
		"users",
		"collaborations",
		"roles",
		"challenges",
		"notifications",
		"login_records",
		"oauth_states",
		"audit_events",
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}

	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}

	for _, expected := range expectedCollections {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestUsersValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user without required fields - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"email": "nobody@example.com",
	})
	if err == nil {
		t.Error("expected validation error when inserting user without required fields")
	}
}

func TestUsersValidator_ValidUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid user - should succeed
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":    "Test User",
		"full_name_ci": "test user",
		"email":        "test@example.com",
		"role":         "member",
		"status":       "active",
		"auth_method":  "password",
		"skills":       bson.A{"pixel art"},
		"xp":           0,
		"created_at":   time.Now(),
		"updated_at":   time.Now(),
	})
	if err != nil {
		t.Errorf("Insert valid user failed: %v", err)
	}
}

func TestUsersValidator_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user with invalid role - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":    "Test User",
		"full_name_ci": "test user",
		"email":        "test@example.com",
		"role":         "invalid_role",
		"status":       "active",
		"auth_method":  "password",
	})
	if err == nil {
		t.Error("expected validation error when inserting user with invalid role")
	}
}

func TestUsersValidator_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user with invalid status - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":    "Test User",
		"full_name_ci": "test user",
		"email":        "test@example.com",
		"role":         "member",
		"status":       "invalid_status",
		"auth_method":  "password",
	})
	if err == nil {
		t.Error("expected validation error when inserting user with invalid status")
	}
}

func TestUsersValidator_InvalidAuthMethod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert user with invalid auth method - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{
		"full_name":    "Test User",
		"full_name_ci": "test user",
		"email":        "test@example.com",
		"role":         "member",
		"status":       "active",
		"auth_method":  "invalid_auth",
	})
	if err == nil {
		t.Error("expected validation error when inserting user with invalid auth_method")
	}
}

func TestCollaborationsValidator_ValidDoc(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid collaboration - should succeed
	owner := primitive.NewObjectID()
	_, err = db.Collection("collaborations").InsertOne(ctx, bson.M{
		"title":                "Indie Game Jam",
		"title_ci":             "indie game jam",
		"description":          "A weekend jam.",
		"status":               "RECRUITING",
		"owner_id":             owner,
		"participants":         bson.A{owner},
		"role_count":           1,
		"filled_role_count":    0,
		"completed_role_count": 0,
		"created_at":           time.Now(),
		"updated_at":           time.Now(),
	})
	if err != nil {
		t.Errorf("Insert valid collaboration failed: %v", err)
	}
}

func TestCollaborationsValidator_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Lifecycle states are stored uppercase; lowercase should fail
	_, err = db.Collection("collaborations").InsertOne(ctx, bson.M{
		"title":      "Indie Game Jam",
		"title_ci":   "indie game jam",
		"status":     "recruiting",
		"owner_id":   primitive.NewObjectID(),
		"created_at": time.Now(),
	})
	if err == nil {
		t.Error("expected validation error when inserting collaboration with lowercase status")
	}
}

func TestRolesValidator_ValidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Insert valid role - should succeed
	_, err = db.Collection("roles").InsertOne(ctx, bson.M{
		"collaboration_id": primitive.NewObjectID(),
		"title":            "Pixel Artist",
		"required_skills":  bson.A{"pixel art"},
		"status":           "OPEN",
		"created_at":       time.Now(),
		"updated_at":       time.Now(),
	})
	if err != nil {
		t.Errorf("Insert valid role failed: %v", err)
	}
}

func TestRolesValidator_EmptyRequiredSkills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// A role always carries at least one required skill
	_, err = db.Collection("roles").InsertOne(ctx, bson.M{
		"collaboration_id": primitive.NewObjectID(),
		"title":            "Pixel Artist",
		"required_skills":  bson.A{},
		"status":           "OPEN",
		"created_at":       time.Now(),
	})
	if err == nil {
		t.Error("expected validation error when inserting role with no required skills")
	}
}

func TestRolesValidator_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert role with invalid status - should fail
	_, err = db.Collection("roles").InsertOne(ctx, bson.M{
		"collaboration_id": primitive.NewObjectID(),
		"title":            "Pixel Artist",
		"required_skills":  bson.A{"pixel art"},
		"status":           "WAITING",
		"created_at":       time.Now(),
	})
	if err == nil {
		t.Error("expected validation error when inserting role with invalid status")
	}
}

func TestChallengesValidator_InvalidType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert challenge with invalid type - should fail
	_, err = db.Collection("challenges").InsertOne(ctx, bson.M{
		"title":      "Speedrun Week",
		"status":     "pending",
		"type":       "daily",
		"created_at": time.Now(),
	})
	if err == nil {
		t.Error("expected validation error when inserting challenge with invalid type")
	}
}

func TestNotificationsValidator_InvalidKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Try to insert notification with invalid kind - should fail
	_, err = db.Collection("notifications").InsertOne(ctx, bson.M{
		"user_id":    primitive.NewObjectID(),
		"kind":       "mystery_event",
		"event":      "filled",
		"read":       false,
		"created_at": time.Now(),
	})
	if err == nil {
		t.Error("expected validation error when inserting notification with invalid kind")
	}
}
