package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/skillhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given parameters.
// Returns the created user with its generated ID.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: models.AuthPassword,
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateUserWithSkills creates a test member with the given skill list.
func (f *Fixtures) CreateUserWithSkills(ctx context.Context, fullName, email string, skills []string) models.User {
	f.t.Helper()

	skillsCI := make([]string, len(skills))
	for i, s := range skills {
		skillsCI[i] = text.Fold(s)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: models.AuthPassword,
		Role:       "member",
		Status:     "active",
		Skills:     skills,
		SkillsCI:   skillsCI,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateSuperAdmin creates a test superadmin user.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "superadmin")
}

// CreateMember creates a test member user.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "member")
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: models.AuthPassword,
		Role:       "member",
		Status:     "disabled",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}

	return user
}

// CreateCollaboration creates a test collaboration owned by the given user,
// with zero roles and RECRUITING status.
func (f *Fixtures) CreateCollaboration(ctx context.Context, title string, ownerID primitive.ObjectID) models.Collaboration {
	f.t.Helper()

	now := time.Now().UTC()
	collab := models.Collaboration{
		ID:           primitive.NewObjectID(),
		Title:        title,
		TitleCI:      text.Fold(title),
		Description:  "Test collaboration description",
		Status:       models.CollabRecruiting,
		OwnerID:      ownerID,
		Participants: []primitive.ObjectID{ownerID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("collaborations").InsertOne(ctx, collab)
	if err != nil {
		f.t.Fatalf("failed to create test collaboration: %v", err)
	}

	return collab
}

// CreateRole creates a test role in the given collaboration with the given
// lifecycle status. Counter fields on the collaboration are not touched;
// tests that need consistent counters should go through the stores.
func (f *Fixtures) CreateRole(ctx context.Context, collabID primitive.ObjectID, title string, status models.RoleStatus) models.Role {
	f.t.Helper()

	now := time.Now().UTC()
	role := models.Role{
		ID:              primitive.NewObjectID(),
		CollaborationID: collabID,
		Title:           title,
		Description:     "Test role description",
		RequiredSkills:  []string{"golang"},
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := f.db.Collection("roles").InsertOne(ctx, role)
	if err != nil {
		f.t.Fatalf("failed to create test role: %v", err)
	}

	return role
}

// CreateFilledRole creates a test role in FILLED status with an assignee.
func (f *Fixtures) CreateFilledRole(ctx context.Context, collabID primitive.ObjectID, title string, assigneeID primitive.ObjectID) models.Role {
	f.t.Helper()

	now := time.Now().UTC()
	role := models.Role{
		ID:              primitive.NewObjectID(),
		CollaborationID: collabID,
		Title:           title,
		Description:     "Test role description",
		RequiredSkills:  []string{"golang"},
		Status:          models.RoleFilled,
		AssigneeID:      &assigneeID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := f.db.Collection("roles").InsertOne(ctx, role)
	if err != nil {
		f.t.Fatalf("failed to create filled test role: %v", err)
	}

	return role
}

// CreateChallenge creates a test challenge of the given type and status.
// Live challenges get an end date a week out so expiry sweeps leave them alone.
func (f *Fixtures) CreateChallenge(ctx context.Context, title string, ctype models.ChallengeType, status models.ChallengeStatus) models.Challenge {
	f.t.Helper()

	now := time.Now().UTC()
	challenge := models.Challenge{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Description:  "Test challenge description",
		Requirements: []string{"Submit one entry"},
		Rewards:      models.ChallengeRewards{XP: 200, Badge: "testBadge"},
		Status:       status,
		Type:         ctype,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == models.ChallengeLive {
		start := now
		end := now.AddDate(0, 0, 7)
		challenge.StartDate = &start
		challenge.EndDate = &end
		challenge.ActivatedAt = &now
	}

	_, err := f.db.Collection("challenges").InsertOne(ctx, challenge)
	if err != nil {
		f.t.Fatalf("failed to create test challenge: %v", err)
	}

	return challenge
}
