package userstore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/indexes"
	"github.com/dalemusser/skillhub/internal/domain/models"
	"github.com/dalemusser/skillhub/internal/testutil"
)

func TestStore_Create_Admin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		FullName: "Admin User",
		Email:    "Admin@Example.com",
		Role:     models.RoleAdmin,
	}

	created, err := store.Create(ctx, user)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify ID was assigned
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}

	// Verify normalized fields
	if created.Email != "admin@example.com" {
		t.Errorf("expected lowercased email, got %q", created.Email)
	}
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}

	// Verify timestamps
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if created.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}

	// Verify defaults
	if created.Status != models.UserActive {
		t.Errorf("expected status %q, got %q", models.UserActive, created.Status)
	}
	if created.AuthMethod != models.AuthPassword {
		t.Errorf("expected auth method %q, got %q", models.AuthPassword, created.AuthMethod)
	}
}

func TestStore_Create_MemberWithSkills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		FullName: "Member User",
		Email:    "member@example.com",
		Role:     models.RoleMember,
		Skills:   []string{" Golang ", "golang", "Pixel Art", ""},
	}

	created, err := store.Create(ctx, user)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Duplicates and empties dropped, order kept
	if len(created.Skills) != 2 {
		t.Fatalf("Skills = %v, want 2 entries", created.Skills)
	}
	if created.Skills[0] != "Golang" || created.Skills[1] != "Pixel Art" {
		t.Errorf("Skills = %v, want [Golang, Pixel Art]", created.Skills)
	}
	if len(created.SkillsCI) != 2 || created.SkillsCI[0] != "golang" {
		t.Errorf("SkillsCI = %v, want folded forms", created.SkillsCI)
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		FullName: "Bad Role",
		Email:    "bad@example.com",
		Role:     "wizard",
	})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_Create_BadStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		FullName: "Bad Status",
		Email:    "bad@example.com",
		Role:     models.RoleMember,
		Status:   "frozen",
	})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	first := models.User{FullName: "First", Email: "dup@example.com", Role: models.RoleMember}
	if _, err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := models.User{FullName: "Second", Email: "DUP@example.com", Role: models.RoleMember}
	_, err := store.Create(ctx, second)
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Casey", "casey@example.com", models.RoleMember)

	got, err := store.GetByEmail(ctx, "  CASEY@Example.COM ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.FullName != "Casey" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Casey")
	}
}

func TestStore_GetByEmail_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByEmail(ctx, "nobody@example.com")
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_GetMemberByID_RejectsAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	if _, err := store.GetMemberByID(ctx, member.ID); err != nil {
		t.Errorf("GetMemberByID(member) failed: %v", err)
	}
	if _, err := store.GetMemberByID(ctx, admin.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetMemberByID(admin): expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_UpdateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Old Name", "old@example.com")

	err := store.UpdateUser(ctx, u.ID, userstore.Update{
		FullName:   "New Name",
		Email:      "new@example.com",
		AuthMethod: models.AuthPassword,
		Role:       models.RoleAdmin,
		Status:     models.UserDisabled,
		Skills:     []string{"Writing"},
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FullName != "New Name" || got.Email != "new@example.com" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Role != models.RoleAdmin || got.Status != models.UserDisabled {
		t.Errorf("role/status not applied: role=%q status=%q", got.Role, got.Status)
	}
	if len(got.Skills) != 1 || got.Skills[0] != "Writing" {
		t.Errorf("Skills = %v, want [Writing]", got.Skills)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Profile User", "profile@example.com")

	if err := store.UpdateProfile(ctx, u.ID, "Renamed", []string{"3D Modeling"}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, _ := store.GetByID(ctx, u.ID)
	if got.FullName != "Renamed" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Renamed")
	}
	// Role and email are not self-service fields
	if got.Email != "profile@example.com" || got.Role != models.RoleMember {
		t.Errorf("profile update touched protected fields: %+v", got)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Target", "target@example.com")

	if err := store.SetStatus(ctx, u.ID, models.UserDisabled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.Status != models.UserDisabled {
		t.Errorf("Status = %q, want %q", got.Status, models.UserDisabled)
	}

	if err := store.SetStatus(ctx, u.ID, "frozen"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestStore_SetPasswordHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Pwd User", "pwd@example.com")

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	if err := store.SetPasswordHash(ctx, u.ID, string(hash)); err != nil {
		t.Fatalf("SetPasswordHash failed: %v", err)
	}

	got, _ := store.GetByID(ctx, u.ID)
	if bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("s3cret-pass")) != nil {
		t.Error("stored hash does not verify")
	}
}

func TestStore_TouchLastLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Login User", "login@example.com")

	if err := store.TouchLastLogin(ctx, u.ID); err != nil {
		t.Fatalf("TouchLastLogin failed: %v", err)
	}

	got, _ := store.GetByID(ctx, u.ID)
	if got.LastLoginAt == nil {
		t.Fatal("LastLoginAt not set")
	}
	if time.Since(*got.LastLoginAt) > time.Minute {
		t.Errorf("LastLoginAt = %v, want recent", got.LastLoginAt)
	}
}

func TestStore_AwardChallenge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Winner", "winner@example.com")

	if err := store.AwardChallenge(ctx, u.ID, 200, "weeklyCreativeMaster"); err != nil {
		t.Fatalf("AwardChallenge failed: %v", err)
	}
	// Same badge again: XP accumulates, badge does not duplicate
	if err := store.AwardChallenge(ctx, u.ID, 200, "weeklyCreativeMaster"); err != nil {
		t.Fatalf("AwardChallenge failed: %v", err)
	}

	got, _ := store.GetByID(ctx, u.ID)
	if got.XP != 400 {
		t.Errorf("XP = %d, want 400", got.XP)
	}
	if len(got.Badges) != 1 || got.Badges[0] != "weeklyCreativeMaster" {
		t.Errorf("Badges = %v, want single weeklyCreativeMaster", got.Badges)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Doomed", "doomed@example.com")

	n, err := store.Delete(ctx, u.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}

	n, err = store.Delete(ctx, u.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second delete removed %d, want 0", n)
	}
}

func TestStore_EmailExistsForOther(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateMember(ctx, "A", "a@example.com")
	fixtures.CreateMember(ctx, "B", "b@example.com")

	exists, err := store.EmailExistsForOther(ctx, "b@example.com", a.ID)
	if err != nil {
		t.Fatalf("EmailExistsForOther failed: %v", err)
	}
	if !exists {
		t.Error("expected b@example.com to exist for another user")
	}

	exists, err = store.EmailExistsForOther(ctx, "a@example.com", a.ID)
	if err != nil {
		t.Fatalf("EmailExistsForOther failed: %v", err)
	}
	if exists {
		t.Error("own email should not count as another user's")
	}
}

func TestStore_FindBySkills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUserWithSkills(ctx, "Both", "both@example.com", []string{"Golang", "Pixel Art"})
	fixtures.CreateUserWithSkills(ctx, "One", "one@example.com", []string{"Golang"})

	// Admins never show up in candidate suggestions, even with the skills.
	if _, err := store.Create(ctx, models.User{
		FullName: "Skilled Admin",
		Email:    "skilled-admin@example.com",
		Role:     models.RoleAdmin,
		Skills:   []string{"Golang", "Pixel Art"},
	}); err != nil {
		t.Fatalf("Create admin failed: %v", err)
	}

	got, err := store.FindBySkills(ctx, []string{"golang", "pixel art"}, 10)
	if err != nil {
		t.Fatalf("FindBySkills failed: %v", err)
	}
	if len(got) != 1 || got[0].FullName != "Both" {
		t.Errorf("FindBySkills = %d users, want only the full match", len(got))
	}

	got, err = store.FindBySkills(ctx, []string{"GOLANG"}, 10)
	if err != nil {
		t.Fatalf("FindBySkills failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("FindBySkills(golang) = %d users, want 2", len(got))
	}
}

func TestStore_SearchDirectory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUserWithSkills(ctx, "Ada Lovelace", "ada@example.com", []string{"Compilers"})
	fixtures.CreateUserWithSkills(ctx, "Adam West", "adam@example.com", []string{"Acting"})
	fixtures.CreateUserWithSkills(ctx, "Betty Holberton", "betty@example.com", []string{"Compilers"})
	fixtures.CreateDisabledUser(ctx, "Adrian Gone", "adrian@example.com")

	// Name prefix only; disabled accounts excluded.
	got, err := store.SearchDirectory(ctx, nil, "ad", 10)
	if err != nil {
		t.Fatalf("SearchDirectory failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SearchDirectory(q=ad) = %d users, want 2", len(got))
	}
	if got[0].FullName != "Ada Lovelace" || got[1].FullName != "Adam West" {
		t.Errorf("rows out of order: %q, %q", got[0].FullName, got[1].FullName)
	}

	// Skill filter narrows a prefix search.
	got, err = store.SearchDirectory(ctx, []string{"compilers"}, "ad", 10)
	if err != nil {
		t.Fatalf("SearchDirectory failed: %v", err)
	}
	if len(got) != 1 || got[0].FullName != "Ada Lovelace" {
		t.Errorf("SearchDirectory(skill+q) = %v, want only Ada", got)
	}

	// Queries containing '@' match against email instead.
	got, err = store.SearchDirectory(ctx, nil, "betty@", 10)
	if err != nil {
		t.Fatalf("SearchDirectory failed: %v", err)
	}
	if len(got) != 1 || got[0].Email != "betty@example.com" {
		t.Errorf("SearchDirectory(email pivot) = %v, want betty", got)
	}

	// No filters returns the whole active-member directory.
	got, err = store.SearchDirectory(ctx, nil, "", 0)
	if err != nil {
		t.Fatalf("SearchDirectory failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("SearchDirectory(all) = %d users, want 3", len(got))
	}
}

func TestStore_UpsertMembersBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fixtures.CreateMember(ctx, "Existing Member", "existing@example.com")
	fixtures.CreateAdmin(ctx, "Site Admin", "admin@example.com")

	temp := "changeme123"
	res, err := store.UpsertMembersBatch(ctx, []userstore.MemberEntry{
		{FullName: "New Member", Email: "new@example.com", Skills: []string{"Writing"}, TempPassword: &temp},
		{FullName: "Existing Renamed", Email: "existing@example.com"},
		{FullName: "Admin Clash", Email: "admin@example.com"},
		{FullName: "", Email: "nameless@example.com"},
		{FullName: "Dup Row", Email: "new@example.com"},
	})
	if err != nil {
		t.Fatalf("UpsertMembersBatch failed: %v", err)
	}

	if res.Created != 1 {
		t.Errorf("Created = %d, want 1", res.Created)
	}
	if res.Updated != 1 {
		t.Errorf("Updated = %d, want 1", res.Updated)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	// missing name, admin clash, duplicate row
	if len(res.ItemErrors) != 3 {
		t.Errorf("ItemErrors = %d, want 3: %+v", len(res.ItemErrors), res.ItemErrors)
	}

	created, err := store.GetByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("GetByEmail(new) failed: %v", err)
	}
	if created.Role != models.RoleMember || created.PasswordHash == "" {
		t.Errorf("created member incomplete: %+v", created)
	}

	updated, _ := store.GetByID(ctx, existing.ID)
	if updated.FullName != "Existing Renamed" {
		t.Errorf("existing member not updated: %q", updated.FullName)
	}

	admin, _ := store.GetByEmail(ctx, "admin@example.com")
	if admin.FullName != "Site Admin" {
		t.Errorf("admin account was modified by import: %q", admin.FullName)
	}
}

func TestStore_UpsertMembersBatch_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := store.UpsertMembersBatch(ctx, nil)
	if err != nil {
		t.Fatalf("UpsertMembersBatch failed: %v", err)
	}
	if res.Created != 0 || res.Updated != 0 || res.HasErrors() {
		t.Errorf("empty batch produced work: %+v", res)
	}
}
