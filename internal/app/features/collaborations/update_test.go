package collaborations_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/skillhub/internal/testutil"
)

func TestHandleUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	collab, roles := seedCollab(t, ctx, db, owner)
	h := newHandler(db)

	const tempID = "temp-1712000000000-a1b2c3"
	body := fmt.Sprintf(`{
		"title": "Indie Game Jam",
		"description": "Now with a soundtrack.",
		"roles": [
			{"id": %q, "title": "Lead Pixel Artist", "description": "Sprites and tiles.", "requiredSkills": ["pixel art"]},
			{"id": %q, "title": "Composer", "description": "Chiptune soundtrack.", "requiredSkills": ["music"]}
		]
	}`, roles[0].ID.Hex(), tempID)

	req := asUser(httptest.NewRequest("PUT", "/api/collaborations/"+collab.ID.Hex(), strings.NewReader(body)), owner)
	req = testutil.WithChiURLParam(req, "id", collab.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		ID              string            `json:"id"`
		TempAssignments map[string]string `json:"tempAssignments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.ID != collab.ID.Hex() {
		t.Errorf("id = %q, want %q", resp.ID, collab.ID.Hex())
	}
	durable, ok := resp.TempAssignments[tempID]
	if !ok {
		t.Fatalf("tempAssignments missing %q: %+v", tempID, resp.TempAssignments)
	}
	if _, err := primitive.ObjectIDFromHex(durable); err != nil {
		t.Fatalf("assignment %q is not an object id", durable)
	}

	store := newStore(db)
	after, err := store.GetByID(ctx, collab.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if after.Description != "Now with a soundtrack." {
		t.Errorf("description = %q", after.Description)
	}
	if after.RoleCount != 2 {
		t.Errorf("role_count = %d, want 2", after.RoleCount)
	}

	all, err := store.RolesFor(ctx, collab.ID)
	if err != nil {
		t.Fatalf("RolesFor: %v", err)
	}
	titles := make(map[string]bool, len(all))
	for _, role := range all {
		titles[role.Title] = true
	}
	if !titles["Lead Pixel Artist"] || !titles["Composer"] {
		t.Errorf("roles after update = %v", titles)
	}
}

func TestHandleUpdate_DeletesMissingRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	collab, roles := seedCollab(t, ctx, db, owner)
	h := newHandler(db)

	// Submit an empty role set: the persisted role must go away.
	body := `{"title": "Indie Game Jam", "description": "Solo after all.", "roles": []}`
	req := asUser(httptest.NewRequest("PUT", "/api/collaborations/"+collab.ID.Hex(), strings.NewReader(body)), owner)
	req = testutil.WithChiURLParam(req, "id", collab.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	store := newStore(db)
	after, err := store.GetByID(ctx, collab.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if after.RoleCount != 0 {
		t.Errorf("role_count = %d, want 0", after.RoleCount)
	}
	if _, err := store.GetRole(ctx, roles[0].ID); err == nil {
		t.Error("deleted role still present")
	}
}

func TestHandleUpdate_Forbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	stranger := fx.CreateMember(ctx, "Sam Stranger", "sam@example.com")
	collab, _ := seedCollab(t, ctx, db, owner)
	h := newHandler(db)

	body := `{"title": "Hijacked", "description": "Mine now.", "roles": []}`
	req := asUser(httptest.NewRequest("PUT", "/api/collaborations/"+collab.ID.Hex(), strings.NewReader(body)), stranger)
	req = testutil.WithChiURLParam(req, "id", collab.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d (body %s)", rec.Code, http.StatusForbidden, rec.Body.String())
	}
}

func TestHandleUpdate_AdminAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	admin := fx.CreateAdmin(ctx, "Site Admin", "admin@example.com")
	collab, roles := seedCollab(t, ctx, db, owner)
	h := newHandler(db)

	body := fmt.Sprintf(`{
		"title": "Indie Game Jam",
		"description": "Moderated description.",
		"roles": [{"id": %q, "title": "Pixel Artist", "description": "Sprites and tiles.", "requiredSkills": ["pixel art"]}]
	}`, roles[0].ID.Hex())
	req := asUser(httptest.NewRequest("PUT", "/api/collaborations/"+collab.ID.Hex(), strings.NewReader(body)), admin)
	req = testutil.WithChiURLParam(req, "id", collab.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestHandleUpdate_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	h := newHandler(db)

	id := primitive.NewObjectID().Hex()
	body := `{"title": "Ghost", "description": "Not there.", "roles": []}`
	req := asUser(httptest.NewRequest("PUT", "/api/collaborations/"+id, strings.NewReader(body)), user)
	req = testutil.WithChiURLParam(req, "id", id)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleAddRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	collab, _ := seedCollab(t, ctx, db, owner)
	h := newHandler(db)

	const tempID = "temp-1712000000001-d4e5f6"
	body := fmt.Sprintf(`{
		"roles": [{"tempId": %q, "title": "Sound Designer", "description": "Effects and foley.", "requiredSkills": ["audio"]}]
	}`, tempID)
	req := asUser(httptest.NewRequest("POST", "/api/collaborations/"+collab.ID.Hex()+"/roles", strings.NewReader(body)), owner)
	req = testutil.WithChiURLParam(req, "id", collab.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAddRoles(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		RoleIDs         []string          `json:"roleIds"`
		TempAssignments map[string]string `json:"tempAssignments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.RoleIDs) != 1 {
		t.Fatalf("roleIds: got %d, want 1", len(resp.RoleIDs))
	}
	if resp.TempAssignments[tempID] != resp.RoleIDs[0] {
		t.Errorf("assignment = %q, want %q", resp.TempAssignments[tempID], resp.RoleIDs[0])
	}

	after, err := newStore(db).GetByID(ctx, collab.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if after.RoleCount != 2 {
		t.Errorf("role_count = %d, want 2", after.RoleCount)
	}
}

func TestHandleAddRoles_Forbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	stranger := fx.CreateMember(ctx, "Sam Stranger", "sam@example.com")
	collab, _ := seedCollab(t, ctx, db, owner)
	h := newHandler(db)

	body := `{"roles": [{"title": "Infiltrator", "description": "Not yours.", "requiredSkills": ["stealth"]}]}`
	req := asUser(httptest.NewRequest("POST", "/api/collaborations/"+collab.ID.Hex()+"/roles", strings.NewReader(body)), stranger)
	req = testutil.WithChiURLParam(req, "id", collab.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAddRoles(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d (body %s)", rec.Code, http.StatusForbidden, rec.Body.String())
	}
}

func TestHandleAddRoles_EmptySet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	collab, _ := seedCollab(t, ctx, db, owner)
	h := newHandler(db)

	req := asUser(httptest.NewRequest("POST", "/api/collaborations/"+collab.ID.Hex()+"/roles", strings.NewReader(`{"roles": []}`)), owner)
	req = testutil.WithChiURLParam(req, "id", collab.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAddRoles(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want %d (body %s)", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
}
