package auditlog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/features/auditlog"
	"github.com/dalemusser/skillhub/internal/app/store/audit"
	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/domain/models"
	"github.com/dalemusser/skillhub/internal/testutil"
)

type seeded struct {
	admin  models.User
	member models.User
	base   time.Time
}

// seedEvents writes one event per category an hour in the past:
// login_success at base, challenge_manually_activated at base+10m,
// role_filled at base+20m.
func seedEvents(t *testing.T, db *mongo.Database) seeded {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateAdmin(ctx, "Site Admin", "admin@example.com")
	member := fx.CreateMember(ctx, "Member One", "member@example.com")

	store := audit.New(db)
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	events := []audit.Event{
		{
			Timestamp: base,
			Category:  audit.CategoryAuth,
			EventType: audit.EventLoginSuccess,
			UserID:    &member.ID,
			IP:        "192.0.2.10",
			Success:   true,
			Details:   map[string]string{"auth_method": "password"},
		},
		{
			Timestamp: base.Add(10 * time.Minute),
			Category:  audit.CategoryAdmin,
			EventType: audit.EventChallengeManuallyActivated,
			ActorID:   &admin.ID,
			IP:        "192.0.2.11",
			Success:   true,
			Details:   map[string]string{"challenge_type": "weekly"},
		},
		{
			Timestamp: base.Add(20 * time.Minute),
			Category:  audit.CategoryCollab,
			EventType: audit.EventRoleFilled,
			UserID:    &member.ID,
			ActorID:   &member.ID,
			IP:        "192.0.2.12",
			Success:   true,
		},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("seed audit event: %v", err)
		}
	}

	return seeded{admin: admin, member: member, base: base}
}

func newHandler(db *mongo.Database) *auditlog.Handler {
	return auditlog.NewHandler(audit.New(db), userstore.New(db), zap.NewNop())
}

type listResp struct {
	Events []struct {
		ID         string    `json:"id"`
		Timestamp  time.Time `json:"timestamp"`
		Category   string    `json:"category"`
		EventType  string    `json:"event_type"`
		ActorName  string    `json:"actor_name"`
		TargetName string    `json:"target_name"`
	} `json:"events"`
	Total int64 `json:"total"`
}

func serveList(t *testing.T, h *auditlog.Handler, target string) (*httptest.ResponseRecorder, listResp) {
	t.Helper()
	req := testutil.NewAuthenticatedRequest("GET", target, testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	var resp listResp
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
	}
	return rec, resp
}

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := seedEvents(t, db)
	h := newHandler(db)

	rec, resp := serveList(t, h, "/api/admin/audit")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if resp.Total != 3 || len(resp.Events) != 3 {
		t.Fatalf("got %d events (total %d), want 3", len(resp.Events), resp.Total)
	}

	// Newest first.
	if resp.Events[0].EventType != audit.EventRoleFilled {
		t.Errorf("first event = %q, want %q", resp.Events[0].EventType, audit.EventRoleFilled)
	}
	if resp.Events[2].EventType != audit.EventLoginSuccess {
		t.Errorf("last event = %q, want %q", resp.Events[2].EventType, audit.EventLoginSuccess)
	}

	// The activation event resolves the actor name, the fill event the
	// target (assignee) name.
	if got := resp.Events[1].ActorName; got != s.admin.FullName {
		t.Errorf("actor_name = %q, want %q", got, s.admin.FullName)
	}
	if got := resp.Events[0].TargetName; got != s.member.FullName {
		t.Errorf("target_name = %q, want %q", got, s.member.FullName)
	}
}

func TestServeList_CategoryFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedEvents(t, db)
	h := newHandler(db)

	rec, resp := serveList(t, h, "/api/admin/audit?category=auth")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if resp.Total != 1 || len(resp.Events) != 1 {
		t.Fatalf("got %d events (total %d), want 1", len(resp.Events), resp.Total)
	}
	if resp.Events[0].Category != audit.CategoryAuth {
		t.Errorf("category = %q, want %q", resp.Events[0].Category, audit.CategoryAuth)
	}
}

func TestServeList_UnknownCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)

	rec, _ := serveList(t, h, "/api/admin/audit?category=billing")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeList_EventTypeQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedEvents(t, db)
	h := newHandler(db)

	rec, resp := serveList(t, h, "/api/admin/audit?q=challenge_manually_activated")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if len(resp.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(resp.Events))
	}
	if resp.Events[0].EventType != audit.EventChallengeManuallyActivated {
		t.Errorf("event_type = %q, want %q", resp.Events[0].EventType, audit.EventChallengeManuallyActivated)
	}
}

func TestServeList_TimeWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := seedEvents(t, db)
	h := newHandler(db)

	before := s.base.Add(5 * time.Minute).Format(time.RFC3339)
	rec, resp := serveList(t, h, "/api/admin/audit?before="+before)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if len(resp.Events) != 1 || resp.Events[0].EventType != audit.EventLoginSuccess {
		t.Fatalf("before filter: got %d events, want just the login", len(resp.Events))
	}

	after := s.base.Add(15 * time.Minute).Format(time.RFC3339)
	rec, resp = serveList(t, h, "/api/admin/audit?after="+after)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if len(resp.Events) != 1 || resp.Events[0].EventType != audit.EventRoleFilled {
		t.Fatalf("after filter: got %d events, want just the role fill", len(resp.Events))
	}
}

func TestServeList_BadTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)

	rec, _ := serveList(t, h, "/api/admin/audit?before=yesterday")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRoutes_RequireAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)

	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "skillhub_session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	router := auditlog.Routes(h, sm)

	cases := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"admin", testutil.NewAuthenticatedRequest("GET", "/", testutil.AdminUser()), http.StatusOK},
		{"superadmin", testutil.NewAuthenticatedRequest("GET", "/", testutil.SuperAdminUser()), http.StatusOK},
		{"member", testutil.NewAuthenticatedRequest("GET", "/", testutil.MemberUser()), http.StatusForbidden},
		{"anonymous", testutil.NewRequest("GET", "/"), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, tc.req)
			if rec.Code != tc.want {
				t.Errorf("status: got %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
