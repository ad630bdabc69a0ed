package notify_test

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	notificationstore "github.com/dalemusser/skillhub/internal/app/store/notifications"
	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/notify"
	"github.com/dalemusser/skillhub/internal/domain/models"
	"github.com/dalemusser/skillhub/internal/testutil"
)

func newNotifier(db *mongo.Database) (*notify.Notifier, *notify.Pool) {
	pool := notify.NewPool(1, 16, zap.NewNop())
	n := notify.NewNotifier(pool, notificationstore.New(db), userstore.New(db), zap.NewNop())
	return n, pool
}

func countInbox(t *testing.T, ctx context.Context, db *mongo.Database, userID primitive.ObjectID) int {
	t.Helper()
	list, err := notificationstore.New(db).ListByUser(ctx, userID, false, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	return len(list)
}

func TestRoleEventFanout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	assignee := fx.CreateMember(ctx, "Finn Member", "finn@example.com")
	n, pool := newNotifier(db)

	collab := models.Collaboration{ID: primitive.NewObjectID(), Title: "Indie Game Jam"}
	role := models.Role{ID: primitive.NewObjectID(), Title: "Pixel Artist"}

	n.RoleEvent(models.RoleEventAbandoned, &collab, &role, owner.ID, assignee.ID)
	pool.Shutdown()

	for _, u := range []models.User{owner, assignee} {
		list, err := notificationstore.New(db).ListByUser(ctx, u.ID, false, 0)
		if err != nil {
			t.Fatalf("ListByUser(%s): %v", u.FullName, err)
		}
		if len(list) != 1 {
			t.Fatalf("%s inbox: got %d, want 1", u.FullName, len(list))
		}
		got := list[0]
		if got.Kind != models.NotificationRoleEvent || got.Event != models.RoleEventAbandoned {
			t.Errorf("%s notification = %s/%s", u.FullName, got.Kind, got.Event)
		}
		if got.CollaborationTitle != "Indie Game Jam" || got.RoleTitle != "Pixel Artist" {
			t.Errorf("%s notification titles = %q/%q", u.FullName, got.CollaborationTitle, got.RoleTitle)
		}
		if got.Read {
			t.Errorf("%s notification arrived read", u.FullName)
		}
	}
}

func TestRoleEventDedupsRecipients(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Owner filled their own role: owner and assignee coincide.
	owner := fx.CreateMember(ctx, "Greta Owner", "greta@example.com")
	n, pool := newNotifier(db)

	collab := models.Collaboration{ID: primitive.NewObjectID(), Title: "Solo Dev Log"}
	role := models.Role{ID: primitive.NewObjectID(), Title: "Writer"}

	n.RoleEvent(models.RoleEventFilled, &collab, &role, owner.ID, owner.ID, primitive.NilObjectID)
	pool.Shutdown()

	if got := countInbox(t, ctx, db, owner.ID); got != 1 {
		t.Errorf("inbox: got %d, want 1 after dedup", got)
	}
}

func TestChallengesLiveFanout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	memberA := fx.CreateMember(ctx, "Finn Member", "finn@example.com")
	memberB := fx.CreateMember(ctx, "Hana Member", "hana@example.com")
	admin := fx.CreateAdmin(ctx, "Ada Admin", "ada@example.com")
	disabled := fx.CreateDisabledUser(ctx, "Dora Dormant", "dora@example.com")
	n, pool := newNotifier(db)

	ch := fx.CreateChallenge(ctx, "Speedrun Week", models.ChallengeWeekly, models.ChallengeLive)
	n.ChallengesLive([]models.Challenge{ch})
	pool.Shutdown()

	for _, m := range []models.User{memberA, memberB} {
		list, err := notificationstore.New(db).ListByUser(ctx, m.ID, false, 0)
		if err != nil {
			t.Fatalf("ListByUser(%s): %v", m.FullName, err)
		}
		if len(list) != 1 {
			t.Fatalf("%s inbox: got %d, want 1", m.FullName, len(list))
		}
		got := list[0]
		if got.Kind != models.NotificationChallengeEvent || got.Event != models.ChallengeEventLive {
			t.Errorf("%s notification = %s/%s", m.FullName, got.Kind, got.Event)
		}
		if got.ChallengeTitle != "Speedrun Week" {
			t.Errorf("%s challenge title = %q", m.FullName, got.ChallengeTitle)
		}
	}

	// Only active members hear about new challenges.
	if got := countInbox(t, ctx, db, admin.ID); got != 0 {
		t.Errorf("admin inbox: got %d, want 0", got)
	}
	if got := countInbox(t, ctx, db, disabled.ID); got != 0 {
		t.Errorf("disabled member inbox: got %d, want 0", got)
	}
}
