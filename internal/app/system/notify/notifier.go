// internal/app/system/notify/notifier.go
package notify

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	notificationstore "github.com/dalemusser/skillhub/internal/app/store/notifications"
	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/metrics"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Notifier fans domain events out to user inboxes through the pool.
type Notifier struct {
	pool          *Pool
	notifications *notificationstore.Store
	users         *userstore.Store
	log           *zap.Logger
}

func NewNotifier(pool *Pool, notifications *notificationstore.Store, users *userstore.Store, logger *zap.Logger) *Notifier {
	return &Notifier{
		pool:          pool,
		notifications: notifications,
		users:         users,
		log:           logger,
	}
}

// RoleEvent notifies the given recipients about a role lifecycle event.
// Duplicate and zero recipient IDs are dropped, so callers can pass owner
// and assignee without checking whether they coincide.
func (n *Notifier) RoleEvent(event string, collab *models.Collaboration, role *models.Role, recipients ...primitive.ObjectID) {
	seen := make(map[primitive.ObjectID]bool, len(recipients))
	batch := make([]models.Notification, 0, len(recipients))
	for _, r := range recipients {
		if r.IsZero() || seen[r] {
			continue
		}
		seen[r] = true
		batch = append(batch, models.NewRoleNotification(r, event, collab, role))
	}
	if len(batch) == 0 {
		return
	}

	n.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()

		inserted, err := n.notifications.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		metrics.NotificationsSent.WithLabelValues(event).Add(float64(inserted))
		return nil
	})
}

// ChallengesLive announces newly activated challenges to every active
// member. Recipient lookup happens inside the task so activation sweeps
// never wait on it.
func (n *Notifier) ChallengesLive(challenges []models.Challenge) {
	if len(challenges) == 0 {
		return
	}
	// Copy so the caller can reuse its slice.
	batch := make([]models.Challenge, len(challenges))
	copy(batch, challenges)

	n.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
		defer cancel()

		memberIDs, err := n.users.ListActiveMemberIDs(ctx)
		if err != nil {
			return err
		}
		if len(memberIDs) == 0 {
			return nil
		}

		notifications := make([]models.Notification, 0, len(memberIDs)*len(batch))
		for i := range batch {
			for _, userID := range memberIDs {
				notifications = append(notifications, models.NewChallengeNotification(
					userID, models.ChallengeEventLive, &batch[i]))
			}
		}
		inserted, err := n.notifications.InsertBatch(ctx, notifications)
		if err != nil {
			return err
		}
		metrics.NotificationsSent.WithLabelValues(models.ChallengeEventLive).Add(float64(inserted))
		n.log.Info("challenge notifications delivered",
			zap.Int("challenges", len(batch)),
			zap.Int("recipients", len(memberIDs)))
		return nil
	})
}
