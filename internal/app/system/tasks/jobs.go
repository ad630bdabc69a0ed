// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	challengestore "github.com/dalemusser/skillhub/internal/app/store/challenges"
	notificationstore "github.com/dalemusser/skillhub/internal/app/store/notifications"
	"github.com/dalemusser/skillhub/internal/app/store/oauthstate"
	"github.com/dalemusser/skillhub/internal/app/system/cache"
	"github.com/dalemusser/skillhub/internal/app/system/notify"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// regenerateType archives every pending challenge of the cadence and
// creates a fresh batch from the static templates. Boundary generation and
// the hourly top-up run exactly this routine.
func regenerateType(ctx context.Context, store *challengestore.Store, ctype models.ChallengeType, logger *zap.Logger) error {
	archived, err := store.ArchivePendingByType(ctx, ctype, time.Now().UTC())
	if err != nil {
		return err
	}
	created, err := store.InsertBatch(ctx, NewChallengeBatch(ctype))
	if err != nil {
		return err
	}
	logger.Info("challenge generation complete",
		zap.String("type", string(ctype)),
		zap.Int64("archived_pending", archived),
		zap.Int("created", created))
	return nil
}

// WeeklyGenerationJob regenerates the weekly challenge pool every Monday
// 00:00 UTC.
func WeeklyGenerationJob(store *challengestore.Store, challengeCache *cache.Cache, logger *zap.Logger) Job {
	return Job{
		Name: "challenge-generation-weekly",
		At:   NextWeeklyRun,
		Run: func(ctx context.Context) error {
			if err := regenerateType(ctx, store, models.ChallengeWeekly, logger); err != nil {
				return err
			}
			challengeCache.Bump(ctx, challengestore.CacheScope)
			return nil
		},
	}
}

// MonthlyGenerationJob regenerates the monthly challenge pool on the first
// of each month, 00:00 UTC.
func MonthlyGenerationJob(store *challengestore.Store, challengeCache *cache.Cache, logger *zap.Logger) Job {
	return Job{
		Name: "challenge-generation-monthly",
		At:   NextMonthlyRun,
		Run: func(ctx context.Context) error {
			if err := regenerateType(ctx, store, models.ChallengeMonthly, logger); err != nil {
				return err
			}
			challengeCache.Bump(ctx, challengestore.CacheScope)
			return nil
		},
	}
}

// ArchivalJob retires expired live challenges every hour and tops the pool
// back up when it runs thin: while the overall live+pending count is under
// twice the batch size, every cadence that fell below a full batch is
// regenerated. RunOnStart seeds an empty deployment.
func ArchivalJob(store *challengestore.Store, challengeCache *cache.Cache, logger *zap.Logger) Job {
	return Job{
		Name:       "challenge-archival",
		Interval:   time.Hour,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()
			archived, err := store.ArchiveExpiredLive(ctx, now)
			if err != nil {
				return err
			}
			if archived > 0 {
				logger.Info("expired challenges archived", zap.Int64("count", archived))
				challengeCache.Bump(ctx, challengestore.CacheScope)
			}

			counts, err := store.ActiveCountsByType(ctx)
			if err != nil {
				return err
			}
			var total int64
			for _, n := range counts {
				total += n
			}
			if total >= 2*GenerationCount {
				return nil
			}
			for _, ctype := range []models.ChallengeType{models.ChallengeWeekly, models.ChallengeMonthly} {
				if counts[ctype] >= GenerationCount {
					continue
				}
				if err := regenerateType(ctx, store, ctype, logger); err != nil {
					return err
				}
				challengeCache.Bump(ctx, challengestore.CacheScope)
			}
			return nil
		},
	}
}

// ActivationJob moves pending challenges live every hour and announces the
// newly live ones to members.
func ActivationJob(store *challengestore.Store, notifier *notify.Notifier, challengeCache *cache.Cache, logger *zap.Logger) Job {
	return Job{
		Name:       "challenge-activation",
		Interval:   time.Hour,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			// Snapshot the pending set first; the sweep only reports a
			// count and the announcement needs ids and titles.
			pending, err := store.List(ctx, challengestore.Filter{Status: models.ChallengePending})
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				return nil
			}

			activated, err := store.ActivateAllPending(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if activated == 0 {
				return nil
			}
			logger.Info("pending challenges activated", zap.Int64("count", activated))
			challengeCache.Bump(ctx, challengestore.CacheScope)
			if notifier != nil {
				notifier.ChallengesLive(pending)
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob removes expired OAuth state tokens. This is a backup
// for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(states *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			count, err := states.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("expired oauth states removed", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// NotificationRetentionJob trims notifications older than the retention
// window once a day.
func NotificationRetentionJob(notifications *notificationstore.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "notification-retention",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := notifications.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("old notifications removed",
					zap.Int64("count", count),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
