// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	admintokensfeature "github.com/dalemusser/skillhub/internal/app/features/admintokens"
	auditlogfeature "github.com/dalemusser/skillhub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/skillhub/internal/app/features/authgoogle"
	challengesfeature "github.com/dalemusser/skillhub/internal/app/features/challenges"
	collaborationsfeature "github.com/dalemusser/skillhub/internal/app/features/collaborations"
	healthfeature "github.com/dalemusser/skillhub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/skillhub/internal/app/features/heartbeat"
	loginfeature "github.com/dalemusser/skillhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/skillhub/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/skillhub/internal/app/features/notifications"
	rolesfeature "github.com/dalemusser/skillhub/internal/app/features/roles"
	userinfofeature "github.com/dalemusser/skillhub/internal/app/features/userinfo"
	usersfeature "github.com/dalemusser/skillhub/internal/app/features/users"
	"github.com/dalemusser/skillhub/internal/app/store/audit"
	challengestore "github.com/dalemusser/skillhub/internal/app/store/challenges"
	collabstore "github.com/dalemusser/skillhub/internal/app/store/collabs"
	loginstore "github.com/dalemusser/skillhub/internal/app/store/logins"
	notificationstore "github.com/dalemusser/skillhub/internal/app/store/notifications"
	"github.com/dalemusser/skillhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/auditlog"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/cache"
	"github.com/dalemusser/skillhub/internal/app/system/metrics"
	"github.com/dalemusser/skillhub/internal/app/system/notify"
	"github.com/dalemusser/skillhub/internal/app/system/opmonitor"
	"github.com/dalemusser/skillhub/internal/app/system/ratelimit"
	"github.com/dalemusser/skillhub/internal/app/system/tasks"
	"github.com/dalemusser/skillhub/internal/app/system/txn"
)

// runtime holds the long-lived components BuildHandler constructs so
// Shutdown can stop them in order. WAFFLE calls BuildHandler exactly once.
type runtime struct {
	monitor   *opmonitor.Monitor
	pool      *notify.Pool
	cache     *cache.Cache
	scheduler *tasks.Runner
}

var rt runtime

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed. Everything long-lived is built here: the
// session manager, the stores, the notification pool, the operation
// monitor, the challenge cache, and the scheduler, then the feature
// routers are mounted on one chi router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	ctx := context.Background()
	db := deps.SkillHubMongoDatabase

	// Session manager; secure cookies outside dev.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fetch fresh user data per request so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	tokenSecret := appCfg.AdminTokenSecret
	if tokenSecret == "" {
		tokenSecret = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		logger.Warn("admin_token_secret not set; minted admin tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenManager(tokenSecret, "skillhub", appCfg.AdminTokenTTL)
	if err != nil {
		return nil, err
	}

	// Stores.
	users := userstore.New(db)
	logins := loginstore.New(db)
	states := oauthstate.New(db)
	collabs := collabstore.New(db, txn.NewRunner(deps.SkillHubMongoClient, logger))
	challenges := challengestore.New(db)
	notifications := notificationstore.New(db)
	auditStore := audit.New(db)

	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Admin:  appCfg.AuditLogAdmin,
		Collab: appCfg.AuditLogCollab,
	})

	// Challenge list cache. nil when Redis is absent; callers fall
	// through to MongoDB.
	challengeCache := cache.New(ctx, appCfg.RedisAddr, appCfg.RedisPassword,
		appCfg.RedisDB, appCfg.ChallengeCacheTTL, logger)

	pool := notify.NewPool(appCfg.NotificationWorkers, appCfg.NotificationQueueCap, logger)
	notifier := notify.NewNotifier(pool, notifications, users, logger)
	monitor := opmonitor.New(db, logger)

	loginLimiter := ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginRateIPLimit, appCfg.LoginRateIPWindow,
		appCfg.LoginRateEmailLimit, appCfg.LoginRateEmailWindow)
	activateLimiter := ratelimit.New(appCfg.ActivateRateLimit, appCfg.ActivateRateWindow)

	rt = runtime{monitor: monitor, pool: pool, cache: challengeCache}

	if appCfg.SchedulerEnabled {
		scheduler := tasks.NewRunner(logger)
		scheduler.Add(
			tasks.WeeklyGenerationJob(challenges, challengeCache, logger),
			tasks.MonthlyGenerationJob(challenges, challengeCache, logger),
			tasks.ArchivalJob(challenges, challengeCache, logger),
			tasks.ActivationJob(challenges, notifier, challengeCache, logger),
			tasks.OAuthStateCleanupJob(states, logger),
			tasks.NotificationRetentionJob(notifications, appCfg.NotificationRetention, logger),
		)
		scheduler.Start()
		rt.scheduler = scheduler
	} else {
		logger.Info("challenge scheduler disabled by configuration")
	}

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(sessionMgr.LoadSessionUser)

	// Ops endpoints.
	healthHandler := healthfeature.NewHandler(deps.SkillHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Mount("/heartbeat", heartbeatfeature.Routes(heartbeatfeature.NewHandler(logger)))
	r.Handle("/metrics", promhttp.Handler())

	// Authentication.
	loginHandler := loginfeature.NewHandler(users, logins, sessionMgr, auditLog, loginLimiter, logger)
	r.Mount("/api/login", loginfeature.Routes(loginHandler))
	r.Mount("/api/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, auditLog, logger)))

	googleHandler := authgooglefeature.NewHandler(users, logins, states, sessionMgr, auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Accounts.
	r.Mount("/api/me", userinfofeature.Routes(userinfofeature.NewHandler(users, logger), sessionMgr))
	r.Mount("/api/users", usersfeature.Routes(usersfeature.NewHandler(users, logger), sessionMgr))

	// Marketplace.
	collabHandler := collaborationsfeature.NewHandler(collabs, users, db, monitor, auditLog, logger)
	r.Mount("/api/collaborations", collaborationsfeature.Routes(collabHandler, sessionMgr))

	roleHandler := rolesfeature.NewHandler(collabs, auditLog, notifier, logger)
	r.Mount("/api/roles", rolesfeature.Routes(roleHandler, sessionMgr))

	// Challenges: public board plus the claim-gated activation RPC.
	challengeHandler := challengesfeature.NewHandler(challenges, challengeCache, tokens, auditLog, notifier, logger)
	r.Mount("/api/challenges", challengesfeature.Routes(challengeHandler))
	r.Mount("/api/admin/challenges", challengesfeature.AdminRoutes(challengeHandler, activateLimiter, logger))

	// Admin surfaces.
	tokenHandler := admintokensfeature.NewHandler(tokens, auditLog, logger)
	r.Mount("/api/admin/token", admintokensfeature.Routes(tokenHandler, sessionMgr))
	r.Mount("/api/admin/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(auditStore, users, logger), sessionMgr))

	// Notifications.
	r.Mount("/api/notifications", notificationsfeature.Routes(notificationsfeature.NewHandler(notifications, logger), sessionMgr))

	return r, nil
}
