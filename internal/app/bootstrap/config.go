// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for SkillHub. They are
// loaded through WAFFLE's config system, so each key can come from a
// config file (mongo_uri), an environment variable (SKILLHUB_MONGO_URI),
// or a command-line flag (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "skillhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "skillhub_session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime (e.g. 24h, 168h)"},

	// Redis backs the challenge list cache. The service runs without it,
	// just slower: cache misses fall through to MongoDB.
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for the challenge cache"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "challenge_cache_ttl", Default: "60s", Desc: "Challenge list cache TTL"},

	{Name: "admin_token_secret", Default: "", Desc: "HMAC secret for admin bearer tokens (blank disables token minting)"},
	{Name: "admin_token_ttl", Default: "15m", Desc: "Admin bearer token lifetime"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for OAuth callbacks"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_collab", Default: "all", Desc: "Collaboration event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "scheduler_enabled", Default: true, Desc: "Run the challenge generation/activation scheduler in this process"},

	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},

	{Name: "login_rate_ip_limit", Default: 10, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_rate_ip_window", Default: "1m", Desc: "Login IP rate-limit window"},
	{Name: "login_rate_email_limit", Default: 5, Desc: "Login attempts allowed per email per window"},
	{Name: "login_rate_email_window", Default: "5m", Desc: "Login email rate-limit window"},
	{Name: "activate_rate_limit", Default: 30, Desc: "Activation RPC calls allowed per client per window"},
	{Name: "activate_rate_window", Default: "1m", Desc: "Activation RPC rate-limit window"},

	{Name: "notification_workers", Default: 4, Desc: "Notification fan-out worker count"},
	{Name: "notification_queue_cap", Default: 256, Desc: "Notification fan-out queue capacity"},
	{Name: "notification_retention", Default: "720h", Desc: "How long read notifications are kept (e.g. 720h = 30 days)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It runs early in startup so both WAFFLE and the app have configuration
// before any backends or handlers are built. config.LoadWithAppConfig
// merges with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SKILLHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 168*time.Hour),

		RedisAddr:         appValues.String("redis_addr"),
		RedisPassword:     appValues.String("redis_password"),
		RedisDB:           appValues.Int("redis_db"),
		ChallengeCacheTTL: appValues.Duration("challenge_cache_ttl", time.Minute),

		AdminTokenSecret: appValues.String("admin_token_secret"),
		AdminTokenTTL:    appValues.Duration("admin_token_ttl", 15*time.Minute),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            appValues.String("base_url"),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditLogCollab: appValues.String("audit_log_collab"),

		SchedulerEnabled: appValues.Bool("scheduler_enabled"),
		SuperAdminEmail:  appValues.String("superadmin_email"),

		LoginRateIPLimit:     appValues.Int("login_rate_ip_limit"),
		LoginRateIPWindow:    appValues.Duration("login_rate_ip_window", time.Minute),
		LoginRateEmailLimit:  appValues.Int("login_rate_email_limit"),
		LoginRateEmailWindow: appValues.Duration("login_rate_email_window", 5*time.Minute),
		ActivateRateLimit:    appValues.Int("activate_rate_limit"),
		ActivateRateWindow:   appValues.Duration("activate_rate_window", time.Minute),

		NotificationWorkers:   appValues.Int("notification_workers"),
		NotificationQueueCap:  appValues.Int("notification_queue_cap"),
		NotificationRetention: appValues.Duration("notification_retention", 30*24*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. Returning an
// error aborts startup, which is the right outcome for anything that
// would otherwise fail at first use.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey {
			return fmt.Errorf("session_key must be changed from the development default in production")
		}
		if appCfg.AdminTokenSecret != "" && len(appCfg.AdminTokenSecret) < 32 {
			return fmt.Errorf("admin_token_secret must be at least 32 bytes in production")
		}
	}

	if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret == "" {
		return fmt.Errorf("google_client_id is set but google_client_secret is empty")
	}

	return nil
}
