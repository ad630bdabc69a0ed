// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers framework-level settings (ports, TLS, log
// level, request limits); everything specific to SkillHub lives here. The
// struct is passed to every lifecycle hook, so anything startup, request
// handling, or shutdown needs belongs in it.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // secret for signing session cookies
	SessionName   string        // cookie name
	SessionDomain string        // cookie domain (blank means current host)
	SessionMaxAge time.Duration // cookie lifetime

	// Redis, used by the challenge list cache
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ChallengeCacheTTL time.Duration

	// Admin bearer tokens for the privileged activation RPC
	AdminTokenSecret string
	AdminTokenTTL    time.Duration

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g. "https://skillhub.example.com")
	BaseURL string

	// Audit logging modes: "all", "db", "log", or "off" per category
	AuditLogAuth   string
	AuditLogAdmin  string
	AuditLogCollab string

	// Challenge scheduler. Disable on all but one replica in multi-replica
	// deployments; the jobs are not coordinated across processes.
	SchedulerEnabled bool

	// SuperAdmin bootstrap: promotes or creates this account on startup
	SuperAdminEmail string

	// Login rate limiting
	LoginRateIPLimit     int
	LoginRateIPWindow    time.Duration
	LoginRateEmailLimit  int
	LoginRateEmailWindow time.Duration

	// Activation RPC rate limiting
	ActivateRateLimit  int
	ActivateRateWindow time.Duration

	// Notification fan-out pool and retention
	NotificationWorkers   int
	NotificationQueueCap  int
	NotificationRetention time.Duration
}
