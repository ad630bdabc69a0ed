// internal/app/system/auditlog/logger.go
package auditlog

// Terminology: Role Identifiers
//   - RoleID / roleID / role_id: The MongoDB ObjectID (_id) of a collaboration role document
//   - role / actor_role: The account-level role string ("member", "admin", "superadmin")

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/skillhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, OAuth, tokens).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin action events (manual challenge activation).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
	// Collab controls logging for collaboration and role lifecycle events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Collab string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// NewNopLogger returns a Logger that discards every event. For tests.
func NewNopLogger() *Logger {
	return New(nil, zap.NewNop(), Config{Auth: "off", Admin: "off", Collab: "off"})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies);
	// the first entry is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr, stripping the port
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.CollaborationID != nil {
		fields = append(fields, zap.String("collaboration_id", event.CollaborationID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on event category
	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryCollab:
		setting = l.config.Collab
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	// Check if logging is disabled for this category
	if setting == "off" {
		return
	}

	// Log to zap if configured
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	// Log to MongoDB if configured
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"auth_method": authMethod,
			"email":       email,
		},
	})
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user not found",
		Details: map[string]string{
			"attempted_email": attemptedEmail,
		},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong password",
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedUserDisabled logs a failed login due to disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user disabled",
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedRateLimit logs a failed login due to rate limiting.
// No user ID is recorded; the limit can trip before any user lookup happens.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details: map[string]string{
			"email":      email,
			"limit_type": limitType,
		},
	})
}

// Logout logs a user logout.
// Accepts the string ID from SessionUser and converts it to an ObjectID.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}

	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// OAuthLoginSuccess logs a successful OAuth login.
func (l *Logger) OAuthLoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, provider, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventOAuthLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"provider": provider,
			"email":    email,
		},
	})
}

// ServiceTokenIssued logs when an admin mints a service token.
func (l *Logger) ServiceTokenIssued(ctx context.Context, r *http.Request, actorID primitive.ObjectID, actorRole, tokenRole string, admin bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventServiceTokenIssued,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"actor_role": actorRole,
			"token_role": tokenRole,
			"admin":      boolToString(admin),
		},
	})
}

// --- Admin Events ---

// ChallengeManuallyActivated logs when an admin activates a pending challenge by hand.
func (l *Logger) ChallengeManuallyActivated(ctx context.Context, r *http.Request, actorID, challengeID primitive.ObjectID, actorRole, challengeType string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventChallengeManuallyActivated,
		ActorID:   &actorID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"actor_role":     actorRole,
			"challenge_id":   challengeID.Hex(),
			"challenge_type": challengeType,
		},
	})
}

// --- Collaboration Events ---

// CollaborationCreated logs when a user creates a collaboration.
func (l *Logger) CollaborationCreated(ctx context.Context, r *http.Request, actorID, collabID primitive.ObjectID, title string, roleCount int) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventCollaborationCreated,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"title":      title,
			"role_count": intToString(roleCount),
		},
	})
}

// CollaborationUpdated logs when a collaboration and its role set are updated.
func (l *Logger) CollaborationUpdated(ctx context.Context, r *http.Request, actorID, collabID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventCollaborationUpdated,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"fields_changed": fieldsChanged,
		},
	})
}

// RoleCreated logs when a role is added to a collaboration.
func (l *Logger) RoleCreated(ctx context.Context, r *http.Request, actorID, roleID, collabID primitive.ObjectID, roleTitle string) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventRoleCreated,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"role_id":    roleID.Hex(),
			"role_title": roleTitle,
		},
	})
}

// RoleUpdated logs when a role's descriptive fields change.
func (l *Logger) RoleUpdated(ctx context.Context, r *http.Request, actorID, roleID, collabID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventRoleUpdated,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"role_id":        roleID.Hex(),
			"fields_changed": fieldsChanged,
		},
	})
}

// RoleDeleted logs when a role is removed from a collaboration.
func (l *Logger) RoleDeleted(ctx context.Context, r *http.Request, actorID, roleID, collabID primitive.ObjectID, roleTitle string) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventRoleDeleted,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"role_id":    roleID.Hex(),
			"role_title": roleTitle,
		},
	})
}

// RoleFilled logs when a user takes an open role.
func (l *Logger) RoleFilled(ctx context.Context, r *http.Request, actorID, roleID, collabID, assigneeID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventRoleFilled,
		UserID:          &assigneeID,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"role_id": roleID.Hex(),
		},
	})
}

// RoleCompletionRequested logs when an assignee asks for their work to be marked done.
func (l *Logger) RoleCompletionRequested(ctx context.Context, r *http.Request, actorID, roleID, collabID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventRoleCompletionRequest,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"role_id": roleID.Hex(),
		},
	})
}

// RoleCompleted logs when a filled role is marked completed.
func (l *Logger) RoleCompleted(ctx context.Context, r *http.Request, actorID, roleID, collabID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventRoleCompleted,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"role_id": roleID.Hex(),
		},
	})
}

// RoleAbandoned logs when a role is abandoned from the open or filled state.
func (l *Logger) RoleAbandoned(ctx context.Context, r *http.Request, actorID, roleID, collabID primitive.ObjectID, fromStatus string) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       audit.EventRoleAbandoned,
		ActorID:         &actorID,
		CollaborationID: &collabID,
		IP:              getClientIP(r),
		UserAgent:       r.UserAgent(),
		Success:         true,
		Details: map[string]string{
			"role_id":     roleID.Hex(),
			"from_status": fromStatus,
		},
	})
}

// --- Helper functions ---

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func intToString(i int) string {
	return strconv.Itoa(i)
}
