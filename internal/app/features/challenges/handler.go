// internal/app/features/challenges/handler.go
package challenges

import (
	"go.uber.org/zap"

	challengestore "github.com/dalemusser/skillhub/internal/app/store/challenges"
	"github.com/dalemusser/skillhub/internal/app/system/auditlog"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/cache"
	"github.com/dalemusser/skillhub/internal/app/system/notify"
)

// Handler serves the public challenge board and the privileged
// activation RPC. Browse responses are cached in Redis under a version
// key that every activation bumps.
type Handler struct {
	Challenges *challengestore.Store
	Cache      *cache.Cache
	Tokens     *auth.TokenManager
	AuditLog   *auditlog.Logger
	Notifier   *notify.Notifier
	Log        *zap.Logger
}

func NewHandler(
	challenges *challengestore.Store,
	c *cache.Cache,
	tokens *auth.TokenManager,
	audit *auditlog.Logger,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Challenges: challenges,
		Cache:      c,
		Tokens:     tokens,
		AuditLog:   audit,
		Notifier:   notifier,
		Log:        logger,
	}
}
