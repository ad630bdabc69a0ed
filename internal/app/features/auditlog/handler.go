// internal/app/features/auditlog/handler.go
package auditlog

import (
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/store/audit"
	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
)

// Handler serves the admin audit event list.
type Handler struct {
	Audit *audit.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(auditStore *audit.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Audit: auditStore,
		Users: users,
		Log:   logger,
	}
}
