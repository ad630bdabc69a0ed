// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the long-lived components and the DB
// connection. Order matters: stop producing work (scheduler, monitor)
// before draining the notification queue, and disconnect Mongo last so
// draining tasks can still write.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt.scheduler != nil {
		logger.Info("stopping challenge scheduler")
		rt.scheduler.Stop()
	}
	if rt.monitor != nil {
		rt.monitor.StopAll()
	}
	if rt.pool != nil {
		logger.Info("draining notification queue")
		rt.pool.Shutdown()
	}
	if err := rt.cache.Close(); err != nil {
		logger.Warn("redis close failed", zap.Error(err))
	}

	if deps.SkillHubMongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.SkillHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
