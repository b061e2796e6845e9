package setup

import (
	"context"
	"errors"
	"log"

	"github.com/robalyx/hivesync/internal/proxy"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/robalyx/hivesync/internal/setup/telemetry"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ProxyApp bundles the dependencies of the backend proxy.
type ProxyApp struct {
	Config     *config.Config
	Logger     *zap.Logger
	DBLogger   *zap.Logger
	DB         *bun.DB
	LogManager *telemetry.Manager
}

// InitializeProxyApp loads the proxy configuration and connects to the HAF SQL database.
func InitializeProxyApp(ctx context.Context, logDir string) (*ProxyApp, error) {
	cfg, _, err := config.LoadConfig(config.FileCommon, config.FileProxy)
	if err != nil {
		return nil, err
	}

	logManager := telemetry.NewManager(telemetry.ServiceProxy, logDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	db, err := proxy.OpenDB(ctx, &cfg.Proxy.PostgreSQL, dbLogger)
	if err != nil {
		logManager.Close()
		return nil, err
	}

	return &ProxyApp{
		Config:     cfg,
		Logger:     logger,
		DBLogger:   dbLogger,
		DB:         db,
		LogManager: logManager,
	}, nil
}

// Cleanup closes the database and flushes logs.
func (p *ProxyApp) Cleanup() {
	if err := p.DB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}

	if err := errors.Join(p.Logger.Sync(), p.DBLogger.Sync()); err != nil {
		log.Printf("Failed to sync loggers: %v", err)
	}

	p.LogManager.Close()
}
