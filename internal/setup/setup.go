package setup

import (
	"context"
	"errors"
	"log"

	"github.com/redis/rueidis"
	"github.com/robalyx/hivesync/internal/database"
	"github.com/robalyx/hivesync/internal/redis"
	"github.com/robalyx/hivesync/internal/remote"
	"github.com/robalyx/hivesync/internal/reputation"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/robalyx/hivesync/internal/setup/telemetry"
	"github.com/robalyx/hivesync/internal/syncer"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the first config file was found in
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Store-specific logger
	DB           database.Client    // Local store
	Syncer       *syncer.Engine     // Feed sync engine
	Reputation   *reputation.Cache  // Cache-aside reputation lookup
	RedisManager *redis.Manager     // Redis connection manager
	StatusClient rueidis.Client     // Redis client for worker status reporting, nil when disabled
	LogManager   *telemetry.Manager // Log management system
}

// InitializeApp bootstraps all application dependencies in order.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	files := []string{config.FileCommon}
	if serviceType == telemetry.ServiceWorker || serviceType == telemetry.ServiceAPI {
		files = append(files, config.FileWorker)
	}

	cfg, configDir, err := config.LoadConfig(files...)
	if err != nil {
		return nil, err
	}

	return NewApp(ctx, cfg, configDir, serviceType, logDir)
}

// NewApp builds the application from an already loaded configuration.
func NewApp(
	ctx context.Context, cfg *config.Config, configDir string, serviceType telemetry.ServiceType, logDir string,
) (*App, error) {
	// Logging system is initialized first to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(ctx, &cfg.Common.Store, &cfg.Common.Ranking, dbLogger.Named("database"))
	if err != nil {
		logManager.Close()
		return nil, err
	}

	// Redis is only used for worker heartbeats
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	var statusClient rueidis.Client
	if redisManager.Enabled() {
		statusClient, err = redisManager.GetClient(redis.WorkerStatusDBIndex)
		if err != nil {
			logger.Warn("Worker status reporting disabled", zap.Error(err))
		}
	}

	feed := remote.NewFeedClient(&cfg.Common.Feed, logger)
	engine := syncer.New(db.Model().Post(), db.Model().Meta(), feed, cfg.Common.Feed.PageSize, logger)

	reputationClient := remote.NewReputationClient(&cfg.Common.Reputation, logger)
	reputationCache := reputation.New(db.Model().Reputation(), reputationClient, &cfg.Common.Reputation, logger)

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		Syncer:       engine,
		Reputation:   reputationCache,
		RedisManager: redisManager,
		StatusClient: statusClient,
		LogManager:   logManager,
	}, nil
}

// Cleanup shuts down all components in reverse initialization order.
// Errors are logged so every component gets a cleanup attempt.
func (s *App) Cleanup(_ context.Context) {
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close store: %v", err)
	}

	s.RedisManager.Close()

	// Sync buffered logs last
	if err := errors.Join(s.Logger.Sync(), s.DBLogger.Sync()); err != nil {
		log.Printf("Failed to sync loggers: %v", err)
	}

	s.LogManager.Close()
}
