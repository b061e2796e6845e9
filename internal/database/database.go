package database

import (
	"context"
	"fmt"

	"github.com/robalyx/hivesync/internal/database/migrations"
	"github.com/robalyx/hivesync/internal/setup/config"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

// connPragmas are applied to every pooled connection.
var connPragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
}

// Client defines the methods that a local store client must implement.
type Client interface {
	// Model returns the repository containing all model operations.
	Model() *Repository
	// Service returns the service containing all service operations.
	Service() *Service
	// Close gracefully shuts down the connection pool.
	Close() error
	// Pool returns the underlying SQLite connection pool.
	Pool() *sqlitex.Pool
}

// clientImpl represents the concrete implementation of the store client.
type clientImpl struct {
	pool    *sqlitex.Pool
	logger  *zap.Logger
	repo    *Repository
	service *Service
}

// NewConnection opens the SQLite store, applies pending migrations and returns a Client instance.
func NewConnection(
	ctx context.Context, storeCfg *config.Store, rankingCfg *config.Ranking, logger *zap.Logger,
) (Client, error) {
	poolSize := max(storeCfg.PoolSize, 1)

	pool, err := sqlitex.NewPool(storeCfg.Path, sqlitex.PoolOptions{
		Flags:    sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenWAL | sqlite.OpenURI,
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			for _, pragma := range connPragmas {
				if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
					return fmt.Errorf("failed to apply %q: %w", pragma, err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", storeCfg.Path, err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	repo := NewRepository(pool, logger)
	service := NewService(repo, rankingCfg, logger)

	client := &clientImpl{
		pool:    pool,
		logger:  logger,
		repo:    repo,
		service: service,
	}

	logger.Info("Store opened",
		zap.String("path", storeCfg.Path),
		zap.Int("poolSize", poolSize))

	return client, nil
}

// migrate brings the schema up to date.
func migrate(ctx context.Context, pool *sqlitex.Pool) error {
	conn, err := pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pool.Put(conn)

	if err := sqlitemigration.Migrate(ctx, conn, migrations.Schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close gracefully shuts down the connection pool.
func (c *clientImpl) Close() error {
	err := c.pool.Close()
	if err != nil {
		c.logger.Error("Failed to close store", zap.Error(err))
		return err
	}

	c.logger.Info("Store closed")

	return nil
}

// Model returns the repository containing all model operations.
func (c *clientImpl) Model() *Repository {
	return c.repo
}

// Service returns the service containing all service operations.
func (c *clientImpl) Service() *Service {
	return c.service
}

// Pool returns the underlying SQLite connection pool.
func (c *clientImpl) Pool() *sqlitex.Pool {
	return c.pool
}
