package models

import (
	"context"
	"time"

	"github.com/robalyx/hivesync/internal/database/types"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ReputationModel handles database operations for cached reputation scores.
type ReputationModel struct {
	pool   *sqlitex.Pool
	logger *zap.Logger
}

// NewReputation creates a new reputation model.
func NewReputation(pool *sqlitex.Pool, logger *zap.Logger) *ReputationModel {
	return &ReputationModel{
		pool:   pool,
		logger: logger.Named("db_reputation"),
	}
}

// Get returns the cached score for an account and whether it was found.
func (r *ReputationModel) Get(ctx context.Context, account string) (int64, bool, error) {
	entry, err := r.GetEntry(ctx, account)
	if err != nil || entry == nil {
		return 0, false, err
	}

	return entry.Score, true, nil
}

// GetEntry returns the cached entry for an account, or nil if none exists.
func (r *ReputationModel) GetEntry(ctx context.Context, account string) (*types.ReputationEntry, error) {
	var entry *types.ReputationEntry

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"SELECT account, score, fetched_at FROM reputations WHERE account = ?",
			&sqlitex.ExecOptions{
				Args: []any{account},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					entry = &types.ReputationEntry{
						Account:   stmt.ColumnText(0),
						Score:     stmt.ColumnInt64(1),
						FetchedAt: time.UnixMicro(stmt.ColumnInt64(2)).UTC(),
					}
					return nil
				},
			})
	})
	if err != nil {
		return nil, storageError("get reputation", err)
	}

	return entry, nil
}

// Put stores or overwrites the score for an account.
func (r *ReputationModel) Put(ctx context.Context, account string, score int64) error {
	if account == "" {
		return types.ErrInvalidArgument
	}

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO reputations (account, score, fetched_at) VALUES (?, ?, ?)
			ON CONFLICT (account) DO UPDATE SET
				score = excluded.score,
				fetched_at = excluded.fetched_at`,
			&sqlitex.ExecOptions{
				Args: []any{account, score, time.Now().UnixMicro()},
			})
	})
	if err != nil {
		return storageError("put reputation", err)
	}

	return nil
}

// Delete removes the cached score for an account. Missing entries are ignored.
func (r *ReputationModel) Delete(ctx context.Context, account string) error {
	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "DELETE FROM reputations WHERE account = ?", &sqlitex.ExecOptions{
			Args: []any{account},
		})
	})
	if err != nil {
		return storageError("delete reputation", err)
	}

	r.logger.Debug("Purged reputation", zap.String("account", account))

	return nil
}
