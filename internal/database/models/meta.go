package models

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// WatermarkKey is the meta key holding the sync watermark.
const WatermarkKey = "lastSynced"

// MetaModel handles the key/value meta collection.
type MetaModel struct {
	pool   *sqlitex.Pool
	logger *zap.Logger
}

// NewMeta creates a new meta model.
func NewMeta(pool *sqlitex.Pool, logger *zap.Logger) *MetaModel {
	return &MetaModel{
		pool:   pool,
		logger: logger.Named("db_meta"),
	}
}

// GetWatermark returns the last sync watermark and whether one has been stored.
func (r *MetaModel) GetWatermark(ctx context.Context) (time.Time, bool, error) {
	value, found, err := r.get(ctx, WatermarkKey)
	if err != nil || !found {
		return time.Time{}, false, err
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, storageError("parse watermark", fmt.Errorf("%q: %w", value, err))
	}

	return t.UTC(), true, nil
}

// SetWatermark stores the sync watermark.
func (r *MetaModel) SetWatermark(ctx context.Context, t time.Time) error {
	if err := r.set(ctx, WatermarkKey, t.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	r.logger.Debug("Stored watermark", zap.Time("watermark", t))

	return nil
}

func (r *MetaModel) get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT value FROM meta WHERE key = ?", &sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				value = stmt.ColumnText(0)
				found = true
				return nil
			},
		})
	})
	if err != nil {
		return "", false, storageError("get meta value", err)
	}

	return value, found, nil
}

func (r *MetaModel) set(ctx context.Context, key, value string) error {
	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
			&sqlitex.ExecOptions{Args: []any{key, value}})
	})
	if err != nil {
		return storageError("set meta value", err)
	}

	return nil
}
