package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalyx/hivesync/internal/database/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// withConn borrows a pooled connection for the duration of fn.
func withConn(ctx context.Context, pool *sqlitex.Pool, fn func(conn *sqlite.Conn) error) error {
	conn, err := pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to acquire connection: %w", types.ErrStorage, err)
	}
	defer pool.Put(conn)

	return fn(conn)
}

// storageError wraps err as a storage failure with the given action.
func storageError(action string, err error) error {
	if errors.Is(err, types.ErrStorage) {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	return fmt.Errorf("%w: failed to %s: %w", types.ErrStorage, action, err)
}
