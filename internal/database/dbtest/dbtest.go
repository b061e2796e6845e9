// Package dbtest opens throwaway stores for tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/robalyx/hivesync/internal/database"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewClient opens a migrated store in a temporary directory and closes it when the test ends.
func NewClient(t testing.TB) database.Client {
	t.Helper()

	client, err := database.NewConnection(t.Context(),
		&config.Store{Path: filepath.Join(t.TempDir(), "hivesync.db"), PoolSize: 4},
		&config.Ranking{PayoutConversion: 0.107},
		zap.NewNop(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// Post builds a valid post for tests.
func Post(id, author string, created time.Time) *types.Post {
	return &types.Post{
		ID:       id,
		Author:   author,
		Permlink: id,
		Title:    "title " + id,
		Body:     "body " + id,
		Created:  created.UTC(),
	}
}
