package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/robalyx/hivesync/internal/database"
	"github.com/robalyx/hivesync/internal/database/migrations"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

func TestNewConnection_RescalesMicrosecondTimestamps(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hivesync.db")
	created := time.Date(2024, 1, 2, 12, 0, 0, 123456000, time.UTC)

	// Store laid out before timestamps were kept in nanoseconds
	conn, err := sqlite.OpenConn(path)
	require.NoError(t, err)

	legacy := sqlitemigration.Schema{Migrations: migrations.Schema.Migrations[:2]}
	require.NoError(t, sqlitemigration.Migrate(t.Context(), conn, legacy))
	require.NoError(t, sqlitex.Execute(conn,
		"INSERT INTO posts (id, author, created) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{"a", "alice", created.UnixMicro()}},
	))
	require.NoError(t, conn.Close())

	client, err := database.NewConnection(t.Context(),
		&config.Store{Path: path, PoolSize: 2},
		&config.Ranking{PayoutConversion: 0.107},
		zap.NewNop(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	posts, err := client.Model().Post().GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, posts[0].Created.Equal(created), "got %s", posts[0].Created)
}
