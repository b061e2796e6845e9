package setup_test

import (
	"path/filepath"
	"testing"

	"github.com/robalyx/hivesync/internal/setup"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/robalyx/hivesync/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp(t *testing.T) {
	dir := t.TempDir()

	cfg := &config.Config{
		Common: config.CommonConfig{
			Version: config.CurrentCommonVersion,
			Debug:   config.Debug{LogLevel: "debug", MaxLogsToKeep: 2, MaxLogLines: 100},
			Store:   config.Store{Path: filepath.Join(dir, "hivesync.db"), PoolSize: 2},
			Feed:    config.Feed{Endpoint: "http://127.0.0.1:1/api/posts", PageSize: 10, RequestTimeout: 100},
			Ranking: config.Ranking{PayoutConversion: 0.107},
		},
	}

	app, err := setup.NewApp(t.Context(), cfg, dir, telemetry.ServiceCLI, filepath.Join(dir, "logs"))
	require.NoError(t, err)
	defer app.Cleanup(t.Context())

	assert.Nil(t, app.StatusClient)
	assert.NotNil(t, app.Syncer)
	assert.NotNil(t, app.Reputation)

	count, err := app.DB.Model().Post().Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.DirExists(t, app.LogManager.GetCurrentSessionDir())
}
