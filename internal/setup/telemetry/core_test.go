package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		function string
		want     string
	}{
		{"github.com/robalyx/hivesync/internal/database/models.(*PostModel).UpsertMany", "database"},
		{"github.com/robalyx/hivesync/internal/syncer.(*Engine).Sync", "sync"},
		{"github.com/robalyx/hivesync/internal/reputation.(*Cache).GetReputation", "reputation"},
		{"github.com/robalyx/hivesync/internal/proxy.(*Server).GetPosts", "proxy"},
		{"github.com/robalyx/hivesync/internal/rest/handler.(*SyncHandler).Sync", "api"},
		{"github.com/robalyx/hivesync/internal/worker/sync.(*Worker).Start", "worker"},
		{"main.main", "application"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			ent := zapcore.Entry{Caller: zapcore.EntryCaller{Defined: true, Function: tt.function}}
			assert.Equal(t, tt.want, getErrorCategory(ent))
		})
	}
}

func TestCore_OnlyErrors(t *testing.T) {
	core := NewCore(zapcore.ErrorLevel)
	assert.False(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}
