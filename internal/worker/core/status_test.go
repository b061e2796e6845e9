package core_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/hivesync/internal/worker/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, client
}

func TestMonitor_ReportAndList(t *testing.T) {
	mr, client := newRedis(t)
	monitor := core.NewMonitor(client, zap.NewNop())
	ctx := t.Context()

	require.NoError(t, monitor.ReportStatus(ctx, core.Status{
		WorkerID:    "w1",
		WorkerType:  "sync",
		CurrentTask: "Syncing",
		Progress:    50,
		IsHealthy:   true,
	}))
	require.NoError(t, monitor.ReportStatus(ctx, core.Status{
		WorkerID:   "w2",
		WorkerType: "sync",
		LastError:  "remote request failed",
	}))

	assert.Equal(t, core.HeartbeatTTL, mr.TTL("hivesync:worker:sync:w1"))

	statuses, err := monitor.GetAllStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byID := make(map[string]core.Status, len(statuses))
	for _, s := range statuses {
		byID[s.WorkerID] = s
	}

	assert.Equal(t, "Syncing", byID["w1"].CurrentTask)
	assert.Equal(t, 50, byID["w1"].Progress)
	assert.True(t, byID["w1"].IsHealthy)
	assert.False(t, byID["w1"].IsStale(time.Now()))
	assert.False(t, byID["w2"].IsHealthy)
	assert.Equal(t, "remote request failed", byID["w2"].LastError)

	require.NoError(t, monitor.ClearStatus(ctx, "sync", "w1"))
	assert.False(t, mr.Exists("hivesync:worker:sync:w1"))
}

func TestStatusReporter_Heartbeat(t *testing.T) {
	mr, client := newRedis(t)

	reporter := core.NewStatusReporter(client, "sync", zap.NewNop())
	reporter.SetInterval(10 * time.Millisecond)
	reporter.UpdateStatus("Fetching feed", 10)

	key := "hivesync:worker:sync:" + reporter.GetWorkerID()

	reporter.Start(t.Context())
	require.Eventually(t, func() bool { return mr.Exists(key) }, time.Second, 5*time.Millisecond)

	reporter.SetHealthy(false, assert.AnError)
	snapshot := reporter.Snapshot()
	assert.False(t, snapshot.IsHealthy)
	assert.Equal(t, assert.AnError.Error(), snapshot.LastError)
	assert.Equal(t, "Fetching feed", snapshot.CurrentTask)

	reporter.Stop()
	reporter.Stop()
	assert.False(t, mr.Exists(key))
}

func TestStatusReporter_WithoutRedis(t *testing.T) {
	reporter := core.NewStatusReporter(nil, "sync", zap.NewNop())
	reporter.Start(t.Context())
	reporter.UpdateStatus("Idle", 0)
	reporter.SetHealthy(true, nil)

	assert.Equal(t, "Idle", reporter.Snapshot().CurrentTask)
	assert.NotEmpty(t, reporter.GetWorkerID())
	reporter.Stop()
}
