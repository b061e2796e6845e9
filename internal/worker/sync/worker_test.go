package sync_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robalyx/hivesync/internal/database/dbtest"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/remote"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/robalyx/hivesync/internal/syncer"
	"github.com/robalyx/hivesync/internal/worker/core"
	syncworker "github.com/robalyx/hivesync/internal/worker/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorker_RunCycle(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	fresh := now.Add(-time.Hour).Format("2006-01-02T15:04:05")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a","author":"alice","created":"` + fresh + `"}]`))
	}))
	defer server.Close()

	client := dbtest.NewClient(t)
	ctx := t.Context()

	// A stale post that the cycle evicts
	require.NoError(t, client.Model().Post().UpsertMany(ctx, []*types.Post{
		dbtest.Post("stale", "bob", now.Add(-48*time.Hour)),
	}))

	feed := remote.NewFeedClient(&config.Feed{Endpoint: server.URL, RequestTimeout: 5000}, zap.NewNop())
	engine := syncer.New(client.Model().Post(), client.Model().Meta(), feed, 100, zap.NewNop())
	reporter := core.NewStatusReporter(nil, "sync", zap.NewNop())

	worker := syncworker.New(engine, client.Service().Eviction(), reporter, time.Minute, 0, zap.NewNop())
	require.NoError(t, worker.RunCycle(ctx))

	all, err := client.Model().Post().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "Completed", reporter.Snapshot().CurrentTask)
}

func TestWorker_StartRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := dbtest.NewClient(t)
	feed := remote.NewFeedClient(&config.Feed{Endpoint: server.URL, RequestTimeout: 5000}, zap.NewNop())
	engine := syncer.New(client.Model().Post(), client.Model().Meta(), feed, 100, zap.NewNop())
	reporter := core.NewStatusReporter(nil, "sync", zap.NewNop())

	worker := syncworker.New(engine, client.Service().Eviction(), reporter, 5*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return requests.Load() >= 3 && reporter.Snapshot().IsHealthy
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
