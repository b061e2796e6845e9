package reputation_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robalyx/hivesync/internal/database/dbtest"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/remote"
	"github.com/robalyx/hivesync/internal/reputation"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource serves scores from a map and counts calls per account.
type fakeSource struct {
	mu     sync.Mutex
	scores map[string]float64
	calls  map[string]int
	active atomic.Int32
	peak   atomic.Int32
	delay  time.Duration
}

func newFakeSource(scores map[string]float64) *fakeSource {
	return &fakeSource{scores: scores, calls: make(map[string]int)}
}

func (f *fakeSource) Lookup(_ context.Context, account string) (float64, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[account]++

	score, ok := f.scores[account]
	if !ok {
		return 0, errors.Join(remote.ErrNetwork, errors.New("HTTP 404"))
	}
	return score, nil
}

func (f *fakeSource) callCount(account string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[account]
}

func TestCache_CacheAside(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	source := newFakeSource(map[string]float64{"alice": 55.4})
	cache := reputation.New(client.Model().Reputation(), source, &config.Reputation{}, zap.NewNop())
	ctx := t.Context()

	assert.Equal(t, int64(55), cache.GetReputation(ctx, "alice"))
	assert.Equal(t, int64(55), cache.GetReputation(ctx, "alice"))
	assert.Equal(t, 1, source.callCount("alice"), "second lookup is served from the store")

	score, found, err := client.Model().Reputation().Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(55), score)
}

func TestCache_FallbackNotCached(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	source := newFakeSource(map[string]float64{})
	cache := reputation.New(client.Model().Reputation(), source, &config.Reputation{}, zap.NewNop())
	ctx := t.Context()

	assert.Equal(t, int64(25), cache.GetReputation(ctx, "bob"))
	assert.Equal(t, int64(25), cache.Fallback())

	_, found, err := client.Model().Reputation().Get(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, int64(25), cache.GetReputation(ctx, "bob"))
	assert.Equal(t, 2, source.callCount("bob"), "failures are retried on the next lookup")
}

func TestCache_MalformedScoreNotCached(t *testing.T) {
	t.Parallel()

	scores := map[string]string{
		"nan":      `"NaN"`,
		"inf":      `"Inf"`,
		"huge":     `"1e300"`,
		"hugenum":  `1e300`,
		"negative": `-1e19`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(scores[strings.TrimPrefix(r.URL.Path, "/")]))
	}))
	t.Cleanup(server.Close)

	cfg := &config.Reputation{Endpoint: server.URL, RequestTimeout: 5000}
	client := dbtest.NewClient(t)
	cache := reputation.New(client.Model().Reputation(), remote.NewReputationClient(cfg, zap.NewNop()), cfg, zap.NewNop())
	ctx := t.Context()

	for account := range scores {
		t.Run(account, func(t *testing.T) {
			assert.Equal(t, int64(25), cache.GetReputation(ctx, account))

			_, found, err := client.Model().Reputation().Get(ctx, account)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestCache_NonFiniteSourceScore(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	source := newFakeSource(map[string]float64{"nan": math.NaN(), "inf": math.Inf(-1)})
	cache := reputation.New(client.Model().Reputation(), source, &config.Reputation{}, zap.NewNop())
	ctx := t.Context()

	for _, account := range []string{"nan", "inf"} {
		assert.Equal(t, int64(25), cache.GetReputation(ctx, account))

		_, found, err := client.Model().Reputation().Get(ctx, account)
		require.NoError(t, err)
		assert.False(t, found, account)
	}
}

func TestCache_ConfiguredFallback(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	cache := reputation.New(client.Model().Reputation(), newFakeSource(nil), &config.Reputation{FallbackScore: 10}, zap.NewNop())

	assert.Equal(t, int64(10), cache.GetReputation(t.Context(), "nobody"))
}

func TestCache_Rounding(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	source := newFakeSource(map[string]float64{"up": 61.5, "down": 61.49, "neg": -2.5})
	cache := reputation.New(client.Model().Reputation(), source, &config.Reputation{}, zap.NewNop())
	ctx := t.Context()

	assert.Equal(t, int64(62), cache.GetReputation(ctx, "up"))
	assert.Equal(t, int64(61), cache.GetReputation(ctx, "down"))
	assert.Equal(t, int64(-3), cache.GetReputation(ctx, "neg"))
}

func TestCache_Purge(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	source := newFakeSource(map[string]float64{"alice": 55})
	cache := reputation.New(client.Model().Reputation(), source, &config.Reputation{}, zap.NewNop())
	ctx := t.Context()

	cache.GetReputation(ctx, "alice")
	require.NoError(t, cache.Purge(ctx, "alice"))
	cache.GetReputation(ctx, "alice")

	assert.Equal(t, 2, source.callCount("alice"))
}

func TestCache_Annotate(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	source := newFakeSource(map[string]float64{"alice": 55, "carol": 70, "dave": 40, "erin": 12})
	source.delay = 20 * time.Millisecond
	cache := reputation.New(client.Model().Reputation(), source, &config.Reputation{MaxConcurrent: 2}, zap.NewNop())

	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	posts := []*types.Post{
		dbtest.Post("1", "alice", created),
		dbtest.Post("2", "bob", created),
		dbtest.Post("3", "alice", created),
		dbtest.Post("4", "carol", created),
		dbtest.Post("5", "dave", created),
		dbtest.Post("6", "erin", created),
	}

	scores := cache.Annotate(t.Context(), posts)

	assert.Equal(t, map[string]int64{"alice": 55, "bob": 25, "carol": 70, "dave": 40, "erin": 12}, scores)
	assert.Equal(t, 1, source.callCount("alice"), "authors are deduplicated")
	assert.LessOrEqual(t, source.peak.Load(), int32(2))
}
