package service_test

import (
	"testing"
	"time"

	"github.com/robalyx/hivesync/internal/database/dbtest"
	"github.com/robalyx/hivesync/internal/database/service"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictionService_EvictOlderThan(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	ctx := t.Context()
	now := time.Now().UTC()

	require.NoError(t, client.Model().Post().UpsertMany(ctx, []*types.Post{
		dbtest.Post("ancient", "alice", now.Add(-72*time.Hour)),
		dbtest.Post("stale", "bob", now.Add(-25*time.Hour)),
		dbtest.Post("fresh", "carol", now.Add(-23*time.Hour)),
		dbtest.Post("new", "dave", now),
	}))

	eviction := client.Service().Eviction()

	deleted, err := eviction.EvictOlderThan(ctx, service.RetentionHorizon)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := client.Model().Post().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "fresh", remaining[0].ID)
	assert.Equal(t, "new", remaining[1].ID)

	// Idempotent
	deleted, err = eviction.EvictExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestEvictionService_InvalidHorizon(t *testing.T) {
	t.Parallel()

	eviction := dbtest.NewClient(t).Service().Eviction()

	for _, horizon := range []time.Duration{0, -time.Hour} {
		_, err := eviction.EvictOlderThan(t.Context(), horizon)
		require.ErrorIs(t, err, types.ErrInvalidArgument)
	}
}

func TestEvictionService_EmptyStore(t *testing.T) {
	t.Parallel()

	deleted, err := dbtest.NewClient(t).Service().Eviction().EvictExpired(t.Context())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
