package service_test

import (
	"testing"
	"time"

	"github.com/robalyx/hivesync/internal/database/dbtest"
	"github.com/robalyx/hivesync/internal/database/service"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEvictionService_CutoffIsInclusive(t *testing.T) {
	t.Parallel()

	client := dbtest.NewClient(t)
	ctx := t.Context()
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-service.RetentionHorizon)

	require.NoError(t, client.Model().Post().UpsertMany(ctx, []*types.Post{
		dbtest.Post("after", "carol", cutoff.Add(500*time.Nanosecond)),
		dbtest.Post("at", "bob", cutoff),
		dbtest.Post("before", "alice", cutoff.Add(-time.Nanosecond)),
	}))

	eviction := service.NewEviction(client.Model().Post(), zap.NewNop())
	eviction.SetClock(func() time.Time { return now })

	deleted, err := eviction.EvictExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := client.Model().Post().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "after", remaining[0].ID)
}
