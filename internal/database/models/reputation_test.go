package models_test

import (
	"testing"
	"time"

	"github.com/robalyx/hivesync/internal/database/dbtest"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReputationModel(t *testing.T) {
	t.Parallel()

	reputations := dbtest.NewClient(t).Model().Reputation()
	ctx := t.Context()

	_, found, err := reputations.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, reputations.Put(ctx, "alice", 55))
	score, found, err := reputations.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(55), score)

	require.NoError(t, reputations.Put(ctx, "alice", 60))
	entry, err := reputations.GetEntry(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(60), entry.Score)
	assert.WithinDuration(t, time.Now(), entry.FetchedAt, time.Minute)

	require.NoError(t, reputations.Delete(ctx, "alice"))
	_, found, err = reputations.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, reputations.Delete(ctx, "nobody"))
	require.ErrorIs(t, reputations.Put(ctx, "", 1), types.ErrInvalidArgument)
}

func TestMetaModel_Watermark(t *testing.T) {
	t.Parallel()

	meta := dbtest.NewClient(t).Model().Meta()
	ctx := t.Context()

	_, found, err := meta.GetWatermark(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	mark := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, meta.SetWatermark(ctx, mark))

	got, found, err := meta.GetWatermark(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, mark.Equal(got))

	later := mark.Add(90 * time.Minute)
	require.NoError(t, meta.SetWatermark(ctx, later))
	got, _, err = meta.GetWatermark(ctx)
	require.NoError(t, err)
	assert.True(t, later.Equal(got))
}
