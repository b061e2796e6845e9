// Package syncer pulls new posts from the remote feed into the local store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/hivesync/internal/database/models"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/remote"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxLookback bounds how far back a sync asks the feed for items.
const MaxLookback = 24 * time.Hour

// DefaultPageSize is the item limit used when none is configured.
const DefaultPageSize = 1000

// ErrSyncFailed is returned when the remote feed could not be queried or decoded.
var ErrSyncFailed = errors.New("sync failed")

// Status describes the outcome of a sync.
type Status string

const (
	StatusSynced        Status = "synced"
	StatusNothingToSync Status = "nothing_to_sync"
)

// Result summarizes one sync.
type Result struct {
	NewItemCount  int       `json:"newItemCount"`
	LatestCreated time.Time `json:"latestCreated"`
	Skipped       int       `json:"skipped"`
	Status        Status    `json:"status"`
}

// Message renders the result the way it is shown to users.
func (r *Result) Message() string {
	if r.Status == StatusNothingToSync {
		return "No new posts to sync."
	}

	return fmt.Sprintf("Synced %d new posts. Latest: %s", r.NewItemCount, r.LatestCreated.UTC().Format(time.RFC3339))
}

// Feed fetches items from the remote feed.
type Feed interface {
	Fetch(ctx context.Context, query remote.FeedQuery) (*remote.FeedPage, error)
}

// Engine runs incremental syncs against a single store.
type Engine struct {
	posts    *models.PostModel
	meta     *models.MetaModel
	feed     Feed
	pageSize int
	logger   *zap.Logger
	group    singleflight.Group
	now      func() time.Time
}

// New creates a sync engine.
func New(posts *models.PostModel, meta *models.MetaModel, feed Feed, pageSize int, logger *zap.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Engine{
		posts:    posts,
		meta:     meta,
		feed:     feed,
		pageSize: pageSize,
		logger:   logger.Named("syncer"),
		now:      time.Now,
	}
}

// Sync fetches items newer than the stored watermark, upserts them and advances the watermark.
// Concurrent calls share a single in-flight sync.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	v, err, shared := e.group.Do("sync", func() (any, error) {
		return e.sync(ctx)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		e.logger.Debug("Joined in-flight sync")
	}

	result := *v.(*Result)

	return &result, nil
}

func (e *Engine) sync(ctx context.Context) (*Result, error) {
	watermark, hasWatermark, err := e.meta.GetWatermark(ctx)
	if err != nil {
		return nil, err
	}

	// Never ask for more than the retention window
	effective := watermark
	if hasWatermark {
		if floor := e.now().Add(-MaxLookback); watermark.Before(floor) {
			effective = floor
		}
	}

	page, err := e.feed.Fetch(ctx, remote.FeedQuery{Since: effective, Limit: e.pageSize})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	valid := make([]*types.Post, 0, len(page.Posts))
	skipped := page.Malformed

	for _, post := range page.Posts {
		if err := post.Validate(); err != nil {
			e.logger.Debug("Skipping invalid feed item", zap.Error(err))
			skipped++
			continue
		}
		valid = append(valid, post)
	}

	if len(valid) == 0 {
		e.logger.Info("No new posts to sync",
			zap.Time("since", effective),
			zap.Int("skipped", skipped))

		return &Result{Status: StatusNothingToSync, Skipped: skipped}, nil
	}

	if err := e.posts.UpsertMany(ctx, valid); err != nil {
		return nil, err
	}

	latest := effective
	for _, post := range valid {
		if post.Created.After(latest) {
			latest = post.Created
		}
	}

	if err := e.meta.SetWatermark(ctx, latest); err != nil {
		return nil, err
	}

	e.logger.Info("Synced posts",
		zap.Int("count", len(valid)),
		zap.Int("skipped", skipped),
		zap.Time("watermark", latest))

	return &Result{
		NewItemCount:  len(valid),
		LatestCreated: latest,
		Skipped:       skipped,
		Status:        StatusSynced,
	}, nil
}
