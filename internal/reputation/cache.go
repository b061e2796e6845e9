// Package reputation provides the cache-aside reputation lookup.
package reputation

import (
	"context"
	"math"
	"sync"

	"github.com/robalyx/hivesync/internal/database/models"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// DefaultFallbackScore is returned when a score cannot be fetched.
const DefaultFallbackScore = 25

// Source looks up raw reputation scores.
type Source interface {
	Lookup(ctx context.Context, account string) (float64, error)
}

// Cache resolves account reputation through the local store first and the remote source on a miss.
// Entries never expire; failed lookups are not cached.
type Cache struct {
	store         *models.ReputationModel
	source        Source
	fallback      int64
	maxConcurrent int
	logger        *zap.Logger
}

// New creates a reputation cache.
func New(store *models.ReputationModel, source Source, cfg *config.Reputation, logger *zap.Logger) *Cache {
	fallback := cfg.FallbackScore
	if fallback == 0 {
		fallback = DefaultFallbackScore
	}

	return &Cache{
		store:         store,
		source:        source,
		fallback:      fallback,
		maxConcurrent: max(cfg.MaxConcurrent, 1),
		logger:        logger.Named("reputation_cache"),
	}
}

// GetReputation returns the score for an account. It never fails: remote failures
// yield the fallback score and storage failures are treated as misses.
func (c *Cache) GetReputation(ctx context.Context, account string) int64 {
	score, found, err := c.store.Get(ctx, account)
	if err != nil {
		c.logger.Warn("Failed to read cached reputation, treating as miss",
			zap.String("account", account),
			zap.Error(err))
	} else if found {
		return score
	}

	raw, err := c.source.Lookup(ctx, account)
	if err != nil {
		c.logger.Warn("Failed to fetch reputation, using fallback",
			zap.String("account", account),
			zap.Int64("fallback", c.fallback),
			zap.Error(err))
		return c.fallback
	}

	rounded := math.Round(raw)
	if math.IsNaN(rounded) || rounded < math.MinInt64 || rounded >= math.MaxInt64 {
		c.logger.Warn("Reputation score out of range, using fallback",
			zap.String("account", account),
			zap.Float64("score", raw),
			zap.Int64("fallback", c.fallback))
		return c.fallback
	}

	score = int64(rounded)

	if err := c.store.Put(ctx, account, score); err != nil {
		c.logger.Warn("Failed to cache reputation",
			zap.String("account", account),
			zap.Error(err))
	}

	return score
}

// Annotate resolves the reputation of every distinct author in posts concurrently.
func (c *Cache) Annotate(ctx context.Context, posts []*types.Post) map[string]int64 {
	authors := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))

	for _, post := range posts {
		if _, ok := seen[post.Author]; ok {
			continue
		}
		seen[post.Author] = struct{}{}
		authors = append(authors, post.Author)
	}

	return c.Resolve(ctx, authors)
}

// Resolve looks up each account through a bounded worker pool.
func (c *Cache) Resolve(ctx context.Context, accounts []string) map[string]int64 {
	var mu sync.Mutex
	scores := make(map[string]int64, len(accounts))

	p := pool.New().WithMaxGoroutines(c.maxConcurrent)
	for _, account := range accounts {
		p.Go(func() {
			score := c.GetReputation(ctx, account)

			mu.Lock()
			scores[account] = score
			mu.Unlock()
		})
	}
	p.Wait()

	return scores
}

// Purge removes the cached score for an account so the next lookup refetches it.
func (c *Cache) Purge(ctx context.Context, account string) error {
	return c.store.Delete(ctx, account)
}

// Fallback returns the score used when a lookup fails.
func (c *Cache) Fallback() int64 {
	return c.fallback
}
