package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/hivesync/internal/database/models"
	"github.com/robalyx/hivesync/internal/database/types"
	"go.uber.org/zap"
)

// RetentionHorizon is how long mirrored posts are kept.
const RetentionHorizon = 24 * time.Hour

// EvictionService handles time-based removal of old posts.
type EvictionService struct {
	model  *models.PostModel
	logger *zap.Logger
	now    func() time.Time
}

// NewEviction creates a new eviction service.
func NewEviction(model *models.PostModel, logger *zap.Logger) *EvictionService {
	return &EvictionService{
		model:  model,
		logger: logger.Named("eviction_service"),
		now:    time.Now,
	}
}

// EvictOlderThan deletes every post created at or before now minus horizon.
// Expired ids are collected by walking the created index oldest first, stopping
// at the first post past the cutoff. It returns the number of deleted posts.
func (s *EvictionService) EvictOlderThan(ctx context.Context, horizon time.Duration) (int, error) {
	if horizon <= 0 {
		return 0, fmt.Errorf("%w: horizon must be positive, got %s", types.ErrInvalidArgument, horizon)
	}

	cutoff := s.now().Add(-horizon)

	var expired []string
	for post, err := range s.model.ScanByCreated(ctx, types.OrderAscending) {
		if err != nil {
			return 0, err
		}
		if post.Created.After(cutoff) {
			break
		}
		expired = append(expired, post.ID)
	}

	deleted, err := s.model.DeleteByIDs(ctx, expired)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Evicted old posts",
		zap.Int("deleted", deleted),
		zap.Time("cutoff", cutoff))

	return deleted, nil
}

// EvictExpired deletes posts older than the retention horizon.
func (s *EvictionService) EvictExpired(ctx context.Context) (int, error) {
	return s.EvictOlderThan(ctx, RetentionHorizon)
}
