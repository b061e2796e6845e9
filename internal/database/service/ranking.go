package service

import (
	"context"
	"slices"

	"github.com/robalyx/hivesync/internal/database/models"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/pkg/utils"
	"go.uber.org/zap"
)

// DefaultPayoutConversion converts halved HIVE payouts into the ranking unit.
const DefaultPayoutConversion = 0.107

// RankingService aggregates per-author rankings over every stored post.
type RankingService struct {
	model      *models.PostModel
	conversion float64
	logger     *zap.Logger
}

// NewRanking creates a new ranking service. A non-positive conversion uses the default.
func NewRanking(model *models.PostModel, conversion float64, logger *zap.Logger) *RankingService {
	if conversion <= 0 {
		conversion = DefaultPayoutConversion
	}

	return &RankingService{
		model:      model,
		conversion: conversion,
		logger:     logger.Named("ranking_service"),
	}
}

// ByPostCount ranks authors by number of stored posts, highest first.
// Ties keep the order in which authors were first seen.
func (s *RankingService) ByPostCount(ctx context.Context) ([]types.AuthorMetric, error) {
	return s.aggregate(ctx, func(*types.Post) float64 { return 1 })
}

// ByPayout ranks authors by summed pending payout, highest first.
// Each payout is halved and divided by the configured conversion.
func (s *RankingService) ByPayout(ctx context.Context) ([]types.AuthorMetric, error) {
	return s.aggregate(ctx, func(p *types.Post) float64 {
		return utils.ParseAmount(p.PendingPayoutValue) / 2 / s.conversion
	})
}

// Conversion returns the payout conversion in use.
func (s *RankingService) Conversion() float64 {
	return s.conversion
}

// aggregate sums value per author over a full scan and sorts the totals.
func (s *RankingService) aggregate(ctx context.Context, value func(*types.Post) float64) ([]types.AuthorMetric, error) {
	posts, err := s.model.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	metrics := make([]types.AuthorMetric, 0)

	for _, post := range posts {
		i, ok := index[post.Author]
		if !ok {
			i = len(metrics)
			index[post.Author] = i
			metrics = append(metrics, types.AuthorMetric{Author: post.Author})
		}

		metrics[i].Value += value(post)
	}

	slices.SortStableFunc(metrics, func(a, b types.AuthorMetric) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		default:
			return 0
		}
	})

	s.logger.Debug("Aggregated ranking",
		zap.Int("posts", len(posts)),
		zap.Int("authors", len(metrics)))

	return metrics, nil
}
