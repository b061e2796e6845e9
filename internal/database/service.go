package database

import (
	"github.com/robalyx/hivesync/internal/database/service"
	"github.com/robalyx/hivesync/internal/setup/config"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	page     *service.PageService
	eviction *service.EvictionService
	ranking  *service.RankingService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, rankingCfg *config.Ranking, logger *zap.Logger) *Service {
	return &Service{
		page:     service.NewPage(repository.Post(), logger),
		eviction: service.NewEviction(repository.Post(), logger),
		ranking:  service.NewRanking(repository.Post(), rankingCfg.PayoutConversion, logger),
	}
}

// Page returns the pagination service.
func (s *Service) Page() *service.PageService {
	return s.page
}

// Eviction returns the eviction service.
func (s *Service) Eviction() *service.EvictionService {
	return s.eviction
}

// Ranking returns the ranking service.
func (s *Service) Ranking() *service.RankingService {
	return s.ranking
}
