package handler

import (
	"context"
	"net/http"

	"github.com/robalyx/hivesync/internal/database"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/rest/convert"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// RankingHandler handles author ranking endpoints.
type RankingHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(db database.Client, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{
		db:     db,
		logger: logger,
	}
}

// GetPostRanking ranks authors by the number of stored posts.
func (h *RankingHandler) GetPostRanking(w http.ResponseWriter, req bunrouter.Request) error {
	return h.rank(w, req, h.db.Service().Ranking().ByPostCount)
}

// GetPayoutRanking ranks authors by converted pending payout.
func (h *RankingHandler) GetPayoutRanking(w http.ResponseWriter, req bunrouter.Request) error {
	return h.rank(w, req, h.db.Service().Ranking().ByPayout)
}

func (h *RankingHandler) rank(
	w http.ResponseWriter, req bunrouter.Request, ranking func(context.Context) ([]types.AuthorMetric, error),
) error {
	limit, ok := intParam(req.URL.Query().Get("limit"), 0)
	if !ok {
		return writeError(w, http.StatusBadRequest, "limit must be a positive integer")
	}

	metrics, err := ranking(req.Context())
	if err != nil {
		h.logger.Error("Failed to rank authors", zap.String("path", req.URL.Path), zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	if limit > 0 && len(metrics) > limit {
		metrics = metrics[:limit]
	}

	return writeJSON(w, http.StatusOK, convert.AuthorMetrics(metrics))
}
