package handler

import (
	"errors"
	"net/http"

	"github.com/robalyx/hivesync/internal/database"
	"github.com/robalyx/hivesync/internal/rest/convert"
	"github.com/robalyx/hivesync/internal/syncer"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// SyncHandler triggers syncs on demand.
type SyncHandler struct {
	db     database.Client
	engine *syncer.Engine
	logger *zap.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(db database.Client, engine *syncer.Engine, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		db:     db,
		engine: engine,
		logger: logger,
	}
}

// Sync pulls new posts from the feed and then evicts expired ones.
// A feed failure is reported as 502 with the store left untouched; local failures are 500.
func (h *SyncHandler) Sync(w http.ResponseWriter, req bunrouter.Request) error {
	ctx := req.Context()

	result, err := h.engine.Sync(ctx)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncFailed) {
			h.logger.Warn("Sync request failed", zap.Error(err))
			return writeError(w, http.StatusBadGateway, err.Error())
		}

		h.logger.Error("Failed to sync", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	evicted, err := h.db.Service().Eviction().EvictExpired(ctx)
	if err != nil {
		h.logger.Error("Failed to evict after sync", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	h.logger.Info(result.Message(),
		zap.Int("newItems", result.NewItemCount),
		zap.Int("evicted", evicted))

	return writeJSON(w, http.StatusOK, convert.SyncResult(result, evicted))
}
