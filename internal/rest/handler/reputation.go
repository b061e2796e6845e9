package handler

import (
	"net/http"

	"github.com/robalyx/hivesync/internal/reputation"
	restTypes "github.com/robalyx/hivesync/internal/rest/types"
	"github.com/uptrace/bunrouter"
)

// ReputationHandler handles account reputation lookups.
type ReputationHandler struct {
	cache *reputation.Cache
}

// NewReputationHandler creates a new reputation handler.
func NewReputationHandler(cache *reputation.Cache) *ReputationHandler {
	return &ReputationHandler{cache: cache}
}

// GetReputation returns the cached or freshly fetched score for an account.
// Lookup failures resolve to the fallback score rather than an error.
func (h *ReputationHandler) GetReputation(w http.ResponseWriter, req bunrouter.Request) error {
	account := req.Param("account")

	return writeJSON(w, http.StatusOK, restTypes.GetReputationResponse{
		Account:    account,
		Reputation: h.cache.GetReputation(req.Context(), account),
	})
}
