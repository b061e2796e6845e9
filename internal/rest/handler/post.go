package handler

import (
	"errors"
	"net/http"

	"github.com/robalyx/hivesync/internal/database"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/reputation"
	"github.com/robalyx/hivesync/internal/rest/convert"
	restTypes "github.com/robalyx/hivesync/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// DefaultPageSize is used when a request omits the size parameter.
const DefaultPageSize = 20

// PostHandler handles post-related REST endpoints.
type PostHandler struct {
	db         database.Client
	reputation *reputation.Cache
	logger     *zap.Logger
}

// NewPostHandler creates a new post handler.
func NewPostHandler(db database.Client, reputation *reputation.Cache, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		db:         db,
		reputation: reputation,
		logger:     logger,
	}
}

// GetPosts godoc
//
//	@Summary		List posts
//	@Description	Returns one page of posts, newest first, annotated with author reputation
//	@Tags			posts
//	@Produce		json
//	@Param			page	query		int	false	"Page number, 1-indexed"
//	@Param			size	query		int	false	"Page size"
//	@Success		200		{object}	types.GetPostsResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		500		{object}	types.ErrorResponse
//	@Router			/posts [get]
func (h *PostHandler) GetPosts(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	page, ok := intParam(query.Get("page"), 1)
	if !ok {
		return writeError(w, http.StatusBadRequest, "page must be a positive integer")
	}

	size, ok := intParam(query.Get("size"), DefaultPageSize)
	if !ok {
		return writeError(w, http.StatusBadRequest, "size must be a positive integer")
	}

	ctx := req.Context()
	pages := h.db.Service().Page()

	posts, err := pages.GetPage(ctx, page, size)
	if err != nil {
		if errors.Is(err, types.ErrInvalidArgument) {
			return writeError(w, http.StatusBadRequest, err.Error())
		}
		h.logger.Error("Failed to get page", zap.Int("page", page), zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	total, err := h.db.Model().Post().Count(ctx)
	if err != nil {
		h.logger.Error("Failed to count posts", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	totalPages, err := pages.TotalPages(ctx, size)
	if err != nil {
		h.logger.Error("Failed to count pages", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	reputations := h.reputation.Annotate(ctx, posts)

	return writeJSON(w, http.StatusOK, restTypes.GetPostsResponse{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		Items:      convert.Posts(posts, reputations, h.reputation.Fallback()),
	})
}

// GetStatus godoc
//
//	@Summary		Store status
//	@Description	Returns the number of stored posts and the sync watermark
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	types.StatusResponse
//	@Router			/status [get]
func (h *PostHandler) GetStatus(w http.ResponseWriter, req bunrouter.Request) error {
	ctx := req.Context()

	total, err := h.db.Model().Post().Count(ctx)
	if err != nil {
		h.logger.Error("Failed to count posts", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	watermark, found, err := h.db.Model().Meta().GetWatermark(ctx)
	if err != nil {
		h.logger.Error("Failed to read watermark", zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}

	response := restTypes.StatusResponse{Total: total}
	if found {
		response.Watermark = &watermark
	}

	return writeJSON(w, http.StatusOK, response)
}
