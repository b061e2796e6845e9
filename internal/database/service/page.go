package service

import (
	"context"
	"fmt"
	"math"

	"github.com/robalyx/hivesync/internal/database/models"
	"github.com/robalyx/hivesync/internal/database/types"
	"go.uber.org/zap"
)

// maxPagePrealloc bounds the capacity reserved up front for a page.
const maxPagePrealloc = 256

// PageService handles pagination over the created index.
type PageService struct {
	model  *models.PostModel
	logger *zap.Logger
}

// NewPage creates a new page service.
func NewPage(model *models.PostModel, logger *zap.Logger) *PageService {
	return &PageService{
		model:  model,
		logger: logger.Named("page_service"),
	}
}

// GetPage returns the 1-indexed page of posts, newest first.
// The cursor skips (page-1)*size entries before collecting up to size posts.
// A page beyond the stored data yields an empty slice.
func (s *PageService) GetPage(ctx context.Context, page, size int) ([]*types.Post, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1, got %d", types.ErrInvalidArgument, page)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", types.ErrInvalidArgument, size)
	}

	// An offset past MaxInt is beyond any store.
	if page-1 > math.MaxInt/size {
		return []*types.Post{}, nil
	}

	offset := (page - 1) * size
	posts := make([]*types.Post, 0, min(size, maxPagePrealloc))

	skipped := 0
	for post, err := range s.model.ScanByCreated(ctx, types.OrderDescending) {
		if err != nil {
			return nil, err
		}

		if skipped < offset {
			skipped++
			continue
		}

		posts = append(posts, post)
		if len(posts) == size {
			break
		}
	}

	return posts, nil
}

// TotalPages returns the number of pages needed to show every stored post.
func (s *PageService) TotalPages(ctx context.Context, size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("%w: page size must be positive, got %d", types.ErrInvalidArgument, size)
	}

	count, err := s.model.Count(ctx)
	if err != nil {
		return 0, err
	}

	pages := count / size
	if count%size != 0 {
		pages++
	}

	return pages, nil
}
