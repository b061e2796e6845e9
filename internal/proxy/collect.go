package proxy

import (
	"context"
	"time"

	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/sourcegraph/conc/pool"
)

// maxCollectPrealloc bounds the capacity reserved up front for collected posts.
const maxCollectPrealloc = 10000

// PageFetcher reads one page of posts created at or after since.
type PageFetcher interface {
	FetchPage(ctx context.Context, since time.Time, offset, limit int) ([]*types.Post, error)
}

// CollectOptions controls how Collect walks the comment pages.
type CollectOptions struct {
	Since       time.Time
	Limit       int
	Concurrency int
	PageSize    int
}

// Collect gathers up to opts.Limit posts by fetching pages of opts.PageSize rows,
// opts.Concurrency pages at a time. Pages are concatenated in page order and the
// walk ends once the limit is reached or a short page shows the rows ran out.
func Collect(ctx context.Context, fetcher PageFetcher, opts CollectOptions) ([]*types.Post, error) {
	if opts.Limit <= 0 {
		return []*types.Post{}, nil
	}

	pageSize := max(opts.PageSize, 1)
	concurrency := max(opts.Concurrency, 1)
	totalPages := opts.Limit / pageSize
	if opts.Limit%pageSize != 0 {
		totalPages++
	}
	concurrency = min(concurrency, totalPages)

	posts := make([]*types.Post, 0, min(opts.Limit, maxCollectPrealloc))

	for page := 0; page < totalPages; page += concurrency {
		batchSize := min(concurrency, totalPages-page)
		batch := make([][]*types.Post, batchSize)

		p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(batchSize)
		for i := range batchSize {
			offset := (page + i) * pageSize
			p.Go(func(ctx context.Context) error {
				rows, err := fetcher.FetchPage(ctx, opts.Since, offset, pageSize)
				if err != nil {
					return err
				}

				batch[i] = rows

				return nil
			})
		}

		if err := p.Wait(); err != nil {
			return nil, err
		}

		exhausted := false
		for _, rows := range batch {
			posts = append(posts, rows...)
			if len(rows) < pageSize {
				exhausted = true
				break
			}
		}

		if exhausted || len(posts) >= opts.Limit {
			break
		}
	}

	if len(posts) > opts.Limit {
		posts = posts[:opts.Limit]
	}

	return posts, nil
}
