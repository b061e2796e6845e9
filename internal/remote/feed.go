package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/setup/config"
	"go.uber.org/zap"
)

// FeedQuery bounds a feed request.
type FeedQuery struct {
	// Since is the lower bound on created; the zero value omits it.
	Since time.Time
	// Limit caps the number of returned items.
	Limit int
}

// FeedPage is a decoded feed response.
type FeedPage struct {
	// Posts are the items that could be normalized, in response order.
	Posts []*types.Post
	// Malformed counts items that could not be normalized.
	Malformed int
}

// FeedClient queries the remote feed service.
type FeedClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewFeedClient creates a feed client from configuration.
func NewFeedClient(cfg *config.Feed, logger *zap.Logger) *FeedClient {
	return &FeedClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Millisecond},
		logger:   logger.Named("feed_client"),
	}
}

// Fetch requests feed items. Non-2xx responses and transport failures wrap ErrNetwork,
// undecodable bodies wrap ErrMalformedPayload.
func (c *FeedClient) Fetch(ctx context.Context, query FeedQuery) (*FeedPage, error) {
	requestURL, err := c.buildURL(query)
	if err != nil {
		return nil, err
	}

	body, err := get(ctx, c.client, requestURL)
	if err != nil {
		return nil, err
	}

	page, err := DecodeFeed(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched feed",
		zap.String("url", requestURL),
		zap.Int("items", len(page.Posts)),
		zap.Int("malformed", page.Malformed))

	return page, nil
}

func (c *FeedClient) buildURL(query FeedQuery) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: invalid feed endpoint %q: %w", ErrNetwork, c.endpoint, err)
	}

	values := u.Query()
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if !query.Since.IsZero() {
		values.Set("since", query.Since.UTC().Format(time.RFC3339Nano))
	}
	u.RawQuery = values.Encode()

	return u.String(), nil
}

// DecodeFeed decodes either an {"items": [...]} envelope or a bare array.
func DecodeFeed(body []byte) (*FeedPage, error) {
	var items []map[string]any

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := sonic.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
	} else {
		var envelope struct {
			Items []map[string]any `json:"items"`
		}
		if err := sonic.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		items = envelope.Items
	}

	page := &FeedPage{Posts: make([]*types.Post, 0, len(items))}
	for _, item := range items {
		if item == nil {
			page.Malformed++
			continue
		}

		post, err := types.PostFromMap(item)
		if err != nil {
			page.Malformed++
			continue
		}

		page.Posts = append(page.Posts, post)
	}

	return page, nil
}
