package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzhttp"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// DefaultLookback is the since window used when a request omits one.
const DefaultLookback = 24 * time.Hour

var errBadQuery = errors.New("invalid query parameter")

// sinceLayouts lists the accepted since formats besides the created layouts.
var sinceLayouts = []string{time.DateOnly}

// PostsResponse is the body returned by GET /api/posts.
type PostsResponse struct {
	Total int           `json:"total"`
	Items []*types.Post `json:"items"`
}

// ErrorResponse is the body returned on failure.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Server serves the backend feed endpoint.
type Server struct {
	fetcher PageFetcher
	fetch   config.Fetch
	logger  *zap.Logger
	now     func() time.Time
}

// NewServer creates the proxy HTTP handler.
func NewServer(fetcher PageFetcher, fetchCfg *config.Fetch, logger *zap.Logger) http.Handler {
	server := &Server{
		fetcher: fetcher,
		fetch:   *fetchCfg,
		logger:  logger.Named("proxy"),
		now:     time.Now,
	}

	return server.routes()
}

func (s *Server) routes() http.Handler {
	router := bunrouter.New()
	router.GET("/api/posts", s.GetPosts)

	return gzhttp.GzipHandler(router)
}

// GetPosts returns the posts created since the requested time, oldest first.
func (s *Server) GetPosts(w http.ResponseWriter, req bunrouter.Request) error {
	opts, err := s.parseQuery(req)
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	posts, err := Collect(req.Context(), s.fetcher, opts)
	if err != nil {
		s.logger.Error("Failed to collect posts",
			zap.Time("since", opts.Since),
			zap.Int("limit", opts.Limit),
			zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "db query failed", Detail: err.Error()})
	}

	s.logger.Info("Served posts",
		zap.Time("since", opts.Since),
		zap.Int("limit", opts.Limit),
		zap.Int("concurrency", opts.Concurrency),
		zap.Int("total", len(posts)))

	return writeJSON(w, http.StatusOK, PostsResponse{Total: len(posts), Items: posts})
}

func writeJSON(w http.ResponseWriter, status int, value any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return sonic.ConfigDefault.NewEncoder(w).Encode(value)
}

// parseQuery reads since, limit and concurrency, falling back to configured defaults.
func (s *Server) parseQuery(req bunrouter.Request) (CollectOptions, error) {
	query := req.URL.Query()

	opts := CollectOptions{
		Since:       s.now().Add(-DefaultLookback).UTC(),
		Limit:       s.fetch.DefaultLimit,
		Concurrency: s.fetch.DefaultConcurrency,
		PageSize:    s.fetch.PageSize,
	}

	if raw := query.Get("since"); raw != "" {
		since, err := parseSince(raw)
		if err != nil {
			return opts, err
		}

		opts.Since = since
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, fmt.Errorf("%w: limit %q", errBadQuery, raw)
		}

		opts.Limit = limit
	}

	if raw := query.Get("concurrency"); raw != "" {
		concurrency, err := strconv.Atoi(raw)
		if err != nil || concurrency < 1 {
			return opts, fmt.Errorf("%w: concurrency %q", errBadQuery, raw)
		}

		opts.Concurrency = concurrency
	}

	if s.fetch.MaxConcurrency > 0 {
		opts.Concurrency = min(opts.Concurrency, s.fetch.MaxConcurrency)
	}

	if s.fetch.MaxLimit > 0 {
		opts.Limit = min(opts.Limit, s.fetch.MaxLimit)
	}

	return opts, nil
}

// parseSince accepts a created timestamp or a bare date.
func parseSince(raw string) (time.Time, error) {
	if t, err := types.ParseCreated(raw); err == nil {
		return t, nil
	}

	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: since %q", errBadQuery, raw)
}
