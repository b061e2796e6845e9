package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type recordingFetcher struct {
	since time.Time
	calls int
	posts []*types.Post
	err   error
}

func (f *recordingFetcher) FetchPage(_ context.Context, since time.Time, offset, limit int) ([]*types.Post, error) {
	f.since = since
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	if offset >= len(f.posts) {
		return nil, nil
	}

	return f.posts[offset:min(offset+limit, len(f.posts))], nil
}

func newTestServer(fetcher PageFetcher) *Server {
	return &Server{
		fetcher: fetcher,
		fetch: config.Fetch{
			PageSize:           100,
			DefaultLimit:       100,
			DefaultConcurrency: 1,
			MaxConcurrency:     4,
			MaxLimit:           1000,
		},
		logger: zap.NewNop(),
		now: func() time.Time {
			return time.Date(2025, 11, 9, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestGetPosts(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 11, 9, 10, 0, 0, 0, time.UTC)
	fetcher := &recordingFetcher{posts: []*types.Post{
		{ID: "alice/a", Author: "alice", Permlink: "a", Created: created, PendingPayoutValue: "1.000 HBD"},
		{ID: "bob/b", Author: "bob", Permlink: "b", Created: created.Add(time.Minute)},
	}}

	rec := httptest.NewRecorder()
	newTestServer(fetcher).routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Total int          `json:"total"`
		Items []types.Post `json:"items"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Items, 2)
	assert.Equal(t, "alice/a", body.Items[0].ID)
	assert.True(t, body.Items[0].Created.Equal(created))
	assert.Equal(t, "1.000 HBD", body.Items[0].PendingPayoutValue)

	// Default since is 24 hours before now
	assert.Equal(t, time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC), fetcher.since)
}

func TestGetPosts_DBFailure(t *testing.T) {
	t.Parallel()

	fetcher := &recordingFetcher{err: errors.New("connection closed")}

	rec := httptest.NewRecorder()
	newTestServer(fetcher).routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts?limit=10", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "db query failed", body.Error)
	assert.Contains(t, body.Detail, "connection closed")
}

func TestGetPosts_BadQuery(t *testing.T) {
	t.Parallel()

	for _, query := range []string{"limit=abc", "limit=-1", "concurrency=0", "since=yesterday"} {
		t.Run(query, func(t *testing.T) {
			t.Parallel()

			fetcher := &recordingFetcher{}

			rec := httptest.NewRecorder()
			newTestServer(fetcher).routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts?"+query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, fetcher.calls)
		})
	}
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	server := newTestServer(&recordingFetcher{})

	tests := []struct {
		name  string
		query string
		want  CollectOptions
	}{
		{
			name:  "defaults",
			query: "",
			want: CollectOptions{
				Since: time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC), Limit: 100, Concurrency: 1, PageSize: 100,
			},
		},
		{
			name:  "date since",
			query: "since=2025-11-08&limit=250&concurrency=2",
			want: CollectOptions{
				Since: time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC), Limit: 250, Concurrency: 2, PageSize: 100,
			},
		},
		{
			name:  "timestamp since",
			query: "since=2025-11-08T06:30:00Z",
			want: CollectOptions{
				Since: time.Date(2025, 11, 8, 6, 30, 0, 0, time.UTC), Limit: 100, Concurrency: 1, PageSize: 100,
			},
		},
		{
			name:  "limit capped",
			query: "limit=1125899906842624",
			want: CollectOptions{
				Since: time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC), Limit: 1000, Concurrency: 1, PageSize: 100,
			},
		},
		{
			name:  "concurrency capped",
			query: "concurrency=50",
			want: CollectOptions{
				Since: time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC), Limit: 100, Concurrency: 4, PageSize: 100,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/posts?"+tt.query, nil)
			got, err := server.parseQuery(bunrouter.Request{Request: req})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
