// Package types holds the JSON bodies of the local REST API.
package types

import "time"

// Post is a stored post annotated with its author's reputation.
type Post struct {
	ID                 string    `json:"id"`
	Author             string    `json:"author"`
	Permlink           string    `json:"permlink"`
	ParentAuthor       string    `json:"parentAuthor,omitempty"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Created            time.Time `json:"created"`
	PendingPayoutValue string    `json:"pendingPayoutValue"`
	IsReply            bool      `json:"isReply"`
	Reputation         int64          `json:"reputation"`
	Extra              map[string]any `json:"extra,omitempty"`
}

// GetPostsResponse is returned by GET /v1/posts.
type GetPostsResponse struct {
	Page       int     `json:"page"`
	Size       int     `json:"size"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
	Items      []*Post `json:"items"`
}

// AuthorMetric is one row of a ranking.
type AuthorMetric struct {
	Author string  `json:"author"`
	Value  float64 `json:"value"`
}

// GetReputationResponse is returned by GET /v1/reputations/:account.
type GetReputationResponse struct {
	Account    string `json:"account"`
	Reputation int64  `json:"reputation"`
}

// SyncResponse is returned by POST /v1/sync.
type SyncResponse struct {
	NewItemCount  int       `json:"newItemCount"`
	LatestCreated time.Time `json:"latestCreated"`
	Skipped       int       `json:"skipped"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	Evicted       int       `json:"evicted"`
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	Total     int        `json:"total"`
	Watermark *time.Time `json:"watermark"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
