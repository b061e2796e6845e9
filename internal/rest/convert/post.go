// Package convert maps store types to REST API types.
package convert

import (
	"github.com/robalyx/hivesync/internal/database/types"
	restTypes "github.com/robalyx/hivesync/internal/rest/types"
	"github.com/robalyx/hivesync/internal/syncer"
)

// Post converts a stored post, attaching the author's reputation.
func Post(post *types.Post, reputation int64) *restTypes.Post {
	return &restTypes.Post{
		ID:                 post.ID,
		Author:             post.Author,
		Permlink:           post.Permlink,
		ParentAuthor:       post.ParentAuthor,
		Title:              post.Title,
		Body:               post.Body,
		Created:            post.Created,
		PendingPayoutValue: post.PendingPayoutValue,
		IsReply:            post.IsReply(),
		Reputation:         reputation,
		Extra:              post.Extra,
	}
}

// Posts converts a page of posts using the resolved reputations.
func Posts(posts []*types.Post, reputations map[string]int64, fallback int64) []*restTypes.Post {
	result := make([]*restTypes.Post, len(posts))
	for i, post := range posts {
		score, ok := reputations[post.Author]
		if !ok {
			score = fallback
		}
		result[i] = Post(post, score)
	}
	return result
}

// AuthorMetrics converts a ranking.
func AuthorMetrics(metrics []types.AuthorMetric) []restTypes.AuthorMetric {
	result := make([]restTypes.AuthorMetric, len(metrics))
	for i, m := range metrics {
		result[i] = restTypes.AuthorMetric{Author: m.Author, Value: m.Value}
	}
	return result
}

// SyncResult converts a sync result and the number of posts evicted afterwards.
func SyncResult(result *syncer.Result, evicted int) *restTypes.SyncResponse {
	return &restTypes.SyncResponse{
		NewItemCount:  result.NewItemCount,
		LatestCreated: result.LatestCreated,
		Skipped:       result.Skipped,
		Status:        string(result.Status),
		Message:       result.Message(),
		Evicted:       evicted,
	}
}
