package proxy

import (
	"context"
	"time"

	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Comment is a row of the HAF SQL comments view. Posts and replies share it.
type Comment struct {
	bun.BaseModel `bun:"table:hafsql.comments,alias:c"`

	ID                 int64     `bun:"id"`
	Author             string    `bun:"author"`
	Permlink           string    `bun:"permlink"`
	ParentAuthor       string    `bun:"parent_author"`
	ParentPermlink     string    `bun:"parent_permlink"`
	Title              string    `bun:"title"`
	Body               string    `bun:"body"`
	Category           string    `bun:"category"`
	JSONMetadata       string    `bun:"json_metadata"`
	RootAuthor         string    `bun:"root_author"`
	RootPermlink       string    `bun:"root_permlink"`
	Created            time.Time `bun:"created"`
	LastEdited         time.Time `bun:"last_edited,nullzero"`
	CashoutTime        time.Time `bun:"cashout_time,nullzero"`
	PendingPayoutValue string    `bun:"pending_payout_value"`
	TotalPayoutValue   string    `bun:"total_payout_value"`
	CuratorPayoutValue string    `bun:"curator_payout_value"`
	AllowVotes         bool      `bun:"allow_votes"`
	Deleted            bool      `bun:"deleted"`
}

// ToPost converts the row to the feed wire format. The post id is author/permlink.
func (c *Comment) ToPost() *types.Post {
	post := &types.Post{
		ID:                 c.Author + "/" + c.Permlink,
		Author:             c.Author,
		Permlink:           c.Permlink,
		ParentAuthor:       c.ParentAuthor,
		Title:              c.Title,
		Body:               c.Body,
		Created:            c.Created.UTC(),
		PendingPayoutValue: c.PendingPayoutValue,
		Extra: map[string]any{
			"comment_id":           c.ID,
			"parent_permlink":      c.ParentPermlink,
			"category":             c.Category,
			"json_metadata":        c.JSONMetadata,
			"root_author":          c.RootAuthor,
			"root_permlink":        c.RootPermlink,
			"total_payout_value":   c.TotalPayoutValue,
			"curator_payout_value": c.CuratorPayoutValue,
			"allow_votes":          c.AllowVotes,
			"deleted":              c.Deleted,
		},
	}

	if !c.LastEdited.IsZero() {
		post.Extra["last_edited"] = c.LastEdited.UTC().Format(time.RFC3339Nano)
	}
	if !c.CashoutTime.IsZero() {
		post.Extra["cashout_time"] = c.CashoutTime.UTC().Format(time.RFC3339Nano)
	}

	return post
}

// CommentStore reads comment pages from the HAF SQL database.
type CommentStore struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewCommentStore creates a CommentStore.
func NewCommentStore(db *bun.DB, logger *zap.Logger) *CommentStore {
	return &CommentStore{
		db:     db,
		logger: logger.Named("comments"),
	}
}

// FetchPage returns up to limit posts created at or after since, oldest first.
func (s *CommentStore) FetchPage(ctx context.Context, since time.Time, offset, limit int) ([]*types.Post, error) {
	comments, err := Operation(ctx, func(ctx context.Context) ([]Comment, error) {
		var comments []Comment

		err := s.db.NewSelect().
			Model(&comments).
			Where("c.created >= ?", since).
			OrderExpr("c.created ASC, c.id ASC").
			Limit(limit).
			Offset(offset).
			Scan(ctx)

		return comments, err
	})
	if err != nil {
		return nil, err
	}

	posts := make([]*types.Post, len(comments))
	for i := range comments {
		posts[i] = comments[i].ToPost()
	}

	s.logger.Debug("Fetched comment page",
		zap.Int("offset", offset),
		zap.Int("rows", len(posts)))

	return posts, nil
}
