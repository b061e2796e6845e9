package models

import (
	"context"
	"iter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/robalyx/hivesync/internal/database/types"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const postColumns = "id, author, permlink, parent_author, title, body, created, pending_payout_value, extra"

const upsertPostQuery = `
	INSERT INTO posts (` + postColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		author = excluded.author,
		permlink = excluded.permlink,
		parent_author = excluded.parent_author,
		title = excluded.title,
		body = excluded.body,
		created = excluded.created,
		pending_payout_value = excluded.pending_payout_value,
		extra = excluded.extra`

// PostModel handles database operations for mirrored posts.
type PostModel struct {
	pool   *sqlitex.Pool
	logger *zap.Logger
}

// NewPost creates a new post model.
func NewPost(pool *sqlitex.Pool, logger *zap.Logger) *PostModel {
	return &PostModel{
		pool:   pool,
		logger: logger.Named("db_post"),
	}
}

// UpsertMany inserts or fully replaces posts by id in a single transaction.
// Every post is validated before anything is written.
func (r *PostModel) UpsertMany(ctx context.Context, posts []*types.Post) error {
	if len(posts) == 0 {
		return nil
	}

	for _, post := range posts {
		if post == nil {
			return types.ErrInvalidArgument
		}
		if err := post.Validate(); err != nil {
			return err
		}
	}

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) (err error) {
		endFn, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return storageError("begin transaction", err)
		}
		defer endFn(&err)

		for _, post := range posts {
			var extra any
			if len(post.Extra) > 0 {
				encoded, err := sonic.MarshalString(post.Extra)
				if err != nil {
					return storageError("encode extra fields", err)
				}
				extra = encoded
			}

			err = sqlitex.Execute(conn, upsertPostQuery, &sqlitex.ExecOptions{
				Args: []any{
					post.ID, post.Author, post.Permlink, post.ParentAuthor, post.Title, post.Body,
					post.Created.UnixNano(), post.PendingPayoutValue, extra,
				},
			})
			if err != nil {
				return storageError("upsert post", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("Upserted posts", zap.Int("count", len(posts)))

	return nil
}

// GetAll returns every stored post in insertion order.
func (r *PostModel) GetAll(ctx context.Context) ([]*types.Post, error) {
	return r.query(ctx, "SELECT "+postColumns+" FROM posts ORDER BY rowid", nil, "get posts")
}

// PageByCreatedDesc returns up to limit posts, newest first, after skipping offset posts.
func (r *PostModel) PageByCreatedDesc(ctx context.Context, offset, limit int) ([]*types.Post, error) {
	if offset < 0 || limit <= 0 {
		return nil, types.ErrInvalidArgument
	}

	return r.query(ctx,
		"SELECT "+postColumns+" FROM posts ORDER BY created DESC, rowid DESC LIMIT ? OFFSET ?",
		[]any{limit, offset}, "get post page",
	)
}

// ScanByCreated lazily walks the created index in the given order.
// Ties are broken by insertion order in the same direction. Each iteration
// starts a fresh cursor, so the sequence may be ranged over more than once.
func (r *PostModel) ScanByCreated(ctx context.Context, order types.Order) iter.Seq2[*types.Post, error] {
	query := "SELECT " + postColumns + " FROM posts ORDER BY created ASC, rowid ASC"
	if order == types.OrderDescending {
		query = "SELECT " + postColumns + " FROM posts ORDER BY created DESC, rowid DESC"
	}

	return func(yield func(*types.Post, error) bool) {
		conn, err := r.pool.Take(ctx)
		if err != nil {
			yield(nil, storageError("acquire connection", err))
			return
		}
		defer r.pool.Put(conn)

		stmt, err := conn.Prepare(query)
		if err != nil {
			yield(nil, storageError("prepare post scan", err))
			return
		}
		defer stmt.Reset()

		for {
			hasRow, err := stmt.Step()
			if err != nil {
				yield(nil, storageError("scan posts", err))
				return
			}
			if !hasRow {
				return
			}

			post, err := scanPost(stmt)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(post, nil) {
				return
			}
		}
	}
}

// Count returns the number of stored posts.
func (r *PostModel) Count(ctx context.Context) (int, error) {
	var count int

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT COUNT(*) FROM posts", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		return 0, storageError("count posts", err)
	}

	return count, nil
}

// DeleteCreatedAtOrBefore removes every post created at or before cutoff.
// It returns the number of deleted posts.
func (r *PostModel) DeleteCreatedAtOrBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var deleted int

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "DELETE FROM posts WHERE created <= ?", &sqlitex.ExecOptions{
			Args: []any{cutoff.UnixNano()},
		})
		if err != nil {
			return err
		}

		deleted = conn.Changes()

		return nil
	})
	if err != nil {
		return 0, storageError("delete old posts", err)
	}

	if deleted > 0 {
		r.logger.Debug("Deleted old posts",
			zap.Int("count", deleted),
			zap.Time("cutoff", cutoff))
	}

	return deleted, nil
}

// DeleteByIDs removes the given posts in a single transaction.
// Unknown ids are ignored. It returns the number of deleted posts.
func (r *PostModel) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) (err error) {
		endFn, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endFn(&err)

		stmt, err := conn.Prepare("DELETE FROM posts WHERE id = ?")
		if err != nil {
			return err
		}

		for _, id := range ids {
			stmt.BindText(1, id)
			if _, err := stmt.Step(); err != nil {
				_ = stmt.Reset()
				return err
			}
			deleted += conn.Changes()

			if err := stmt.Reset(); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, storageError("delete posts", err)
	}

	return deleted, nil
}

// query runs a post select and collects every row.
func (r *PostModel) query(ctx context.Context, query string, args []any, action string) ([]*types.Post, error) {
	posts := make([]*types.Post, 0)

	err := withConn(ctx, r.pool, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				post, err := scanPost(stmt)
				if err != nil {
					return err
				}

				posts = append(posts, post)

				return nil
			},
		})
	})
	if err != nil {
		return nil, storageError(action, err)
	}

	return posts, nil
}

// scanPost decodes the current row of a postColumns select.
func scanPost(stmt *sqlite.Stmt) (*types.Post, error) {
	post := &types.Post{
		ID:                 stmt.ColumnText(0),
		Author:             stmt.ColumnText(1),
		Permlink:           stmt.ColumnText(2),
		ParentAuthor:       stmt.ColumnText(3),
		Title:              stmt.ColumnText(4),
		Body:               stmt.ColumnText(5),
		Created:            time.Unix(0, stmt.ColumnInt64(6)).UTC(),
		PendingPayoutValue: stmt.ColumnText(7),
	}

	if stmt.ColumnType(8) != sqlite.TypeNull {
		if err := sonic.UnmarshalString(stmt.ColumnText(8), &post.Extra); err != nil {
			return nil, storageError("decode extra fields", err)
		}
	}

	return post, nil
}
