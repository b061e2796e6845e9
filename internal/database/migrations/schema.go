// Package migrations holds the local store schema.
package migrations

import "zombiezen.com/go/sqlite/sqlitemigration"

// Schema is the ordered list of migrations applied to the local store.
// Applied migrations are tracked through PRAGMA user_version; append only.
var Schema = sqlitemigration.Schema{
	Migrations: []string{
		// Initial schema
		`CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			author TEXT NOT NULL,
			permlink TEXT NOT NULL DEFAULT '',
			parent_author TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			created INTEGER NOT NULL,
			pending_payout_value TEXT NOT NULL DEFAULT '',
			extra TEXT
		);
		CREATE INDEX idx_posts_created ON posts (created);
		CREATE TABLE reputations (
			account TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL
		);
		CREATE TABLE meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		// Ranking scans group by author
		`CREATE INDEX idx_posts_author ON posts (author);`,
		// Post timestamps move from microseconds to nanoseconds
		`UPDATE posts SET created = created * 1000;`,
	},
}
