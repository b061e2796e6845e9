package database

import (
	"github.com/robalyx/hivesync/internal/database/models"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Repository provides access to all store models.
type Repository struct {
	post       *models.PostModel
	reputation *models.ReputationModel
	meta       *models.MetaModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(pool *sqlitex.Pool, logger *zap.Logger) *Repository {
	return &Repository{
		post:       models.NewPost(pool, logger),
		reputation: models.NewReputation(pool, logger),
		meta:       models.NewMeta(pool, logger),
	}
}

// Post returns the post model repository.
func (r *Repository) Post() *models.PostModel {
	return r.post
}

// Reputation returns the reputation model repository.
func (r *Repository) Reputation() *models.ReputationModel {
	return r.reputation
}

// Meta returns the meta model repository.
func (r *Repository) Meta() *models.MetaModel {
	return r.meta
}
