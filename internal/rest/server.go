package rest

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/robalyx/hivesync/internal/database"
	"github.com/robalyx/hivesync/internal/reputation"
	"github.com/robalyx/hivesync/internal/rest/handler"
	"github.com/robalyx/hivesync/internal/syncer"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the local REST API.
type Server struct {
	postHandler       *handler.PostHandler
	rankingHandler    *handler.RankingHandler
	reputationHandler *handler.ReputationHandler
	syncHandler       *handler.SyncHandler
}

// NewServer creates a new REST API server.
func NewServer(
	db database.Client, engine *syncer.Engine, cache *reputation.Cache, logger *zap.Logger,
) http.Handler {
	logger = logger.Named("rest")

	server := &Server{
		postHandler:       handler.NewPostHandler(db, cache, logger),
		rankingHandler:    handler.NewRankingHandler(db, logger),
		reputationHandler: handler.NewReputationHandler(cache),
		syncHandler:       handler.NewSyncHandler(db, engine, logger),
	}

	router := bunrouter.New()

	router.WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/posts", server.postHandler.GetPosts)
		g.GET("/status", server.postHandler.GetStatus)
		g.GET("/rankings/posts", server.rankingHandler.GetPostRanking)
		g.GET("/rankings/payout", server.rankingHandler.GetPayoutRanking)
		g.GET("/reputations/:account", server.reputationHandler.GetReputation)
		g.POST("/sync", server.syncHandler.Sync)
	})

	// Add gzip compression
	return gzhttp.GzipHandler(router)
}
