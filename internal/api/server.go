package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mathesquivel/veleitoral-api/internal/cache"
)

// Router wraps a configured Gin engine and exposes it as an http.Handler.
type Router struct {
	engine *gin.Engine
}

// NewRouter constructs a Router with the full middleware chain and all
// routes registered. The middleware order:
//  1. Recovery — panic → 500
//  2. Tracing — trace context per request
//  3. RequestLogger — structured request/response logging
//
// The aggregate query group additionally goes through QueryCache.
func NewRouter(h *Handler, qc *cache.Cache) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(Recovery(slog.Default()))
	engine.Use(Tracing("veleitoral-api"))
	engine.Use(RequestLogger(slog.Default()))

	engine.GET("/", h.Root)
	engine.GET("/health", h.Health)
	engine.GET("/health/deep", h.DeepHealth)
	engine.GET("/ready", h.Ready)

	engine.POST("/ingest", h.Ingest)
	engine.POST("/uploads", h.Upload)
	engine.POST("/uploads/archive", h.UploadArchive)
	engine.DELETE("/uploads", h.ClearUploads)

	v1 := engine.Group("/api/v1")
	v1.Use(QueryCache(qc))
	v1.GET("/votes/totals", h.VoteTotals)
	v1.GET("/votes/by-zone", h.VotesByZone)
	v1.GET("/votes/by-municipality", h.VotesByMunicipality)
	v1.GET("/votes/by-office", h.VotesByOffice)
	v1.GET("/candidates", h.Candidates)
	v1.GET("/parties", h.Parties)
	v1.GET("/parties/ranking", h.PartyRanking)
	v1.GET("/map/locations", h.MapLocations)
	v1.GET("/stats", h.Stats)

	return &Router{engine: engine}
}

// Handler returns the underlying http.Handler for use with net/http servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}
