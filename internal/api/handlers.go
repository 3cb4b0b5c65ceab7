package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Mathesquivel/veleitoral-api/internal/ingest"
	"github.com/Mathesquivel/veleitoral-api/internal/probe"
	"github.com/Mathesquivel/veleitoral-api/internal/store"
)

// queryService is the subset of *store.Store used by the read handlers.
// Declaring it as an interface allows test doubles to be injected.
type queryService interface {
	VoteTotals(ctx context.Context, f store.Filter) ([]store.VoteTotal, error)
	VotesByZone(ctx context.Context, f store.Filter) ([]store.ZoneVotes, error)
	VotesByMunicipality(ctx context.Context, f store.Filter) ([]store.MunicipalityVotes, error)
	VotesByOffice(ctx context.Context, f store.Filter) ([]store.OfficeVotes, error)
	Candidates(ctx context.Context, f store.Filter) ([]store.CandidateSummary, error)
	Parties(ctx context.Context, f store.Filter) ([]store.PartySummary, error)
	PartyRanking(ctx context.Context, f store.Filter) ([]store.PartyRank, error)
	MapLocations(ctx context.Context, f store.Filter) ([]store.PollingPlaceVotes, error)
	Stats(ctx context.Context) (store.Stats, error)
	CountVotes(ctx context.Context) (int64, error)
}

// ingestService is the subset of *ingest.Coordinator used by the handlers.
type ingestService interface {
	Run(ctx context.Context, clear bool) (*ingest.RunResult, error)
	InProgress() bool
	Ready() bool
}

// prober is implemented by the store and the cache.
type prober interface {
	Probe(ctx context.Context) probe.Result
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	queries queryService
	ingest  ingestService
	probers []prober
	dataDir string
}

// NewHandler wires the handler set. probers are consulted by the deep
// health endpoint, in order.
func NewHandler(q queryService, ing ingestService, dataDir string, probers ...prober) *Handler {
	return &Handler{
		queries: q,
		ingest:  ing,
		probers: probers,
		dataDir: dataDir,
	}
}

// Root handles GET /. A quick service banner with the loaded row count.
func (h *Handler) Root(c *gin.Context) {
	rows, err := h.queries.CountVotes(c.Request.Context())
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"service": "veleitoral-api",
		"status":  "ok",
		"rows":    rows,
	})
}

// Health handles GET /health. Always 200; this is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"mode":   "shallow",
	})
}

// DeepHealth handles GET /health/deep. It probes Postgres and Redis and
// returns 200 only when every probe is OK.
func (h *Handler) DeepHealth(c *gin.Context) {
	deps := make(map[string]probe.Result, len(h.probers))
	allOK := true
	for _, p := range h.probers {
		res := p.Probe(c.Request.Context())
		deps[res.Name] = res
		if !res.OK {
			allOK = false
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !allOK {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": deps,
	})
}

// Ready handles GET /ready. 200 only after a successful ingest run; 503
// otherwise.
func (h *Handler) Ready(c *gin.Context) {
	if h.ingest.Ready() {
		c.JSON(http.StatusOK, gin.H{"ready": true})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
}

// Ingest handles POST /ingest. It returns 202 immediately when a new run is
// started, or 409 if one is already in progress. The ?clear=true flag
// truncates the vote tables first, reproducing a full reload. The actual
// ingest work runs in a background goroutine.
func (h *Handler) Ingest(c *gin.Context) {
	if h.ingest.InProgress() {
		c.JSON(http.StatusConflict, gin.H{"status": ingest.StatusInProgress})
		return
	}

	clear := c.Query("clear") == "true"
	go func() {
		//nolint:errcheck
		h.ingest.Run(context.Background(), clear) //nolint:contextcheck
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "clear": clear})
}

// VoteTotals handles GET /api/v1/votes/totals.
func (h *Handler) VoteTotals(c *gin.Context) {
	out, err := h.queries.VoteTotals(c.Request.Context(), filterFromQuery(c, 50, 1000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// VotesByZone handles GET /api/v1/votes/by-zone.
func (h *Handler) VotesByZone(c *gin.Context) {
	out, err := h.queries.VotesByZone(c.Request.Context(), filterFromQuery(c, 200, 5000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// VotesByMunicipality handles GET /api/v1/votes/by-municipality.
func (h *Handler) VotesByMunicipality(c *gin.Context) {
	out, err := h.queries.VotesByMunicipality(c.Request.Context(), filterFromQuery(c, 100, 5000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// VotesByOffice handles GET /api/v1/votes/by-office.
func (h *Handler) VotesByOffice(c *gin.Context) {
	out, err := h.queries.VotesByOffice(c.Request.Context(), filterFromQuery(c, 100, 5000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// Candidates handles GET /api/v1/candidates.
func (h *Handler) Candidates(c *gin.Context) {
	out, err := h.queries.Candidates(c.Request.Context(), filterFromQuery(c, 100, 5000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// Parties handles GET /api/v1/parties.
func (h *Handler) Parties(c *gin.Context) {
	out, err := h.queries.Parties(c.Request.Context(), filterFromQuery(c, 100, 1000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// PartyRanking handles GET /api/v1/parties/ranking.
func (h *Handler) PartyRanking(c *gin.Context) {
	out, err := h.queries.PartyRanking(c.Request.Context(), filterFromQuery(c, 100, 1000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// MapLocations handles GET /api/v1/map/locations. Polling-place aggregates
// for map views; the limit runs high because a municipality can have
// thousands of locations.
func (h *Handler) MapLocations(c *gin.Context) {
	out, err := h.queries.MapLocations(c.Request.Context(), filterFromQuery(c, 1000, 10000))
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.queries.Stats(c.Request.Context())
	if err != nil {
		queryError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// filterFromQuery builds a store.Filter from the request's query string.
// limit defaults to def and is clamped to [1, maxLimit].
func filterFromQuery(c *gin.Context, def, maxLimit int) store.Filter {
	limit := def
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return store.Filter{
		Year:             c.Query("year"),
		UF:               c.Query("uf"),
		Round:            c.Query("round"),
		MunicipalityCode: c.Query("municipality_code"),
		OfficeCode:       c.Query("office_code"),
		Zone:             c.Query("zone"),
		Section:          c.Query("section"),
		CandidateNumber:  c.Query("candidate_number"),
		Party:            c.Query("party"),
		PollingPlaceCode: c.Query("polling_place_code"),
		Limit:            limit,
	}
}

// queryError maps a store failure to a 500. The detail stays server-side;
// the request logger already carries it.
func queryError(c *gin.Context, err error) {
	c.Error(err) //nolint:errcheck
	c.JSON(http.StatusInternalServerError, gin.H{
		"status": "error",
		"error":  "query failed",
	})
}
