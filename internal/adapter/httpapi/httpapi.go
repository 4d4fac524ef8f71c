// Package httpapi exposes the daemon's journal over a small HTTP API.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retrykit/internal/platform/journal"
)

// Server serves journal data.
type Server struct {
	store *journal.Store
	log   *slog.Logger
}

// New creates a Server backed by the given journal store.
func New(store *journal.Store, log *slog.Logger) *Server {
	return &Server{store: store, log: log}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.healthz)
	r.GET("/outcomes", s.outcomes)
	r.GET("/stats", s.stats)
	return r
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type outcomeResponse struct {
	ID        int64  `json:"id"`
	Job       string `json:"job"`
	StartedAt string `json:"started_at"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) outcomes(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	outcomes, err := s.store.Recent(c.Request.Context(), limit)
	if err != nil {
		s.log.Error("list outcomes", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := make([]outcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		resp = append(resp, outcomeResponse{
			ID:        o.ID,
			Job:       o.Job,
			StartedAt: o.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Attempts:  o.Attempts,
			ElapsedMs: o.Elapsed.Milliseconds(),
			Outcome:   o.Status,
			Error:     o.Error,
		})
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": resp})
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.log.Error("journal stats", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": st.Total, "by_outcome": st.ByStatus})
}
