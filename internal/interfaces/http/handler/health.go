package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/travelops/backend/internal/infrastructure/persistence"
	"github.com/travelops/backend/internal/interfaces/http/dto"
)

// HealthHandler exposes liveness and readiness endpoints
type HealthHandler struct {
	BaseHandler
	db      *persistence.Database
	started time.Time
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *persistence.Database, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		started: time.Now(),
		version: version,
	}
}

// RegisterRoutes registers health routes on the given group
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}

// HealthStatus is the liveness payload
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, HealthStatus{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready handles GET /ready. Readiness fails when the database is
// unreachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse("DATABASE_UNAVAILABLE", "Database is not reachable", ""))
		return
	}
	h.Success(c, gin.H{"status": "ready"})
}
