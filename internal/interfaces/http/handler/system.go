package handler

import (
	"github.com/booksync/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db *persistence.Database
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{db: db}
}

// HealthData represents health check data
type HealthData struct {
	Status string `json:"status"`
}

// Health returns liveness
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthData{Status: "ok"})
}

// Ready returns readiness, checking the database connection
func (h *SystemHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		h.InternalError(c, "Database unavailable")
		return
	}
	h.Success(c, HealthData{Status: "ready"})
}
