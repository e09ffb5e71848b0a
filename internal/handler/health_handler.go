package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/port"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	remote port.HealthAPI
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(remote port.HealthAPI) *HealthHandler {
	return &HealthHandler{remote: remote}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. Ready means the remote extraction service
// answers its health endpoint.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.remote.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "extraction service unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
