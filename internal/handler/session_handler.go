package handler

import (
	"github.com/gin-gonic/gin"

	"invoiceflow/internal/port"
	"invoiceflow/internal/session"
)

// SessionHandler exposes the analysis session lifecycle.
type SessionHandler struct {
	sessions *session.Manager
	api      port.SessionAPI
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *session.Manager, api port.SessionAPI) *SessionHandler {
	return &SessionHandler{sessions: sessions, api: api}
}

// Current handles GET /api/v1/session.
func (h *SessionHandler) Current(c *gin.Context) {
	id, active := h.sessions.Current()
	RespondOK(c, gin.H{
		"active":     active,
		"session_id": id,
	})
}

// Status handles GET /api/v1/session/status, proxying the remote status.
func (h *SessionHandler) Status(c *gin.Context) {
	status, err := h.sessions.Status(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, status)
}

// Destroy handles DELETE /api/v1/session. The remote delete is best-effort;
// local state is always cleared, which disables chat until a new session is
// adopted.
func (h *SessionHandler) Destroy(c *gin.Context) {
	h.sessions.Destroy(c.Request.Context())
	RespondOK(c, gin.H{"active": false})
}

// Stats handles GET /api/v1/session/stats, proxying server-wide stats.
func (h *SessionHandler) Stats(c *gin.Context) {
	stats, err := h.api.GetSessionStats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stats)
}
