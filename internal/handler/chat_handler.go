package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/chat"
)

// ChatHandler exposes the conversational interface over the active session.
type ChatHandler struct {
	client *chat.Client
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(client *chat.Client) *ChatHandler {
	return &ChatHandler{client: client}
}

type askRequest struct {
	Message string `json:"message" binding:"required"`
}

// Ask handles POST /api/v1/chat.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "expected JSON body with 'message'")
		return
	}

	msg, err := h.client.Ask(c.Request.Context(), req.Message)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":    msg,
		"transcript": h.client.Transcript(),
	})
}

// Transcript handles GET /api/v1/chat.
func (h *ChatHandler) Transcript(c *gin.Context) {
	RespondOK(c, gin.H{
		"enabled":    h.client.Enabled(),
		"transcript": h.client.Transcript(),
	})
}

// Reset handles DELETE /api/v1/chat.
func (h *ChatHandler) Reset(c *gin.Context) {
	h.client.Reset()
	RespondOK(c, gin.H{"cleared": true})
}
