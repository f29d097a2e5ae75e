package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskmind/taskmind/internal/service"
)

// ChatHandler handles assistant question endpoints.
type ChatHandler struct {
	assistantService *service.AssistantService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(assistantService *service.AssistantService) *ChatHandler {
	return &ChatHandler{
		assistantService: assistantService,
	}
}

// ChatRequest represents the assistant API request.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k,omitempty"`
}

// Chat handles POST /api/v1/chat.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	answer, err := h.assistantService.Ask(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Assistant failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, answer)
}
