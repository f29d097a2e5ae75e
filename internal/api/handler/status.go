package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskmind/taskmind/internal/repository"
	"github.com/taskmind/taskmind/internal/vector"
)

// StatusHandler exposes vector index status and statistics.
type StatusHandler struct {
	statusRepo *repository.StatusRepository
	store      *vector.Store
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(statusRepo *repository.StatusRepository, store *vector.Store) *StatusHandler {
	return &StatusHandler{
		statusRepo: statusRepo,
		store:      store,
	}
}

// GetStatus handles GET /api/v1/index/status.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *StatusHandler) GetStatus(c *gin.Context) {
	status, err := h.statusRepo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get index status: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetStats handles GET /api/v1/index/stats.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *StatusHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}
