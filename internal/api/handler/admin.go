package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/service"
)

// AdminHandler handles sync and indexing admin operations. At most one
// background job (sync, index, or rebuild) runs at a time.
type AdminHandler struct {
	syncService    *service.SyncService
	indexerService *service.IndexerService
	logger         *logger.Logger

	// Background job state
	mu             sync.RWMutex
	isRunning      bool
	currentJob     string
	lastRunTime    time.Time
	lastRunStatus  string
	lastSyncStats  *service.SyncStats
	lastIndexStats *service.IndexStats
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - syncService: upstream sync service instance.
//   - indexerService: indexing pipeline instance.
//   - log: logger instance.
//
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(syncService *service.SyncService, indexerService *service.IndexerService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		syncService:    syncService,
		indexerService: indexerService,
		logger:         log,
	}
}

// JobStatusResponse reports the current background job state.
type JobStatusResponse struct {
	IsRunning      bool                `json:"is_running"`
	CurrentJob     string              `json:"current_job,omitempty"`
	LastRunTime    string              `json:"last_run_time,omitempty"`
	LastRunStatus  string              `json:"last_run_status,omitempty"`
	LastSyncStats  *service.SyncStats  `json:"last_sync_stats,omitempty"`
	LastIndexStats *service.IndexStats `json:"last_index_stats,omitempty"`
}

// TriggerSync handles POST /api/v1/admin/sync.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AdminHandler) TriggerSync(c *gin.Context) {
	h.startJob(c, "sync", func(ctx context.Context) (string, error) {
		stats, err := h.syncService.SyncAll(ctx)
		h.mu.Lock()
		h.lastSyncStats = stats
		h.mu.Unlock()
		if err != nil {
			return "", err
		}
		return "completed", nil
	})
}

// TriggerIndex handles POST /api/v1/admin/index.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AdminHandler) TriggerIndex(c *gin.Context) {
	h.startJob(c, "index", func(ctx context.Context) (string, error) {
		stats, err := h.indexerService.IndexAll(ctx)
		h.mu.Lock()
		h.lastIndexStats = stats
		h.mu.Unlock()
		if err != nil {
			return "", err
		}
		return "completed", nil
	})
}

// TriggerRebuild handles POST /api/v1/admin/rebuild.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AdminHandler) TriggerRebuild(c *gin.Context) {
	h.startJob(c, "rebuild", func(ctx context.Context) (string, error) {
		stats, err := h.indexerService.RebuildAll(ctx)
		h.mu.Lock()
		h.lastIndexStats = stats
		h.mu.Unlock()
		if err != nil {
			return "", err
		}
		return "completed", nil
	})
}

// JobStatus handles GET /api/v1/admin/status.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AdminHandler) JobStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := JobStatusResponse{
		IsRunning:      h.isRunning,
		CurrentJob:     h.currentJob,
		LastRunStatus:  h.lastRunStatus,
		LastSyncStats:  h.lastSyncStats,
		LastIndexStats: h.lastIndexStats,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}

// startJob launches fn in the background if no job is running, responding
// 202 on acceptance and 409 when a job already holds the slot.
func (h *AdminHandler) startJob(c *gin.Context, name string, fn func(ctx context.Context) (string, error)) {
	h.mu.Lock()
	if h.isRunning {
		current := h.currentJob
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{
			"error": "A " + current + " job is already running",
		})
		return
	}
	h.isRunning = true
	h.currentJob = name
	h.mu.Unlock()

	// Detach from the request context: the job outlives the HTTP request.
	ctx := logger.WithField(context.Background(), logger.FieldComponent, name)

	go func() {
		status, err := fn(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Background " + name + " job failed")
			status = "failed: " + err.Error()
		}

		h.mu.Lock()
		h.isRunning = false
		h.currentJob = ""
		h.lastRunTime = time.Now()
		h.lastRunStatus = name + " " + status
		h.mu.Unlock()
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": name + " started",
	})
}
