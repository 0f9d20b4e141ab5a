package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSyncStatus handles GET /api/sync: connectivity and pending-queue depth.
func (h *Handler) GetSyncStatus(c *gin.Context) {
	pending, err := h.queue.Count(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to read pending queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"online":  h.monitor.Online(),
		"syncing": h.syncer.Running(),
		"pending": pending,
	})
}

// PostSync handles POST /api/sync: a manual drain request from the
// dashboard. A drain already in flight answers 409 rather than stacking.
func (h *Handler) PostSync(c *gin.Context) {
	if !h.monitor.Online() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "remote store is unreachable"})
		return
	}

	report, ran := h.syncer.SyncAll(c.Request.Context())
	if !ran {
		c.JSON(http.StatusConflict, gin.H{"error": "a sync pass is already running"})
		return
	}
	c.JSON(http.StatusOK, report)
}
