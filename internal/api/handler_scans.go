package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meal-attendance-backend/internal/scan"
)

type postScanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// scanHTTPStatus maps a scan disposition to an HTTP status. Business
// rejections are not server errors; the scanner UI branches on the body.
func scanHTTPStatus(s scan.Status) int {
	switch s {
	case scan.StatusCreated:
		return http.StatusCreated
	case scan.StatusBadPayload:
		return http.StatusBadRequest
	case scan.StatusStoreError:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// PostScan handles POST /api/scans: one decoded QR payload from the scanner.
func (h *Handler) PostScan(c *gin.Context) {
	var req postScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.scans.Process(c.Request.Context(), req.Payload, time.Now())
	c.JSON(scanHTTPStatus(result.Status), result)
}
