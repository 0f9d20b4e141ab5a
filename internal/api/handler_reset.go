package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meal-attendance-backend/internal/reset"
)

// PostReset handles POST /api/reset: issues a confirmation token for the
// full-cycle wipe. Nothing is destroyed until the token is confirmed.
func (h *Handler) PostReset(c *gin.Context) {
	token, expires := h.resets.Request()
	c.JSON(http.StatusAccepted, gin.H{
		"confirm_token": token,
		"expires_at":    expires.Format(time.RFC3339),
	})
}

type confirmResetRequest struct {
	ConfirmToken string `json:"confirm_token" binding:"required"`
}

// PostResetConfirm handles POST /api/reset/confirm: executes the remote
// reset for a previously issued token.
func (h *Handler) PostResetConfirm(c *gin.Context) {
	var req confirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.resets.Confirm(c.Request.Context(), req.ConfirmToken)
	switch {
	case errors.Is(err, reset.ErrUnknownToken):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reset.ErrTokenExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, reset.ErrInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "reset complete"})
	}
}
