package api

import (
	"io"

	"github.com/gin-gonic/gin"
)

// GetEvents handles GET /api/events: a server-sent event stream of row-level
// changes. Each event carries the full changed row, so dashboard clients
// patch in place instead of reloading the roster.
func (h *Handler) GetEvents(c *gin.Context) {
	events, cancel := h.store.Subscribe(64)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
