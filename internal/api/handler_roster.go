package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"meal-attendance-backend/internal/model"
)

const rosterPageSize = 10

type rosterResponse struct {
	Soldiers []model.SoldierAttendance `json:"soldiers"`
	Total    int                       `json:"total"`
	Page     int                       `json:"page"`
	Pages    int                       `json:"pages"`
}

// GetSoldiers handles GET /api/soldiers: the dashboard roster with search
// and pagination. Served from the projection when primed, else straight
// from the store.
func (h *Handler) GetSoldiers(c *gin.Context) {
	var rows []model.SoldierAttendance
	if h.projection != nil && h.projection.Ready() {
		rows = h.projection.Snapshot()
	} else {
		var err error
		rows, err = h.store.List(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve soldiers"})
			return
		}
	}

	if q := strings.ToLower(strings.TrimSpace(c.Query("q"))); q != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if strings.Contains(strings.ToLower(row.Name), q) ||
				strings.Contains(strings.ToLower(row.SoldierID), q) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pages := (len(rows) + rosterPageSize - 1) / rosterPageSize

	start := (page - 1) * rosterPageSize
	if start > len(rows) {
		start = len(rows)
	}
	end := start + rosterPageSize
	if end > len(rows) {
		end = len(rows)
	}

	c.JSON(http.StatusOK, rosterResponse{
		Soldiers: rows[start:end],
		Total:    len(rows),
		Page:     page,
		Pages:    pages,
	})
}

// GetStats handles GET /api/stats: the dashboard's aggregate cards.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate attendance"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
