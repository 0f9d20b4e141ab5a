package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"meal-attendance-backend/internal/dashboard"
	"meal-attendance-backend/internal/model"
	"meal-attendance-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SoldierAttendance{}))
	return store.NewGormStore(db)
}

func seedSoldiers(t *testing.T, s store.Store, n int) {
	base := time.Now().Add(-time.Hour)
	for i := 1; i <= n; i++ {
		require.NoError(t, s.Create(context.Background(), &model.SoldierAttendance{
			SoldierID:  fmt.Sprintf("ID%03d:a:b:c:d:Soldier %03d", i, i),
			Name:       fmt.Sprintf("Soldier %03d", i),
			Breakfast:  true,
			TotalMeals: 1,
			LastScan:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func newRosterRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/soldiers", h.GetSoldiers)
	r.GET("/api/stats", h.GetStats)
	return r
}

func doGet(t *testing.T, r *gin.Engine, url string) (*httptest.ResponseRecorder, rosterResponse) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)

	var body rosterResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestGetSoldiers_PaginationAndOrder(t *testing.T) {
	s := newTestStore(t)
	seedSoldiers(t, s, 25)
	h := &Handler{store: s}
	r := newRosterRouter(h)

	w, body := doGet(t, r, "/api/soldiers")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, body.Total)
	assert.Equal(t, 3, body.Pages)
	require.Len(t, body.Soldiers, rosterPageSize)
	// Most recent scan first.
	assert.Equal(t, "Soldier 025", body.Soldiers[0].Name)

	w, body = doGet(t, r, "/api/soldiers?page=3")
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body.Soldiers, 5)
	assert.Equal(t, "Soldier 005", body.Soldiers[0].Name)

	// A page past the end is empty, not an error.
	w, body = doGet(t, r, "/api/soldiers?page=9")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body.Soldiers)
}

func TestGetSoldiers_Search(t *testing.T) {
	s := newTestStore(t)
	seedSoldiers(t, s, 12)
	h := &Handler{store: s}
	r := newRosterRouter(h)

	w, body := doGet(t, r, "/api/soldiers?q=soldier+001")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Soldiers, 1)
	assert.Equal(t, "Soldier 001", body.Soldiers[0].Name)

	// Search also matches the badge identifier.
	w, body = doGet(t, r, "/api/soldiers?q=id002")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, body.Total)
}

func TestGetSoldiers_PrefersPrimedProjection(t *testing.T) {
	s := newTestStore(t)
	seedSoldiers(t, s, 3)

	p := dashboard.New(s)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	require.Eventually(t, p.Ready, time.Second, time.Millisecond)

	h := &Handler{store: s, projection: p}
	r := newRosterRouter(h)

	w, body := doGet(t, r, "/api/soldiers")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, body.Total)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	seedSoldiers(t, s, 4)
	h := &Handler{store: s}
	r := newRosterRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(4), stats.Soldiers)
	assert.Equal(t, int64(4), stats.MealsServed)
	assert.InDelta(t, 1.0, stats.Average, 0.001)
}
