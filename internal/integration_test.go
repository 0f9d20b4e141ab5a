package internal

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"meal-attendance-backend/internal/model"
	"meal-attendance-backend/internal/queue"
	"meal-attendance-backend/internal/reconcile"
	"meal-attendance-backend/internal/scan"
	"meal-attendance-backend/internal/store"
	"meal-attendance-backend/internal/syncer"
)

type recordedNotice struct {
	Title string
	Body  string
}

type noticeRecorder struct {
	notices []recordedNotice
}

func (r *noticeRecorder) Notify(title, body string) {
	r.notices = append(r.notices, recordedNotice{Title: title, Body: body})
}

// TestAttendanceLifecycle drives a scan through the full pipeline, online and
// offline, and verifies the attendance rows at each step.
func TestAttendanceLifecycle(t *testing.T) {
	// --- Test Setup ---

	// 1. In-memory SQLite stands in for the remote attendance store.
	testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(&model.SoldierAttendance{}))
	appStore := store.NewGormStore(testDB)

	// 2. A file-backed queue in a temp dir plays the device-local buffer.
	pendingQueue, err := queue.Open(filepath.Join(t.TempDir(), "pending.db"))
	require.NoError(t, err)
	defer pendingQueue.Close()

	// 3. Wire the pipeline with a switchable connectivity flag.
	var online atomic.Bool
	online.Store(true)

	notices := &noticeRecorder{}
	reconciler := reconcile.New(appStore)
	syncSvc := syncer.New(pendingQueue, reconciler, notices)
	scanSvc := scan.NewService(reconciler, pendingQueue, online.Load, 3*time.Second)

	ctx := context.Background()
	badge := func(id, name string) string {
		return id + ":x:x:x:x:" + name
	}

	// Scans are spaced apart so the debounce never interferes.
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) // Lunch window
	next := func() time.Time {
		at = at.Add(10 * time.Second)
		return at
	}

	t.Run("First Scan Creates A Row", func(t *testing.T) {
		result := scanSvc.Process(ctx, badge("S100", "Dana Levi"), next())
		assert.Equal(t, scan.StatusCreated, result.Status)
		assert.Equal(t, "Dana Levi", result.Soldier)
		assert.Equal(t, model.MealLunch, result.Meal)
		assert.Equal(t, 1, result.Total)

		row, err := appStore.Get(ctx, badge("S100", "Dana Levi"))
		assert.NoError(t, err)
		require.NotNil(t, row)
		assert.True(t, row.Lunch)
		assert.False(t, row.Breakfast)
		assert.Equal(t, 1, row.TotalMeals)
	})

	t.Run("Replay Of The Same Meal Is Rejected", func(t *testing.T) {
		result := scanSvc.Process(ctx, badge("S100", "Dana Levi"), next())
		assert.Equal(t, scan.StatusDuplicate, result.Status)

		row, err := appStore.Get(ctx, badge("S100", "Dana Levi"))
		assert.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, 1, row.TotalMeals, "a replay must not double-count")
	})

	t.Run("Offline Scans Queue Locally", func(t *testing.T) {
		online.Store(false)

		for _, name := range []string{"Adi Cohen", "Noa Bar"} {
			result := scanSvc.Process(ctx, badge("S"+name, name), next())
			assert.Equal(t, scan.StatusQueuedOffline, result.Status)
		}

		count, err := pendingQueue.Count(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)

		// Nothing reached the store while offline.
		row, err := appStore.Get(ctx, badge("SAdi Cohen", "Adi Cohen"))
		assert.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("Sync Drains The Queue On Reconnect", func(t *testing.T) {
		online.Store(true)

		report, ran := syncSvc.SyncAll(ctx)
		assert.True(t, ran)
		assert.Equal(t, syncer.Report{Succeeded: 2, Failed: 0}, report)

		count, err := pendingQueue.Count(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), count)

		row, err := appStore.Get(ctx, badge("SNoa Bar", "Noa Bar"))
		assert.NoError(t, err)
		require.NotNil(t, row)
		assert.True(t, row.Lunch)
		assert.Equal(t, 1, row.TotalMeals)

		require.Len(t, notices.notices, 1)
		assert.Equal(t, "Sync complete", notices.notices[0].Title)
	})

	t.Run("Stats Reflect The Day So Far", func(t *testing.T) {
		stats, err := appStore.Stats(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), stats.Soldiers)
		assert.Equal(t, int64(3), stats.MealsServed)
	})
}

// TestAttendanceEdgeCases covers the rejections the pipeline must produce
// without touching the store.
func TestAttendanceEdgeCases(t *testing.T) {
	setupTest := func(t *testing.T) (*gorm.DB, store.Store, *scan.Service, *queue.Queue) {
		testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			sqlDB, _ := testDB.DB()
			sqlDB.Close()
		})
		require.NoError(t, testDB.AutoMigrate(&model.SoldierAttendance{}))
		appStore := store.NewGormStore(testDB)

		pendingQueue, err := queue.Open(filepath.Join(t.TempDir(), "pending.db"))
		require.NoError(t, err)
		t.Cleanup(func() { pendingQueue.Close() })

		svc := scan.NewService(reconcile.New(appStore), pendingQueue,
			func() bool { return true }, 3*time.Second)
		return testDB, appStore, svc, pendingQueue
	}

	ctx := context.Background()

	t.Run("Scan Outside Every Meal Window", func(t *testing.T) {
		_, appStore, svc, pendingQueue := setupTest(t)

		at := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC) // Between lunch and dinner
		result := svc.Process(ctx, "S200:x:x:x:x:Omer Gal", at)
		assert.Equal(t, scan.StatusNoActiveMeal, result.Status)

		row, err := appStore.Get(ctx, "S200:x:x:x:x:Omer Gal")
		assert.NoError(t, err)
		assert.Nil(t, row, "a dropped scan must not create a row")

		count, err := pendingQueue.Count(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), count, "a dropped scan must not be queued")
	})

	t.Run("Inconsistent Row At The Daily Cap", func(t *testing.T) {
		testDB, _, svc, _ := setupTest(t)

		// A row that already reports three meals but has a flag clear can
		// only come from manual edits; the cap still wins over the flag.
		seed := model.SoldierAttendance{
			SoldierID:  "S300:x:x:x:x:Gil Peretz",
			Name:       "Gil Peretz",
			Breakfast:  true,
			Lunch:      true,
			Dinner:     false,
			TotalMeals: 3,
			LastScan:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, testDB.Create(&seed).Error)

		at := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC) // Dinner window
		result := svc.Process(ctx, "S300:x:x:x:x:Gil Peretz", at)
		assert.Equal(t, scan.StatusCapReached, result.Status)

		var row model.SoldierAttendance
		require.NoError(t, testDB.Where("soldier_id = ?", seed.SoldierID).First(&row).Error)
		assert.False(t, row.Dinner, "a capped scan must not set the flag")
		assert.Equal(t, 3, row.TotalMeals)
	})

	t.Run("Full Day Ends In Duplicates Not Overcounts", func(t *testing.T) {
		_, appStore, svc, _ := setupTest(t)

		payload := "S400:x:x:x:x:Lior Azulay"
		day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		for _, hour := range []int{8, 12, 18} {
			result := svc.Process(ctx, payload, day.Add(time.Duration(hour)*time.Hour))
			assert.True(t, result.Status == scan.StatusCreated || result.Status == scan.StatusAccepted)
		}

		// A fourth scan lands in dinner again and is a duplicate, not a cap
		// violation, because the flag check runs first.
		result := svc.Process(ctx, payload, day.Add(19*time.Hour))
		assert.Equal(t, scan.StatusDuplicate, result.Status)

		row, err := appStore.Get(ctx, payload)
		assert.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, 3, row.TotalMeals)
		assert.True(t, row.Breakfast)
		assert.True(t, row.Lunch)
		assert.True(t, row.Dinner)
	})
}
