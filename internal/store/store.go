package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"meal-attendance-backend/internal/model"
)

// Stats holds the roster aggregates shown on the dashboard.
type Stats struct {
	Soldiers    int64   `json:"soldiers"`
	MealsServed int64   `json:"meals_served"`
	Average     float64 `json:"average"`
}

// Store defines the operations against the authoritative attendance store.
type Store interface {
	// Get returns the attendance row for a soldier, or nil when none exists.
	Get(ctx context.Context, soldierID string) (*model.SoldierAttendance, error)
	// Create inserts a new attendance row.
	Create(ctx context.Context, row *model.SoldierAttendance) error
	// MarkMeal sets one meal flag and bumps the total, conditionally: the
	// update applies only while the flag is still false and the total is
	// below the cap. Returns the refreshed row and whether the update
	// applied. Two devices racing on the same soldier and meal cannot both
	// win; the loser reads applied == false.
	MarkMeal(ctx context.Context, soldierID string, meal model.MealType, at time.Time) (*model.SoldierAttendance, bool, error)
	// List returns all attendance rows, most recently scanned first.
	List(ctx context.Context) ([]model.SoldierAttendance, error)
	// Stats returns the roster aggregates.
	Stats(ctx context.Context) (Stats, error)
	// Ping probes connectivity to the remote store.
	Ping(ctx context.Context) error
	// Subscribe registers a change-feed consumer; the returned cancel func
	// unregisters it.
	Subscribe(buf int) (<-chan ChangeEvent, func())
	// Broadcast publishes a change event to all subscribers. Used by the
	// store itself after mutations, and by the reset flow after the remote
	// wipe completes.
	Broadcast(ev ChangeEvent)
	// DB exposes the underlying handle for components that need raw access.
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	feed *feed
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, feed: newFeed()}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) Get(ctx context.Context, soldierID string) (*model.SoldierAttendance, error) {
	var row model.SoldierAttendance
	err := s.db.WithContext(ctx).Where("soldier_id = ?", soldierID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance row for %q: %w", soldierID, err)
	}
	return &row, nil
}

func (s *gormStore) Create(ctx context.Context, row *model.SoldierAttendance) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create attendance row for %q: %w", row.SoldierID, err)
	}
	s.Broadcast(ChangeEvent{Kind: ChangeInsert, Row: *row})
	return nil
}

// mealColumn maps a meal type to its column name. Only known meal types may
// reach SQL; everything else is rejected before query construction.
func mealColumn(meal model.MealType) (string, error) {
	switch meal {
	case model.MealBreakfast:
		return "breakfast", nil
	case model.MealLunch:
		return "lunch", nil
	case model.MealDinner:
		return "dinner", nil
	}
	return "", fmt.Errorf("unknown meal type %q", meal)
}

func (s *gormStore) MarkMeal(ctx context.Context, soldierID string, meal model.MealType, at time.Time) (*model.SoldierAttendance, bool, error) {
	col, err := mealColumn(meal)
	if err != nil {
		return nil, false, err
	}

	res := s.db.WithContext(ctx).
		Model(&model.SoldierAttendance{}).
		Where("soldier_id = ? AND "+col+" = ? AND total_meals < ?", soldierID, false, 3).
		Updates(map[string]any{
			col:           true,
			"total_meals": gorm.Expr("total_meals + ?", 1),
			"last_scan":   at,
		})
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to mark %s for %q: %w", meal, soldierID, res.Error)
	}

	row, err := s.Get(ctx, soldierID)
	if err != nil {
		return nil, false, err
	}

	applied := res.RowsAffected == 1
	if applied && row != nil {
		s.Broadcast(ChangeEvent{Kind: ChangeUpdate, Row: *row})
	}
	return row, applied, nil
}

func (s *gormStore) List(ctx context.Context) ([]model.SoldierAttendance, error) {
	var rows []model.SoldierAttendance
	if err := s.db.WithContext(ctx).Order("last_scan DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance rows: %w", err)
	}
	return rows, nil
}

func (s *gormStore) Stats(ctx context.Context) (Stats, error) {
	type aggRow struct {
		Soldiers    int64
		MealsServed int64
	}
	var agg aggRow
	err := s.db.WithContext(ctx).
		Model(&model.SoldierAttendance{}).
		Select("COUNT(*) as soldiers, COALESCE(SUM(total_meals), 0) as meals_served").
		Scan(&agg).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate attendance rows: %w", err)
	}

	stats := Stats{Soldiers: agg.Soldiers, MealsServed: agg.MealsServed}
	if agg.Soldiers > 0 {
		stats.Average = float64(agg.MealsServed) / float64(agg.Soldiers)
	}
	return stats, nil
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) Subscribe(buf int) (<-chan ChangeEvent, func()) {
	return s.feed.subscribe(buf)
}

func (s *gormStore) Broadcast(ev ChangeEvent) {
	s.feed.broadcast(ev)
}
