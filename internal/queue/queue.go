package queue

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"meal-attendance-backend/internal/model"
)

// Queue is the device-local durable buffer of scans taken while the remote
// store was unreachable. It is owned exclusively by this device; entries are
// appended in capture order and removed as they reach a terminal outcome
// during a sync pass.
type Queue struct {
	db *gorm.DB
}

// Open opens (or creates) the queue database at the given path and runs
// migrations. Use ":memory:" for an ephemeral queue in tests.
func Open(path string) (*Queue, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database at %q: %w", path, err)
	}
	if err := db.AutoMigrate(&model.PendingScan{}); err != nil {
		return nil, fmt.Errorf("queue automigrate failed: %w", err)
	}
	return &Queue{db: db}, nil
}

// Enqueue appends a scan to the queue. A persistence failure is returned to
// the caller; it must never pass silently.
func (q *Queue) Enqueue(ctx context.Context, scan *model.PendingScan) error {
	if err := q.db.WithContext(ctx).Create(scan).Error; err != nil {
		return fmt.Errorf("failed to enqueue pending scan for %q: %w", scan.SoldierID, err)
	}
	return nil
}

// Pending returns the current queue contents in insertion order without
// removing them.
func (q *Queue) Pending(ctx context.Context) ([]model.PendingScan, error) {
	var scans []model.PendingScan
	if err := q.db.WithContext(ctx).Order("id ASC").Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to read pending scans: %w", err)
	}
	return scans, nil
}

// Count returns the number of queued scans.
func (q *Queue) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.WithContext(ctx).Model(&model.PendingScan{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count pending scans: %w", err)
	}
	return n, nil
}

// Remove deletes a single queue entry by id.
func (q *Queue) Remove(ctx context.Context, id uint) error {
	if err := q.db.WithContext(ctx).Delete(&model.PendingScan{}, id).Error; err != nil {
		return fmt.Errorf("failed to remove pending scan %d: %w", id, err)
	}
	return nil
}

// Clear empties the queue.
func (q *Queue) Clear(ctx context.Context) error {
	if err := q.db.WithContext(ctx).Where("1 = 1").Delete(&model.PendingScan{}).Error; err != nil {
		return fmt.Errorf("failed to clear pending scans: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (q *Queue) Close() error {
	sqlDB, err := q.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
