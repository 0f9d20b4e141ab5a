package model

import "time"

// PendingScan is a scan captured while the remote store was unreachable,
// held in the device-local queue until reconciled. Timestamp is the capture
// time, not the time the scan is eventually applied.
type PendingScan struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SoldierID string    `gorm:"size:512;not null" json:"soldier_id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Meal      MealType  `gorm:"column:meal_type;size:16;not null" json:"meal_type"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
