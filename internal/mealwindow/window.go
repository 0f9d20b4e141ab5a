package mealwindow

import (
	"time"

	"meal-attendance-backend/internal/model"
)

// Fixed daily windows, evaluated on the local hour of day. Half-open
// intervals; [15,16) and [21,6) have no active meal, and scans taken then
// are dropped outright. These boundaries gate whether any scan is accepted
// at all and must not drift.
var windows = []struct {
	meal       model.MealType
	start, end int
}{
	{model.MealBreakfast, 6, 11},
	{model.MealLunch, 11, 15},
	{model.MealDinner, 16, 21},
}

// Current maps a wall-clock time to the active meal type. The second return
// is false when no meal window is active. Time is an explicit parameter so
// callers stay deterministic under test.
func Current(now time.Time) (model.MealType, bool) {
	hour := now.Hour()
	for _, w := range windows {
		if hour >= w.start && hour < w.end {
			return w.meal, true
		}
	}
	return "", false
}
