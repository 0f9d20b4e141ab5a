package model

import "time"

// SoldierAttendance is one row per soldier per day-cycle in the remote store.
// TotalMeals must equal the count of true meal flags at all times; a flag,
// once set, is only cleared by a full-cycle reset.
type SoldierAttendance struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SoldierID  string    `gorm:"uniqueIndex;size:512;not null" json:"soldier_id"`
	Name       string    `gorm:"size:256;not null" json:"name"`
	Breakfast  bool      `gorm:"not null" json:"breakfast"`
	Lunch      bool      `gorm:"not null" json:"lunch"`
	Dinner     bool      `gorm:"not null" json:"dinner"`
	TotalMeals int       `gorm:"not null" json:"total_meals"`
	LastScan   time.Time `gorm:"not null;index" json:"last_scan"`
	CreatedAt  time.Time `json:"created_at"`
}

// Flag returns the value of the meal flag for the given meal type.
func (s *SoldierAttendance) Flag(meal MealType) bool {
	switch meal {
	case MealBreakfast:
		return s.Breakfast
	case MealLunch:
		return s.Lunch
	case MealDinner:
		return s.Dinner
	}
	return false
}

// SetFlag sets the meal flag for the given meal type.
func (s *SoldierAttendance) SetFlag(meal MealType) {
	switch meal {
	case MealBreakfast:
		s.Breakfast = true
	case MealLunch:
		s.Lunch = true
	case MealDinner:
		s.Dinner = true
	}
}

// MealCount returns the number of meal flags currently set.
func (s *SoldierAttendance) MealCount() int {
	n := 0
	for _, set := range []bool{s.Breakfast, s.Lunch, s.Dinner} {
		if set {
			n++
		}
	}
	return n
}
