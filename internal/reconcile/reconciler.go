package reconcile

import (
	"context"
	"fmt"
	"time"

	"meal-attendance-backend/internal/model"
	"meal-attendance-backend/internal/store"
)

// mealCap is the most meals a soldier may consume per cycle.
const mealCap = 3

// Outcome classifies the result of applying one scan to the attendance store.
type Outcome string

const (
	// Created: no prior row existed; a new one was inserted with the single
	// meal flag set.
	Created Outcome = "created"
	// Accepted: a prior row existed and the meal flag was set.
	Accepted Outcome = "accepted"
	// DuplicateMeal: the meal flag was already set; nothing was mutated.
	DuplicateMeal Outcome = "duplicate_meal"
	// CapReached: the soldier already consumed the daily maximum; nothing
	// was mutated, even if the specific flag was somehow still false.
	CapReached Outcome = "cap_reached"
)

// Applied reports whether the outcome mutated the store.
func (o Outcome) Applied() bool {
	return o == Created || o == Accepted
}

// Reconciler applies scans against the attendance store under the
// once-per-meal and three-per-cycle rules.
type Reconciler struct {
	store store.Store
}

// New creates a reconciler over the given store.
func New(s store.Store) *Reconciler {
	return &Reconciler{store: s}
}

// Apply reconciles a single scan. Replaying a scan whose flag is already set
// yields DuplicateMeal rather than a second increment, which makes replays
// from the offline queue safe. Store failures are returned unretried; the
// caller decides whether to requeue.
func (r *Reconciler) Apply(ctx context.Context, soldierID, name string, meal model.MealType, at time.Time) (Outcome, *model.SoldierAttendance, error) {
	if !meal.Valid() {
		return "", nil, fmt.Errorf("unknown meal type %q", meal)
	}

	existing, err := r.store.Get(ctx, soldierID)
	if err != nil {
		return "", nil, err
	}

	if existing == nil {
		row := &model.SoldierAttendance{
			SoldierID:  soldierID,
			Name:       name,
			TotalMeals: 1,
			LastScan:   at,
		}
		row.SetFlag(meal)
		if err := r.store.Create(ctx, row); err != nil {
			return "", nil, err
		}
		return Created, row, nil
	}

	if existing.Flag(meal) {
		return DuplicateMeal, existing, nil
	}
	// The cap is checked before the flag update so an inconsistent row
	// (total at cap, flag clear) is still rejected.
	if existing.TotalMeals >= mealCap {
		return CapReached, existing, nil
	}

	row, applied, err := r.store.MarkMeal(ctx, soldierID, meal, at)
	if err != nil {
		return "", nil, err
	}
	if applied {
		return Accepted, row, nil
	}

	// Another device won the conditional update between our read and write.
	// Classify from the fresh row.
	if row != nil && row.Flag(meal) {
		return DuplicateMeal, row, nil
	}
	return CapReached, row, nil
}
