package store

import "meal-attendance-backend/internal/model"

// ChangeKind classifies a row-level change event.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	// ChangeReset signals a full-cycle wipe; consumers drop all rows.
	ChangeReset ChangeKind = "reset"
)

// ChangeEvent carries enough identity to patch a single row in a consumer's
// in-memory view, so a change never forces a full reload.
type ChangeEvent struct {
	Kind ChangeKind              `json:"kind"`
	Row  model.SoldierAttendance `json:"row"`
}
