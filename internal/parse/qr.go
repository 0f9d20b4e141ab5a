package parse

import (
	"fmt"
	"strings"
)

// nameField is the 0-indexed position of the display name among the
// colon-delimited fields of a badge payload.
const nameField = 5

// Identity holds the structured data parsed from a scanned badge payload.
type Identity struct {
	SoldierID string
	Name      string
}

// ParseBadge extracts a soldier identity from a raw decoded QR payload.
// The soldier identifier is the entire payload; only the display name is
// taken from a fixed field position. Badge payloads issued upstream embed
// the name at that position, and downstream lookups key on the full
// payload, so both sides must stay exactly as they are.
func ParseBadge(raw string) (Identity, error) {
	parts := strings.Split(raw, ":")
	if len(parts) <= nameField {
		return Identity{}, fmt.Errorf("badge payload has %d fields, need at least %d: %q", len(parts), nameField+1, raw)
	}

	name := parts[nameField]
	if raw == "" || name == "" {
		return Identity{}, fmt.Errorf("badge payload missing identifier or name: %q", raw)
	}

	return Identity{SoldierID: raw, Name: name}, nil
}
