package domain

import (
	"encoding/json"
	"fmt"
)

// Priority is the urgency of a task. Lower values are more urgent, so sorting
// ascending by Priority puts HIGH before MEDIUM before LOW.
type Priority int

// Priority levels. The numeric values are part of the CSV and JSON formats.
const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// DefaultPriority is assigned to tasks created without an explicit priority.
const DefaultPriority = PriorityLow

// ParsePriority converts a stored integer into a Priority.
func ParsePriority(n int) (Priority, error) {
	p := Priority(n)
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPriority, n)
	}
	return p, nil
}

// Valid reports whether p is one of the three defined levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// String returns the display name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// MarshalJSON encodes the priority as its integer value.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// UnmarshalJSON accepts only the integers 1, 2 and 3.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPriority, string(data))
	}
	parsed, err := ParsePriority(n)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
