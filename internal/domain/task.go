package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length rules. A value must be strictly longer than the limit after
// surrounding whitespace is trimmed.
const (
	TitleMinExclusive       = 5
	DescriptionMinExclusive = 10
)

// Task is a titled, prioritized, completable unit of work.
type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskDraft carries the caller-supplied fields of a task that does not exist yet.
// A zero Priority means "use DefaultPriority".
type TaskDraft struct {
	Title       string
	Description *string
	Priority    Priority
	Completed   bool
}

// TaskPatch is a partial update. Nil pointers and unset Description leave the
// stored value untouched.
type TaskPatch struct {
	Title       *string
	Description NullableString
	Priority    *Priority
	Completed   *bool
}

// NullableString distinguishes an absent JSON key from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked for keys present in the payload, null included.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// ValidateTitle enforces the title length rule.
func ValidateTitle(title string) error {
	if trimmedLen(title) <= TitleMinExclusive {
		return NewValidationError("title", "must be more than 5 characters", nil)
	}
	return nil
}

// ValidateDescription enforces the description length rule. Nil is allowed.
func ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}
	if trimmedLen(*description) <= DescriptionMinExclusive {
		return NewValidationError("description", "must be more than 10 characters if provided", nil)
	}
	return nil
}

func validatePriority(p Priority) error {
	if !p.Valid() {
		return NewValidationError("priority", "must be 1 (high), 2 (medium) or 3 (low)", ErrInvalidPriority)
	}
	return nil
}

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// Validate checks the draft before a task is created from it.
func (d TaskDraft) Validate() error {
	if err := ValidateTitle(d.Title); err != nil {
		return err
	}
	if err := ValidateDescription(d.Description); err != nil {
		return err
	}
	if d.Priority != 0 {
		return validatePriority(d.Priority)
	}
	return nil
}

// Validate checks only the fields present in the patch.
func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description.Set {
		if err := ValidateDescription(p.Description.Value); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		return validatePriority(*p.Priority)
	}
	return nil
}

// NewTask creates a task with the given id, stamping both timestamps with now.
func NewTask(id int, draft TaskDraft, now time.Time) (*Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	priority := draft.Priority
	if priority == 0 {
		priority = DefaultPriority
	}

	now = now.UTC()
	task := &Task{
		ID:          id,
		Title:       draft.Title,
		Description: cloneString(draft.Description),
		Priority:    priority,
		Completed:   draft.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Apply returns a copy of t with the patch merged in. ID and CreatedAt are
// preserved; UpdatedAt becomes now. t itself is not modified.
func (t Task) Apply(patch TaskPatch, now time.Time) (*Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	updated := t
	updated.Description = cloneString(t.Description)
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Description.Set {
		updated.Description = cloneString(patch.Description.Value)
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	if patch.Completed != nil {
		updated.Completed = *patch.Completed
	}

	updated.UpdatedAt = now.UTC()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}
	return &updated, nil
}

// Validate checks every invariant of a stored task.
func (t *Task) Validate() error {
	if t.ID <= 0 {
		return NewValidationError("id", "must be a positive integer", ErrInvalidID)
	}
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if err := validatePriority(t.Priority); err != nil {
		return err
	}
	if t.CreatedAt.After(t.UpdatedAt) {
		return NewValidationError("updated_at", "must not be before created_at", ErrInvalidTimestamps)
	}
	return nil
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	t.Description = cloneString(t.Description)
	return t
}

// DescriptionOrEmpty returns the description, or "" when absent.
func (t Task) DescriptionOrEmpty() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
