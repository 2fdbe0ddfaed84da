package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskEventType names what happened to a task.
type TaskEventType string

// Task event types.
const (
	TaskCreated TaskEventType = "task.created"
	TaskUpdated TaskEventType = "task.updated"
	TaskDeleted TaskEventType = "task.deleted"
)

// TaskEvent describes one persisted change to a task.
type TaskEvent struct {
	// ID uniquely identifies the event
	ID uuid.UUID `json:"id"`

	// Type is the kind of change
	Type TaskEventType `json:"type"`

	// TaskID is the ID of the task that changed
	TaskID int `json:"task_id"`

	// Payload holds the task as JSON, after the change for create and
	// update and as it was for delete
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event's payload into v.
func (e *TaskEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskEvent creates an event with a fresh ID, marshaling payload to JSON.
func NewTaskEvent(eventType TaskEventType, taskID int, payload interface{}) (*TaskEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines the interface for components that handle events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines the interface for components that emit events.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
