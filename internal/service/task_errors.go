package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/tasks-api/internal/store"
)

// Sentinel errors for TaskService. The API layer maps each to an HTTP status.
var (
	// ErrNoTasks indicates the store holds no tasks at all.
	// Distinct from a query that matches nothing, which yields an empty page.
	ErrNoTasks = errors.New("no tasks available")

	// ErrPageOutOfRange indicates the requested page is past the last page.
	ErrPageOutOfRange = errors.New("page number exceeds total pages")

	// ErrInvalidQuery indicates a list query parameter is out of range.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrTaskNotFound indicates that no task has the requested ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrExportNotFound indicates the backing file has not been written yet.
	ErrExportNotFound = errors.New("export file not found")
)

// TaskServiceError wraps unexpected errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "list_tasks")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Store not-found errors are translated into the service sentinels and
// returned directly without wrapping.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, store.ErrBackingFileNotFound):
		return ErrExportNotFound
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
