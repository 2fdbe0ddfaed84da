package store

import (
	"context"
	"os"

	"github.com/phrazzld/tasks-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
// Every mutating call is persisted before it returns.
type TaskStore interface {
	// List returns a copy of all tasks in insertion order.
	List(ctx context.Context) ([]domain.Task, error)

	// GetByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int) (*domain.Task, error)

	// Create assigns the next ID and both timestamps, appends the task and persists.
	// Returns validation errors from the domain if the draft is invalid.
	Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)

	// Update merges the patch into the stored task and persists.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id int, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes the task and persists, returning the removed task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int) (*domain.Task, error)

	// OpenBackingFile opens the persisted file for reading. The caller closes it.
	// Returns ErrBackingFileNotFound if nothing has been written yet.
	OpenBackingFile(ctx context.Context) (*os.File, error)
}
