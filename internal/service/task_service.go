package service

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
)

// TaskService provides task-related operations
type TaskService interface {
	// ListTasks runs filter, search, sort and paginate over all tasks, in that order.
	ListTasks(ctx context.Context, query TaskQuery) (*TaskPage, error)

	// GetTask retrieves a task by its ID
	GetTask(ctx context.Context, id int) (*domain.Task, error)

	// CreateTask validates the draft and stores a new task
	CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)

	// UpdateTask merges the present fields of patch into the task
	UpdateTask(ctx context.Context, id int, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteTask removes a task and returns it
	DeleteTask(ctx context.Context, id int) (*domain.Task, error)

	// OpenExport opens the backing file for download. The caller closes it.
	OpenExport(ctx context.Context) (*os.File, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks   store.TaskStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// TaskServiceOption customises NewTaskService.
type TaskServiceOption func(*taskServiceImpl)

// WithEventEmitter makes the service emit a TaskEvent after every persisted
// create, update and delete.
func WithEventEmitter(emitter events.EventEmitter) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.emitter = emitter
	}
}

// NewTaskService creates a new TaskService
// It returns an error if the store is nil.
func NewTaskService(
	tasks store.TaskStore,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if tasks == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "task store cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:  tasks,
		logger: logger.With("component", "task_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context, query TaskQuery) (*TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, err := query.Normalize()
	if err != nil {
		return nil, err
	}

	all, err := s.tasks.List(ctx)
	if err != nil {
		log.Error("failed to list tasks", "error", err)
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	if len(all) == 0 {
		return nil, ErrNoTasks
	}

	matched := FilterTasks(all, query.Priority, query.Completed)
	matched = SearchTasks(matched, query.Search)
	SortTasks(matched, query.SortBy, query.SortOrder)

	page, err := Paginate(matched, query.Page, query.PageSize)
	if err != nil {
		log.Debug("requested page out of range",
			"page", query.Page,
			"total_pages", page.TotalPages)
		return nil, err
	}
	return &page, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, id int) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	task, err := s.tasks.Create(ctx, draft)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create task", "error", err)
		return nil, NewTaskServiceError("create_task", "failed to create task", err)
	}
	s.emit(ctx, events.TaskCreated, task)
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	id int,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}
	s.emit(ctx, events.TaskUpdated, task)
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int) (*domain.Task, error) {
	task, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("delete_task", "failed to delete task", err)
	}
	s.emit(ctx, events.TaskDeleted, task)
	return task, nil
}

// OpenExport implements TaskService.OpenExport
func (s *taskServiceImpl) OpenExport(ctx context.Context) (*os.File, error) {
	f, err := s.tasks.OpenBackingFile(ctx)
	if err != nil {
		return nil, NewTaskServiceError("open_export", "failed to open backing file", err)
	}
	return f, nil
}

// emit notifies the emitter of a change that is already on disk. Failures are
// logged and never undo the change.
func (s *taskServiceImpl) emit(ctx context.Context, eventType events.TaskEventType, task *domain.Task) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTaskEvent(eventType, task.ID, task)
	if err != nil {
		log.Error("failed to build task event", "error", err, "task_id", task.ID)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("task event handler failed",
			"error", err,
			"event_type", eventType,
			"task_id", task.ID)
	}
}
