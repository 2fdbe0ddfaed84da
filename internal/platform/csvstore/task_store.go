package csvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
)

// LoadReport summarises what Open found in the backing file.
type LoadReport struct {
	Path    string
	Found   bool
	Loaded  int
	Skipped []RowError
	ReadErr error
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithClock replaces time.Now as the source of task timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *TaskStore) {
		s.clock = clock
	}
}

// TaskStore implements store.TaskStore backed by a CSV file.
// It is safe for concurrent use within one process.
type TaskStore struct {
	path   string
	logger *slog.Logger
	clock  func() time.Time

	mu     sync.RWMutex
	tasks  []domain.Task
	report LoadReport
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// Open loads the file at path and returns a store over its contents.
// A missing or unreadable file yields an empty store; the reason is logged and
// recorded in LoadReport. If logger is nil, a default logger will be used.
func Open(path string, log *slog.Logger, opts ...Option) (*TaskStore, error) {
	if path == "" {
		return nil, errors.New("csvstore: path cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &TaskStore{
		path:   path,
		logger: log.With(slog.String("component", "task_store")),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.load()
	return s, nil
}

func (s *TaskStore) load() {
	s.report = LoadReport{Path: s.path}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("backing file not found, starting with an empty store",
			slog.String("path", s.path))
		return
	}
	if err != nil {
		s.report.ReadErr = err
		s.logger.Error("failed to open backing file, starting with an empty store",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return
	}
	defer f.Close()

	s.report.Found = true
	result, err := Decode(f)
	if err != nil {
		s.report.ReadErr = err
		s.logger.Error("failed to read backing file, starting with an empty store",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return
	}

	for _, rowErr := range result.Skipped {
		s.logger.Warn("skipping malformed row",
			slog.Int("line", rowErr.Line),
			slog.String("error", rowErr.Err.Error()))
	}

	s.tasks = result.Tasks
	s.report.Loaded = len(result.Tasks)
	s.report.Skipped = result.Skipped

	s.logger.Info("tasks loaded",
		slog.String("path", s.path),
		slog.Int("loaded", s.report.Loaded),
		slog.Int("skipped", len(s.report.Skipped)))
}

// LoadReport returns what happened when the store was opened.
func (s *TaskStore) LoadReport() LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report := s.report
	report.Skipped = slices.Clone(s.report.Skipped)
	return report
}

// Path returns the location of the backing file.
func (s *TaskStore) Path() string {
	return s.path
}

// List implements store.TaskStore.List
func (s *TaskStore) List(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]domain.Task, len(s.tasks))
	for i, task := range s.tasks {
		tasks[i] = task.Clone()
	}
	return tasks, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		log.Debug("task not found", slog.Int("task_id", id))
		return nil, store.ErrTaskNotFound
	}
	task := s.tasks[i].Clone()
	return &task, nil
}

// Create implements store.TaskStore.Create
// The new task gets max(existing id)+1, or 1 for an empty store.
func (s *TaskStore) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := domain.NewTask(s.nextID(), draft, s.clock())
	if err != nil {
		log.Debug("task validation failed during create", slog.String("error", err.Error()))
		return nil, err
	}

	next := make([]domain.Task, len(s.tasks), len(s.tasks)+1)
	copy(next, s.tasks)
	next = append(next, *task)

	if err := s.commit(next, "create"); err != nil {
		log.Error("failed to persist created task",
			slog.Int("task_id", task.ID),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task created", slog.Int("task_id", task.ID))
	created := task.Clone()
	return &created, nil
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, id int, patch domain.TaskPatch) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		log.Debug("task not found for update", slog.Int("task_id", id))
		return nil, store.ErrTaskNotFound
	}

	updated, err := s.tasks[i].Apply(patch, s.clock())
	if err != nil {
		log.Debug("task validation failed during update",
			slog.Int("task_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	next := slices.Clone(s.tasks)
	next[i] = *updated

	if err := s.commit(next, "update"); err != nil {
		log.Error("failed to persist updated task",
			slog.Int("task_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task updated", slog.Int("task_id", id))
	result := updated.Clone()
	return &result, nil
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id int) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		log.Debug("task not found for delete", slog.Int("task_id", id))
		return nil, store.ErrTaskNotFound
	}

	removed := s.tasks[i].Clone()
	next := slices.Delete(slices.Clone(s.tasks), i, i+1)

	if err := s.commit(next, "delete"); err != nil {
		log.Error("failed to persist task deletion",
			slog.Int("task_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task deleted", slog.Int("task_id", id))
	return &removed, nil
}

// OpenBackingFile implements store.TaskStore.OpenBackingFile
func (s *TaskStore) OpenBackingFile(ctx context.Context) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Not opened mid-rewrite.
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrBackingFileNotFound
	}
	if err != nil {
		return nil, store.NewStoreError("task", "download", "failed to open backing file", err)
	}
	return f, nil
}

// commit writes next to disk and, only if that succeeds, makes it the
// in-memory state. Callers must hold the write lock.
func (s *TaskStore) commit(next []domain.Task, operation string) error {
	if err := s.writeFile(next); err != nil {
		return store.NewStoreError("task", operation, "failed to write backing file",
			fmt.Errorf("%w: %w", store.ErrPersistFailed, err))
	}
	s.tasks = next
	return nil
}

func (s *TaskStore) writeFile(tasks []domain.Task) error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	if err := Encode(f, tasks); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *TaskStore) indexOf(id int) int {
	return slices.IndexFunc(s.tasks, func(t domain.Task) bool {
		return t.ID == id
	})
}

func (s *TaskStore) nextID() int {
	maxID := 0
	for _, task := range s.tasks {
		maxID = max(maxID, task.ID)
	}
	return maxID + 1
}
