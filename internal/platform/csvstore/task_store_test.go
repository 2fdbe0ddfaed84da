package csvstore_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/csvstore"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedCSV = "id,title,description,priority,completed,created_at,updated_at\n" +
	"1,Buy groceries,Milk eggs and bread,2,False,2024-05-01T10:00:00Z,2024-05-01T10:00:00Z\n" +
	"3,Write report,,1,True,2024-05-02T10:00:00Z,2024-05-02T12:00:00Z\n"

func fixedClock() func() time.Time {
	now := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func openSeeded(t *testing.T, content string) (*csvstore.TaskStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	log, _ := logger.GetTestLogger(t)
	s, err := csvstore.Open(path, log, csvstore.WithClock(fixedClock()))
	require.NoError(t, err)
	return s, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := csvstore.Open("", nil)
	assert.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	log, buf := logger.GetTestLogger(t)

	s, err := csvstore.Open(path, log)
	require.NoError(t, err)

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	report := s.LoadReport()
	assert.False(t, report.Found)
	assert.NoError(t, report.ReadErr)
	logger.AssertLogContains(t, buf, "backing file not found")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "opening must not create the file")
}

func TestOpenUnreadableFile(t *testing.T) {
	// A directory opens fine but cannot be read as CSV.
	path := t.TempDir()
	log, buf := logger.GetTestLogger(t)

	s, err := csvstore.Open(path, log)
	require.NoError(t, err)

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Error(t, s.LoadReport().ReadErr)

	entry := logger.FindLogEntry(t, buf, "failed to read backing file, starting with an empty store")
	require.NotNil(t, entry)
	assert.Equal(t, "ERROR", entry["level"])
}

func TestOpenReportsSkippedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	content := seedCSV + "9,Bad priority,,7,False,2024-05-01T10:00:00Z,2024-05-01T10:00:00Z\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	log, buf := logger.GetTestLogger(t)
	s, err := csvstore.Open(path, log)
	require.NoError(t, err)

	report := s.LoadReport()
	assert.True(t, report.Found)
	assert.Equal(t, 2, report.Loaded)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 4, report.Skipped[0].Line)

	entry := logger.FindLogEntry(t, buf, "skipping malformed row")
	require.NotNil(t, entry)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(4), entry["line"])
}

func TestCreateAssignsNextID(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store starts at one", func(t *testing.T) {
		s, err := csvstore.Open(filepath.Join(t.TempDir(), "tasks.csv"), nil)
		require.NoError(t, err)

		task, err := s.Create(ctx, domain.TaskDraft{Title: "Buy groceries"})
		require.NoError(t, err)
		assert.Equal(t, 1, task.ID)
	})

	t.Run("max plus one", func(t *testing.T) {
		s, _ := openSeeded(t, seedCSV)

		task, err := s.Create(ctx, domain.TaskDraft{Title: "Call plumber"})
		require.NoError(t, err)
		assert.Equal(t, 4, task.ID)
	})

	t.Run("ids are not reused after deleting the maximum", func(t *testing.T) {
		s, _ := openSeeded(t, seedCSV)
		_, err := s.Delete(ctx, 3)
		require.NoError(t, err)

		task, err := s.Create(ctx, domain.TaskDraft{Title: "Call plumber"})
		require.NoError(t, err)
		assert.Equal(t, 2, task.ID)
	})
}

func TestCreatePersists(t *testing.T) {
	ctx := context.Background()
	s, path := openSeeded(t, seedCSV)

	task, err := s.Create(ctx, domain.TaskDraft{
		Title:       "Buy groceries",
		Description: strPtr("Milk, eggs, bread"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityLow, task.Priority)
	assert.False(t, task.Completed)
	assert.Equal(t, fixedClock()(), task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	reopened, err := csvstore.Open(path, nil)
	require.NoError(t, err)
	tasks, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, *task, tasks[2])
}

func TestCreateInvalidLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s, path := openSeeded(t, seedCSV)

	_, err := s.Create(ctx, domain.TaskDraft{Title: "Hi"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, seedCSV, readFile(t, path))
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	s, _ := openSeeded(t, seedCSV)

	task, err := s.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.True(t, task.Completed)

	_, err = s.GetByID(ctx, 2)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestUpdatePartial(t *testing.T) {
	ctx := context.Background()
	s, path := openSeeded(t, seedCSV)

	done := true
	updated, err := s.Update(ctx, 1, domain.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy groceries", updated.Title)
	assert.Equal(t, domain.PriorityMedium, updated.Priority)
	assert.Equal(t, "Milk eggs and bread", updated.DescriptionOrEmpty())
	assert.Equal(t, time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC), updated.CreatedAt)
	assert.Equal(t, fixedClock()(), updated.UpdatedAt)

	assert.Contains(t, readFile(t, path), "1,Buy groceries,Milk eggs and bread,2,True,")
}

func TestNotFoundDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	s, path := openSeeded(t, seedCSV)
	title := "Something else"

	_, err := s.Update(ctx, 42, domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = s.Delete(ctx, 42)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, seedCSV, readFile(t, path))
}

func TestDeleteReturnsRemovedTask(t *testing.T) {
	ctx := context.Background()
	s, path := openSeeded(t, seedCSV)

	removed, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed.ID)
	assert.Equal(t, "Buy groceries", removed.Title)

	_, err = s.GetByID(ctx, 1)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.NotContains(t, readFile(t, path), "Buy groceries")
}

func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s, path := openSeeded(t, seedCSV)

	// Replace the file with a directory so every rewrite fails.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o700))

	_, err := s.Create(ctx, domain.TaskDraft{Title: "Call plumber"})
	assert.ErrorIs(t, err, store.ErrPersistFailed)

	done := true
	_, err = s.Update(ctx, 1, domain.TaskPatch{Completed: &done})
	assert.ErrorIs(t, err, store.ErrPersistFailed)

	_, err = s.Delete(ctx, 3)
	assert.ErrorIs(t, err, store.ErrPersistFailed)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, 3, tasks[1].ID)
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := openSeeded(t, seedCSV)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	tasks[0].Title = "Mutated by caller"
	*tasks[0].Description = "Mutated by caller too"

	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Buy groceries", again[0].Title)
	assert.Equal(t, "Milk eggs and bread", again[0].DescriptionOrEmpty())
}

func TestOpenBackingFile(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		s, err := csvstore.Open(filepath.Join(t.TempDir(), "tasks.csv"), nil)
		require.NoError(t, err)

		_, err = s.OpenBackingFile(ctx)
		assert.ErrorIs(t, err, store.ErrBackingFileNotFound)
	})

	t.Run("present", func(t *testing.T) {
		s, _ := openSeeded(t, seedCSV)

		f, err := s.OpenBackingFile(ctx)
		require.NoError(t, err)
		defer f.Close()

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, seedCSV, string(data))
	})
}

func TestCanceledContext(t *testing.T) {
	s, _ := openSeeded(t, seedCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, domain.TaskDraft{Title: "Call plumber"})
	assert.ErrorIs(t, err, context.Canceled)

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s, path := openSeeded(t, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, domain.TaskDraft{Title: "Concurrent task"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 20)
	seen := make(map[int]bool)
	for _, task := range tasks {
		assert.False(t, seen[task.ID], "duplicate id %d", task.ID)
		seen[task.ID] = true
	}
	assert.Equal(t, 21, strings.Count(readFile(t, path), "\n"))
}

func strPtr(s string) *string { return &s }
