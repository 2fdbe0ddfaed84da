package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/phrazzld/tasks-api/internal/domain"
)

// SortField names the attribute a task list is ordered by.
type SortField string

// Supported sort fields.
const (
	SortByCreatedAt SortField = "created_at"
	SortByPriority  SortField = "priority"
)

// SortOrder is the direction of a sort.
type SortOrder string

// Supported sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Paging limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TaskQuery selects and orders a page of tasks. Nil filters and an empty
// Search match everything; zero values elsewhere take the defaults.
type TaskQuery struct {
	Priority  *domain.Priority
	Completed *bool
	Search    string
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	PageSize  int
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks      []domain.Task
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Normalize returns q with defaults applied, or ErrInvalidQuery when a value is
// out of range.
func (q TaskQuery) Normalize() (TaskQuery, error) {
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	if q.SortOrder == "" {
		q.SortOrder = SortAsc
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}

	switch {
	case q.SortBy != SortByCreatedAt && q.SortBy != SortByPriority:
		return q, fmt.Errorf("%w: sort_by must be created_at or priority", ErrInvalidQuery)
	case q.SortOrder != SortAsc && q.SortOrder != SortDesc:
		return q, fmt.Errorf("%w: sort_order must be asc or desc", ErrInvalidQuery)
	case q.Page < 1:
		return q, fmt.Errorf("%w: page must be at least 1", ErrInvalidQuery)
	case q.PageSize < 1 || q.PageSize > MaxPageSize:
		return q, fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidQuery, MaxPageSize)
	case q.Priority != nil && !q.Priority.Valid():
		return q, fmt.Errorf("%w: priority must be 1, 2 or 3", ErrInvalidQuery)
	}
	return q, nil
}

// FilterTasks keeps tasks matching every non-nil filter.
func FilterTasks(tasks []domain.Task, priority *domain.Priority, completed *bool) []domain.Task {
	if priority == nil && completed == nil {
		return tasks
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if priority != nil && task.Priority != *priority {
			continue
		}
		if completed != nil && task.Completed != *completed {
			continue
		}
		out = append(out, task)
	}
	return out
}

// SearchTasks keeps tasks whose title or description contains term,
// ignoring case. An empty term keeps everything.
func SearchTasks(tasks []domain.Task, term string) []domain.Task {
	if term == "" {
		return tasks
	}
	needle := strings.ToLower(term)
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), needle) ||
			strings.Contains(strings.ToLower(task.DescriptionOrEmpty()), needle) {
			out = append(out, task)
		}
	}
	return out
}

// SortTasks orders tasks in place. Ties keep their existing relative order in
// both directions.
func SortTasks(tasks []domain.Task, by SortField, order SortOrder) {
	compare := func(a, b domain.Task) int {
		if by == SortByPriority {
			return cmp.Compare(a.Priority, b.Priority)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	if order == SortDesc {
		slices.SortStableFunc(tasks, func(a, b domain.Task) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(tasks, compare)
}

// Paginate cuts page out of tasks. A page past the end is ErrPageOutOfRange
// unless there are no pages at all, in which case the page is empty.
func Paginate(tasks []domain.Task, page, pageSize int) (TaskPage, error) {
	total := len(tasks)
	totalPages := (total + pageSize - 1) / pageSize

	result := TaskPage{
		Tasks:      []domain.Task{},
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	if totalPages != 0 && page > totalPages {
		return result, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, totalPages)
	}

	start := (page - 1) * pageSize
	if start >= total {
		return result, nil
	}
	end := min(start+pageSize, total)
	result.Tasks = tasks[start:end]
	return result, nil
}
