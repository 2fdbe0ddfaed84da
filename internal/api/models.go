package api

import (
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
)

// CreateTaskRequest defines the payload for POST /tasks.
type CreateTaskRequest struct {
	Title       string  `json:"title"       validate:"required,trimmed_gt=5"`
	Description *string `json:"description" validate:"omitempty,trimmed_gt=10"`
	Priority    *int    `json:"priority"    validate:"omitempty,oneof=1 2 3"`
	Completed   *bool   `json:"completed"`
}

// ToDraft converts the request into a domain draft.
func (r CreateTaskRequest) ToDraft() domain.TaskDraft {
	draft := domain.TaskDraft{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Priority != nil {
		draft.Priority = domain.Priority(*r.Priority)
	}
	if r.Completed != nil {
		draft.Completed = *r.Completed
	}
	return draft
}

// UpdateTaskRequest defines the payload for PUT /tasks/{id}.
// Every field is optional. An explicit null description clears it; a null
// anywhere else is treated as absent. A body id is accepted and ignored.
type UpdateTaskRequest struct {
	ID          *int                  `json:"id"          validate:"-"`
	Title       *string               `json:"title"       validate:"omitempty,trimmed_gt=5"`
	Description domain.NullableString `json:"description" validate:"omitempty,trimmed_gt=10"`
	Priority    *int                  `json:"priority"    validate:"omitempty,oneof=1 2 3"`
	Completed   *bool                 `json:"completed"`
}

// ToPatch converts the request into a domain patch.
func (r UpdateTaskRequest) ToPatch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		patch.Priority = &p
	}
	return patch
}

// ListTasksQuery holds the raw query parameters of GET /.
type ListTasksQuery struct {
	Priority  *int   `query:"priority"   validate:"omitempty,oneof=1 2 3"`
	Completed *bool  `query:"completed"`
	Search    string `query:"search"`
	SortBy    string `query:"sort_by"    validate:"omitempty,oneof=created_at priority"`
	SortOrder string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page      *int   `query:"page"       validate:"omitempty,gte=1"`
	PageSize  *int   `query:"page_size"  validate:"omitempty,gte=1,lte=100"`
}

// ToTaskQuery converts the parameters into a service query.
func (q ListTasksQuery) ToTaskQuery() service.TaskQuery {
	query := service.TaskQuery{
		Completed: q.Completed,
		Search:    q.Search,
		SortBy:    service.SortField(q.SortBy),
		SortOrder: service.SortOrder(q.SortOrder),
	}
	if q.Priority != nil {
		p := domain.Priority(*q.Priority)
		query.Priority = &p
	}
	if q.Page != nil {
		query.Page = *q.Page
	}
	if q.PageSize != nil {
		query.PageSize = *q.PageSize
	}
	return query
}

// TaskResponse represents the response data for a task
type TaskResponse struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    int       `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskListResponse is one page of tasks.
type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// taskToResponse converts a domain.Task to a TaskResponse
func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    int(task.Priority),
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// pageToResponse converts a service.TaskPage to a TaskListResponse
func pageToResponse(page *service.TaskPage) TaskListResponse {
	tasks := make([]TaskResponse, len(page.Tasks))
	for i := range page.Tasks {
		tasks[i] = taskToResponse(&page.Tasks[i])
	}
	return TaskListResponse{
		Tasks:      tasks,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}
