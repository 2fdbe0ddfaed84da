package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// getPathID extracts a positive integer ID from the URL path parameters.
//
// Returns:
//   - (id, nil): The parsed ID if valid
//   - (0, error): A validation error if the parameter is missing or not a positive integer
func getPathID(r *http.Request, paramName string) (int, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", nil)
	}

	id, err := strconv.Atoi(pathParam)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "must be a positive integer", domain.ErrInvalidID)
	}
	return id, nil
}

// parseListQuery reads the list parameters from the URL query string.
// Values that cannot be parsed into their type are validation errors.
func parseListQuery(values url.Values) (ListTasksQuery, error) {
	q := ListTasksQuery{
		Search:    values.Get("search"),
		SortBy:    values.Get("sort_by"),
		SortOrder: values.Get("sort_order"),
	}

	var err error
	if q.Priority, err = optionalInt(values, "priority"); err != nil {
		return q, err
	}
	if q.Page, err = optionalInt(values, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = optionalInt(values, "page_size"); err != nil {
		return q, err
	}

	if raw := values.Get("completed"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, domain.NewValidationError("completed", "must be a boolean", nil)
		}
		q.Completed = &b
	}
	return q, nil
}

func optionalInt(values url.Values, name string) (*int, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer", nil)
	}
	return &n, nil
}
