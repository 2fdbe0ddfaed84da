package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithID(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetPathID(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		want    int
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"not a number", "abc", 0, true},
		{"missing", "", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := getPathID(requestWithID(tc.param), "id")
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestParseListQuery(t *testing.T) {
	t.Run("all parameters", func(t *testing.T) {
		values, err := url.ParseQuery("priority=1&completed=true&search=pay&sort_by=priority&sort_order=desc&page=2&page_size=5")
		require.NoError(t, err)

		q, err := parseListQuery(values)
		require.NoError(t, err)

		query := q.ToTaskQuery()
		require.NotNil(t, query.Priority)
		assert.Equal(t, domain.PriorityHigh, *query.Priority)
		require.NotNil(t, query.Completed)
		assert.True(t, *query.Completed)
		assert.Equal(t, "pay", query.Search)
		assert.Equal(t, "priority", string(query.SortBy))
		assert.Equal(t, "desc", string(query.SortOrder))
		assert.Equal(t, 2, query.Page)
		assert.Equal(t, 5, query.PageSize)
	})

	t.Run("no parameters", func(t *testing.T) {
		q, err := parseListQuery(url.Values{})
		require.NoError(t, err)
		assert.Nil(t, q.Priority)
		assert.Nil(t, q.Completed)
		assert.Nil(t, q.Page)
	})

	for _, raw := range []string{"priority=high", "page=one", "page_size=1.5", "completed=maybe"} {
		t.Run("unparsable "+raw, func(t *testing.T) {
			values, err := url.ParseQuery(raw)
			require.NoError(t, err)
			_, err = parseListQuery(values)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUpdateTaskRequestToPatch(t *testing.T) {
	p := 2
	done := false
	req := UpdateTaskRequest{Priority: &p, Completed: &done, Description: domain.NullableString{Set: true}}
	patch := req.ToPatch()

	require.NotNil(t, patch.Priority)
	assert.Equal(t, domain.PriorityMedium, *patch.Priority)
	assert.Nil(t, patch.Title)
	assert.True(t, patch.Description.Set)
	assert.Nil(t, patch.Description.Value)
	assert.Equal(t, &done, patch.Completed)
}
