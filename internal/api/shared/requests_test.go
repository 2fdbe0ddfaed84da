package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid json",
			requestBody: `{"title": "Buy groceries", "priority": 2}`,
		},
		{
			name:        "invalid json",
			requestBody: `{"title": "Buy groceries",}`, // trailing comma
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
		{
			name:        "oversized body",
			requestBody: `{"title": "` + strings.Repeat("x", MaxBodyBytes) + `"}`,
			wantErr:     true,
			errContains: "too large",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tc.requestBody))
			w := httptest.NewRecorder()

			var target struct {
				Title    string `json:"title"`
				Priority int    `json:"priority"`
			}
			err := DecodeJSON(w, req, &target)

			if tc.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Buy groceries", target.Title)
			assert.Equal(t, 2, target.Priority)
		})
	}
}

type testPayload struct {
	Title       string                `json:"title"       validate:"required,trimmed_gt=5"`
	Note        *string               `json:"note"        validate:"omitempty,trimmed_gt=10"`
	Description domain.NullableString `json:"description" validate:"omitempty,trimmed_gt=10"`
}

type selfValidating struct{ err error }

func (s selfValidating) Validate() error { return s.err }

func TestValidateRequest(t *testing.T) {
	short := "too short"
	long := "long enough text"

	tests := []struct {
		name      string
		payload   interface{}
		wantField string
	}{
		{"valid", testPayload{Title: "Buy groceries"}, ""},
		{"title too short after trim", testPayload{Title: "  Hello  "}, "title"},
		{"title counts runes", testPayload{Title: "éééééé"}, ""},
		{"missing title", testPayload{}, "title"},
		{"short pointer", testPayload{Title: "Buy groceries", Note: &short}, "note"},
		{"long pointer", testPayload{Title: "Buy groceries", Note: &long}, ""},
		{"nullable unset", testPayload{Title: "Buy groceries", Description: domain.NullableString{}}, ""},
		{"nullable null", testPayload{Title: "Buy groceries", Description: domain.NullableString{Set: true}}, ""},
		{"nullable short", testPayload{Title: "Buy groceries", Description: domain.NullableString{Set: true, Value: &short}}, "description"},
		{"nullable long", testPayload{Title: "Buy groceries", Description: domain.NullableString{Set: true, Value: &long}}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.payload)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "expected validator errors, got %v", err)
			assert.Equal(t, tc.wantField, vErrs[0].Field())
		})
	}
}

func TestValidateRequestUsesValidateMethod(t *testing.T) {
	want := errors.New("custom")
	assert.Equal(t, want, ValidateRequest(selfValidating{err: want}))
	assert.NoError(t, ValidateRequest(selfValidating{}))
}
