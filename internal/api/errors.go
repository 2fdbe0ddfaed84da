package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/store"
)

// ErrMalformedBody marks a request body that is not a JSON object.
var ErrMalformedBody = errors.New("malformed request body")

// classifyDecodeError separates syntactically broken bodies (400) from
// well-formed JSON carrying a value of the wrong type (422).
func classifyDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		return domain.NewValidationError(field, "has the wrong type", nil)
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	if errors.Is(err, domain.ErrInvalidPriority) {
		return domain.NewValidationError("priority", "must be 1 (high), 2 (medium) or 3 (low)", err)
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty body", ErrMalformedBody)
	}
	return fmt.Errorf("%w: %v", ErrMalformedBody, err)
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var vErrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK

	// Malformed request bodies
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest

	// Validation errors
	case errors.As(err, &vErrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrInvalidQuery):
		return http.StatusUnprocessableEntity

	// Not found errors
	case errors.Is(err, service.ErrNoTasks),
		errors.Is(err, service.ErrPageOutOfRange),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrExportNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, ErrMalformedBody):
		return "Invalid request format"

	case errors.Is(err, service.ErrNoTasks):
		return "No tasks available."

	case errors.Is(err, service.ErrPageOutOfRange):
		return "Page number exceeds total pages."

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, service.ErrExportNotFound),
		errors.Is(err, store.ErrBackingFileNotFound):
		return "CSV file not found."

	case errors.Is(err, store.ErrPersistFailed):
		return "Failed to save tasks"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validation failure into a message naming
// the field and the violated constraint, without internal type names.
func SanitizeValidationError(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		fe := vErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag(), fe.Param()))
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return fmt.Sprintf("Invalid %s: %s", vErr.Field, vErr.Message)
	}

	if errors.Is(err, service.ErrInvalidQuery) {
		msg := err.Error()
		if i := strings.Index(msg, ": "); i >= 0 {
			return "Invalid query: " + msg[i+2:]
		}
		return "Invalid query"
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "required field"
	case "trimmed_gt":
		return fmt.Sprintf("must be more than %s characters", param)
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "gte", "min":
		return "must be at least " + param
	case "lte", "max":
		return "must be at most " + param
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err with the status from
// MapErrorToStatusCode. Validation failures are described field by field;
// everything else gets a safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)

	message := GetSafeErrorMessage(err)
	if status == http.StatusUnprocessableEntity {
		message = SanitizeValidationError(err)
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
