package shared

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// MaxBodyBytes caps the size of a decoded request body.
const MaxBodyBytes = 1 << 20

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON or query name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		ns, ok := field.Interface().(domain.NullableString)
		if !ok || !ns.Set || ns.Value == nil {
			return nil
		}
		return *ns.Value
	}, domain.NullableString{})

	if err := v.RegisterValidation("trimmed_gt", trimmedGreaterThan); err != nil {
		panic(err)
	}
	return v
}

// trimmedGreaterThan implements the trimmed_gt=N tag: the value, with
// surrounding whitespace removed, must be longer than N runes.
func trimmedGreaterThan(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(field.String())) > limit
}

// DecodeJSON decodes the request body into the given struct.
// Bodies larger than MaxBodyBytes are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return err
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	// Check if the object implements the Validate interface
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}

	// Otherwise, use the struct validator
	return validate.Struct(v)
}
