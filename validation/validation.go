package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes bounds request bodies read by [Decode].
const MaxBodyBytes = 1 << 20

// FieldError is one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is the validation failure list.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Result holds either a decoded value or the reasons it was rejected.
// Exactly one of Value and Errors is meaningful: check OK first.
type Result[T any] struct {
	Value  T
	Errors FieldErrors
}

// OK reports whether the value passed decoding and validation.
func (r Result[T]) OK() bool {
	return len(r.Errors) == 0
}

// Body is the JSON body written for a failed [Result].
type Body struct {
	Error   string      `json:"error"`
	Details FieldErrors `json:"details"`
}

// FailureBody returns the response body for r. It must only be called when
// OK is false.
func (r Result[T]) FailureBody() Body {
	return Body{Error: "Validation failed", Details: r.Errors}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Decode reads a JSON body from r into T and validates its struct tags.
// Unknown fields are rejected.
func Decode[T any](r *http.Request) Result[T] {
	var v T
	if r.Body == nil {
		return Result[T]{Errors: FieldErrors{{Field: "body", Message: "request body is required"}}}
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return Result[T]{Errors: FieldErrors{decodeError(err)}}
	}

	return Validate(v)
}

// Validate checks v's struct tags.
func Validate[T any](v T) Result[T] {
	if err := instance().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Result[T]{Errors: fromValidator(verrs)}
		}
		return Result[T]{Errors: FieldErrors{{Field: "body", Message: err.Error()}}}
	}
	return Result[T]{Value: v}
}

func fromValidator(verrs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func decodeError(err error) FieldError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return FieldError{Field: "body", Message: "request body is required"}
	case errors.As(err, &syntaxErr):
		return FieldError{Field: "body", Message: "malformed JSON"}
	case errors.As(err, &typeErr):
		return FieldError{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return FieldError{Field: field, Message: "is not allowed"}
	default:
		return FieldError{Field: "body", Message: "malformed JSON"}
	}
}
