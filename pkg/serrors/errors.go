package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BaseError is a coded error suitable for API payloads.
type BaseError struct {
	Code    string
	Message string
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

func NewFieldRequiredError(field string) *BaseError {
	return &BaseError{
		Code:    "FIELD_REQUIRED",
		Message: fmt.Sprintf("%s is required", field),
	}
}

// ValidationErrors maps a struct field name to its validation error.
type ValidationErrors map[string]*BaseError

// Flatten converts ValidationErrors into a plain field -> message map for
// JSON responses.
func (v ValidationErrors) Flatten() map[string]string {
	out := make(map[string]string, len(v))
	for field, err := range v {
		out[field] = err.Message
	}
	return out
}

// ProcessValidatorErrors maps go-playground validator errors onto coded
// BaseErrors keyed by struct field.
func ProcessValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = NewFieldRequiredError(fe.Field())
		case "email":
			out[fe.Field()] = NewError("FIELD_INVALID_EMAIL", fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "url":
			out[fe.Field()] = NewError("FIELD_INVALID_URL", fmt.Sprintf("%s must be a valid URL", fe.Field()))
		case "min", "max", "gte", "lte":
			out[fe.Field()] = NewError("FIELD_OUT_OF_RANGE", fmt.Sprintf("%s is out of range", fe.Field()))
		default:
			out[fe.Field()] = NewError("FIELD_INVALID", fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}
