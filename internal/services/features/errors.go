package features

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest matches every request validation failure via errors.Is.
var ErrInvalidRequest = errors.New("invalid request")

// MissingFieldError reports an absent required numeric field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrInvalidRequest }

// TypeMismatchError reports a field whose value is not a JSON number.
type TypeMismatchError struct {
	Field string
}

func (e *TypeMismatchError) Error() string {
	return e.Field + " must be numeric"
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrInvalidRequest }

// EmptyCategoryError reports a category with no request keys at all.
type EmptyCategoryError struct {
	Category string
}

func (e *EmptyCategoryError) Error() string {
	return fmt.Sprintf("No %s features found. At least one %s feature must be set.", e.Category, e.Category)
}

func (e *EmptyCategoryError) Is(target error) bool { return target == ErrInvalidRequest }

// AmbiguousCategoryError reports a category where no key is set to 1,
// or, in strict mode, where more than one is.
type AmbiguousCategoryError struct {
	Category string
	Selected int
}

func (e *AmbiguousCategoryError) Error() string {
	return fmt.Sprintf("Exactly one %s must be selected (set to 1)", e.Category)
}

func (e *AmbiguousCategoryError) Is(target error) bool { return target == ErrInvalidRequest }

// InvalidDateError reports a departure_date that is not a YYYY-MM-DD string.
type InvalidDateError struct {
	Value any
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("Invalid departure_date %v: expected YYYY-MM-DD", e.Value)
}

func (e *InvalidDateError) Is(target error) bool { return target == ErrInvalidRequest }

// MalformedBodyError reports a request body that is not a JSON object.
type MalformedBodyError struct {
	Err error
}

func (e *MalformedBodyError) Error() string {
	return "Invalid JSON body: " + e.Err.Error()
}

func (e *MalformedBodyError) Unwrap() error { return e.Err }

func (e *MalformedBodyError) Is(target error) bool { return target == ErrInvalidRequest }
