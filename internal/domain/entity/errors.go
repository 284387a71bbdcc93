package entity

import (
	"errors"
	"fmt"
)

// ErrValidationFailed matches every *ValidationError under errors.Is, so
// callers can classify bad input without a type assertion.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError names the field of an entity that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
