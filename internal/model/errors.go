package model

import (
	"fmt"

	"github.com/creasty/defaults"
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns "field: message", or only the message without a field.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// setDefaults fills zero fields of v from their default tags. The tags are
// fixed at compile time so a failure is a programming error.
func setDefaults(v any) {
	if err := defaults.Set(v); err != nil {
		panic(fmt.Sprintf("applying defaults: %v", err))
	}
}
