package api

import "fmt"

// RecordError reports a CallLog field that violates a record invariant.
type RecordError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid call log: %s: %s", e.Field, e.Message)
}

func invalid(field, message string) *RecordError {
	return &RecordError{Field: field, Message: message}
}
