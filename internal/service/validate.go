package service

import (
	"fmt"
	"strings"
)

// FieldError names one offending input field. Validation runs before any
// store access; a request that fails it never reaches storage.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
