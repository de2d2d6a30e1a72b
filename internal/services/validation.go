package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation matches every *ValidationError through errors.Is
var ErrValidation = errors.New("validation failed")

// ValidationError reports input that breaks a field rule
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
// An empty string yields nil.
func ParseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalid(field, "%s must be a date (YYYY-MM-DD or RFC3339)", field)
}
