package query

import "fmt"

// ValidationError reports a query parameter the API cannot honour.
type ValidationError struct {
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Key, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(key, format string, args ...any) *ValidationError {
	return &ValidationError{Key: key, Message: fmt.Sprintf(format, args...)}
}
