package edgelet

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure reported by the management endpoint.
type Error struct {
	Operation string
	Message   string
	// StatusCode is the HTTP status the endpoint answered with.
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("error calling %s: %s", e.Operation, e.Message)
}

// StatusCode returns the HTTP status carried by err, if err is or wraps an *Error.
func StatusCode(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return e.StatusCode, true
	}
	return 0, false
}

// IsNotFound reports whether the endpoint answered 404.
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}

// ExtractionError means one module's settings could not be turned into the
// requested config type. It points at a schema or version mismatch and is
// never retried.
type ExtractionError struct {
	Module string
	// Kind is the JSON kind found where an object was expected.
	Kind string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode config of module %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("config of module %s is a JSON %s, expected an object", e.Module, e.Kind)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
