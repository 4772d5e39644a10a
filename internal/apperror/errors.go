// Package apperror defines the error kinds reported by cozewf.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken      = errors.New("missing environment variable COZE_API_TOKEN, configure your Coze personal access token first")
	ErrMissingWorkflowID = errors.New("workflow id cannot be empty")

	ErrEmptyInput = errors.New("input cannot be empty")
	ErrNotObject  = errors.New(`JSON must be an object, for example {"topic": "xxx"}`)
	ErrBadJSON    = errors.New("failed to parse JSON")
)

// ConfigError reports a configuration problem detected before any I/O.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError reports input that cannot be turned into a parameters mapping.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response from the workflow API. The body is kept verbatim.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("workflow api returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps any other failure during the HTTP exchange.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "workflow call failed: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Config wraps err as a ConfigError.
func Config(err error) error { return &ConfigError{Err: err} }

// Validation wraps err as a ValidationError.
func Validation(err error) error { return &ValidationError{Err: err} }

// IsConfig reports whether err is a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
