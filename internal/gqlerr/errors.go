// Package gqlerr defines the gateway's error kinds, per spec §7:
// ConfigurationError (composition-time), ExecutionError (resolution-time),
// and ValidationError (passed through from collaborators unchanged).
//
// These mirror the teacher's internal/executor.GraphQLError: plain structs
// that implement error, carrying just enough structure to surface in a
// GraphQLResponse.errors list.
package gqlerr

import "fmt"

// ConfigurationError reports a composition-time failure: an empty subgraph
// list, a field-name collision during merge, or a transformer that leaves
// the schema unsound.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// NewConfigurationError builds a ConfigurationError with a formatted message.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ExecutionError reports a runtime resolution failure: a missing subgraph,
// an extractor type mismatch, or a subgraph transport error.
type ExecutionError struct {
	Message string
	Path    []any
}

func (e *ExecutionError) Error() string { return e.Message }

// NewExecutionError builds an ExecutionError with a formatted message.
func NewExecutionError(format string, args ...any) *ExecutionError {
	return &ExecutionError{Message: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of e with Path set.
func (e *ExecutionError) WithPath(path []any) *ExecutionError {
	cp := *e
	cp.Path = path
	return &cp
}

// ValidationError wraps a failure surfaced by an external collaborator
// (document parsing/validation) and passed through unchanged.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError wraps err as a ValidationError.
func NewValidationError(err error) *ValidationError {
	return &ValidationError{Message: err.Error()}
}
