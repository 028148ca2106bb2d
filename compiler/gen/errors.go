package gen

import "fmt"

// ConfigError reports an invalid generator configuration value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

// NewConfigError returns a configuration error for the given field.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("gen: invalid config %s (%v): %s", e.Field, e.Value, e.Reason)
}

// GenerationError reports a failure while rendering or writing one
// generated file.
type GenerationError struct {
	Entity string
	File   string
	Err    error
}

// Error implements error.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("gen: generate %s (%s): %v", e.Entity, e.File, e.Err)
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error { return e.Err }
