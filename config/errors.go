package config

import "fmt"

// ConfigError represents a configuration loading or validation failure
type ConfigError struct {
	Component string
	Operation string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s.%s: %s: %v", e.Component, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s.%s: %s", e.Component, e.Operation, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error
func NewConfigError(component, operation, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
