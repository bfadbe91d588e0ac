package tools

import "fmt"

// ToolError represents a tool registration or execution failure
type ToolError struct {
	Tool      string
	Operation string
	Message   string
	Err       error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool %s.%s: %s: %v", e.Tool, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("tool %s.%s: %s", e.Tool, e.Operation, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError creates a new tool error
func NewToolError(tool, operation, message string, err error) *ToolError {
	return &ToolError{
		Tool:      tool,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
