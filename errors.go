package swarm

import "fmt"

// SwarmError represents a swarm assembly or registration failure
type SwarmError struct {
	Operation string
	Message   string
	Err       error
}

func (e *SwarmError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("swarm %s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("swarm %s: %s", e.Operation, e.Message)
}

func (e *SwarmError) Unwrap() error {
	return e.Err
}

// NewSwarmError creates a new swarm error
func NewSwarmError(operation, message string, err error) *SwarmError {
	return &SwarmError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// TaskError represents a task scheduling failure
type TaskError struct {
	TaskID    string
	Operation string
	Message   string
	Err       error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %s.%s: %s: %v", e.TaskID, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task %s.%s: %s", e.TaskID, e.Operation, e.Message)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// NewTaskError creates a new task error
func NewTaskError(taskID, operation, message string, err error) *TaskError {
	return &TaskError{
		TaskID:    taskID,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
