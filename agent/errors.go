package agent

import (
	"fmt"

	"github.com/kadirpekel/swarm/llms"
)

// AgentError represents an agent construction or invocation failure
type AgentError struct {
	Agent     string
	Operation string
	Message   string
	Err       error
}

func (e *AgentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent %s.%s: %s: %v", e.Agent, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("agent %s.%s: %s", e.Agent, e.Operation, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewAgentError creates a new agent error
func NewAgentError(agent, operation, message string, err error) *AgentError {
	return &AgentError{
		Agent:     agent,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ToolLimitError reports a chat turn that exhausted its tool-call budget
// while the model was still requesting tools. LastResponse carries the
// final completion for callers that want to inspect it.
type ToolLimitError struct {
	Agent        string
	LastResponse *llms.Completion
}

func (e *ToolLimitError) Error() string {
	return fmt.Sprintf("agent %s reached the tool-call limit", e.Agent)
}

// OutputError reports a reply that violates the routing output contract
type OutputError struct {
	Agent  string
	Output string
	Err    error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("agent %s produced unparseable output: %v", e.Agent, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}
