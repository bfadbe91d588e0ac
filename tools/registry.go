package tools

import (
	"context"
	"time"

	"github.com/kadirpekel/swarm/llms"
	"github.com/kadirpekel/swarm/observability"
	"github.com/kadirpekel/swarm/registry"
)

// ============================================================================
// TOOL REGISTRY
// ============================================================================

// ToolRegistry manages the tools available to agents
type ToolRegistry struct {
	*registry.BaseRegistry[Tool]
}

// NewToolRegistry creates an empty tool registry
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		BaseRegistry: registry.NewBaseRegistry[Tool](),
	}
}

// RegisterTool adds a tool; duplicate names are rejected
func (r *ToolRegistry) RegisterTool(tool Tool) error {
	name := tool.GetName()
	if err := r.Register(name, tool); err != nil {
		return NewToolError(name, "register", "registration failed", err)
	}
	return nil
}

// Definitions projects the named tools to function-calling definitions.
// With no names given, every registered tool is projected, in
// registration order. Unknown names are skipped.
func (r *ToolRegistry) Definitions(names ...string) []llms.ToolDefinition {
	if len(names) == 0 {
		names = r.Names()
	}

	defs := make([]llms.ToolDefinition, 0, len(names))
	for _, name := range names {
		if tool, ok := r.Get(name); ok {
			defs = append(defs, Definition(tool.GetInfo()))
		}
	}
	return defs
}

// Execute runs a registered tool by name, recording metrics
func (r *ToolRegistry) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", NewToolError(name, "execute", "tool not found", nil)
	}

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	observability.GetGlobalMetrics().RecordToolExecution(ctx, name, time.Since(start), err)

	if err != nil {
		return "", NewToolError(name, "execute", "execution failed", err)
	}
	return result, nil
}
