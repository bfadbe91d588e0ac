// Package tools defines the tool interface, the tool registry and the
// built-in tools agents can invoke.
package tools

import (
	"context"

	"github.com/kadirpekel/swarm/llms"
)

// Parameter types accepted in tool declarations
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// ToolParameter describes a single tool argument
type ToolParameter struct {
	Name        string      `yaml:"name" json:"name"`
	Type        string      `yaml:"type" json:"type"`
	Description string      `yaml:"description" json:"description"`
	Required    bool        `yaml:"required" json:"required"`
	Default     interface{} `yaml:"default,omitempty" json:"default,omitempty"`
	Enum        []string    `yaml:"enum,omitempty" json:"enum,omitempty"`
	Items       string      `yaml:"items,omitempty" json:"items,omitempty"`
}

// ToolInfo describes a tool to providers and registries
type ToolInfo struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Parameters  []ToolParameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Tool is a capability an agent can invoke during a chat turn
type Tool interface {
	// GetInfo returns the tool's declaration
	GetInfo() ToolInfo

	// Execute runs the tool and returns its textual result
	Execute(ctx context.Context, args map[string]interface{}) (string, error)

	// GetName returns the tool name
	GetName() string

	// GetDescription returns the tool description
	GetDescription() string
}

// Definition projects a declaration onto the OpenAI function-calling
// schema. Optional parameters appear in properties but not in required.
func Definition(info ToolInfo) llms.ToolDefinition {
	properties := make(map[string]interface{}, len(info.Parameters))
	required := []string{}

	for _, param := range info.Parameters {
		prop := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if len(param.Enum) > 0 {
			prop["enum"] = param.Enum
		}
		if param.Type == TypeArray && param.Items != "" {
			prop["items"] = map[string]interface{}{"type": param.Items}
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		properties[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return llms.ToolDefinition{
		Name:        info.Name,
		Description: info.Description,
		Parameters: map[string]interface{}{
			"type":       TypeObject,
			"properties": properties,
			"required":   required,
		},
	}
}
