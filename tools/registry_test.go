package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	info   ToolInfo
	result string
	err    error
}

func (s *stubTool) GetInfo() ToolInfo { return s.info }
func (s *stubTool) GetName() string { return s.info.Name }
func (s *stubTool) GetDescription() string { return s.info.Description }
func (s *stubTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	return s.result, s.err
}

func TestRegisterToolRejectsDuplicates(t *testing.T) {
	reg := NewToolRegistry()
	tool := &stubTool{info: ToolInfo{Name: "echo"}}

	require.NoError(t, reg.RegisterTool(tool))

	err := reg.RegisterTool(tool)
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "echo", toolErr.Tool)
}

func TestDefinitionsProjection(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.RegisterTool(&stubTool{info: ToolInfo{
		Name:        "search",
		Description: "searches the web",
		Parameters: []ToolParameter{
			{Name: "query", Type: TypeString, Description: "search query", Required: true},
			{Name: "limit", Type: TypeInteger, Description: "max results", Required: false},
			{Name: "mode", Type: TypeString, Enum: []string{"fast", "deep"}, Required: false},
		},
	}}))

	defs := reg.Definitions()
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "search", def.Name)
	assert.Equal(t, "searches the web", def.Description)
	assert.Equal(t, TypeObject, def.Parameters["type"])

	properties := def.Parameters["properties"].(map[string]interface{})
	assert.Len(t, properties, 3)

	query := properties["query"].(map[string]interface{})
	assert.Equal(t, TypeString, query["type"])
	assert.Equal(t, "search query", query["description"])

	// Optional parameters keep their declared type and stay out of required.
	limit := properties["limit"].(map[string]interface{})
	assert.Equal(t, TypeInteger, limit["type"])

	mode := properties["mode"].(map[string]interface{})
	assert.Equal(t, []string{"fast", "deep"}, mode["enum"])

	required := def.Parameters["required"].([]string)
	assert.Equal(t, []string{"query"}, required)
}

func TestDefinitionsNoParameters(t *testing.T) {
	defs := NewToolRegistry().Definitions()
	assert.Empty(t, defs)

	def := Definition(ToolInfo{Name: "ping", Description: "pings"})
	assert.Equal(t, TypeObject, def.Parameters["type"])
	assert.Empty(t, def.Parameters["properties"])
	assert.Empty(t, def.Parameters["required"])
}

func TestDefinitionsSubset(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.RegisterTool(&stubTool{info: ToolInfo{Name: "a"}}))
	require.NoError(t, reg.RegisterTool(&stubTool{info: ToolInfo{Name: "b"}}))

	defs := reg.Definitions("b", "missing")
	require.Len(t, defs, 1)
	assert.Equal(t, "b", defs[0].Name)
}

func TestExecute(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.RegisterTool(&stubTool{
		info:   ToolInfo{Name: "ok"},
		result: "done",
	}))
	require.NoError(t, reg.RegisterTool(&stubTool{
		info: ToolInfo{Name: "broken"},
		err:  errors.New("boom"),
	}))

	result, err := reg.Execute(context.Background(), "ok", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", result)

	_, err = reg.Execute(context.Background(), "broken", nil)
	assert.Error(t, err)

	_, err = reg.Execute(context.Background(), "missing", nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "tool not found", toolErr.Message)
}
