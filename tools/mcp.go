package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kadirpekel/swarm/logger"
)

// ============================================================================
// MCP TOOLSET - STDIO TRANSPORT
// ============================================================================
//
// Connects lazily to an MCP server subprocess and exposes its tools as
// regular registry tools.

// MCPConfig configures an MCP toolset over stdio
type MCPConfig struct {
	// Name identifies this toolset
	Name string `yaml:"name"`
	// Command launches the MCP server subprocess
	Command string `yaml:"command"`
	// Args for the subprocess
	Args []string `yaml:"args,omitempty"`
	// Env for the subprocess, KEY=VALUE form
	Env []string `yaml:"env,omitempty"`
	// Filter limits which tools are exposed
	Filter []string `yaml:"filter,omitempty"`
}

// MCPToolset holds a lazy stdio connection to an MCP server
type MCPToolset struct {
	cfg    MCPConfig
	logger *slog.Logger

	mu        sync.Mutex
	client    *client.Client
	tools     []Tool
	connected bool
	filterSet map[string]bool
}

// NewMCPToolset creates an MCP toolset; the connection is established on
// the first Tools call.
func NewMCPToolset(cfg MCPConfig) (*MCPToolset, error) {
	if cfg.Command == "" {
		return nil, NewToolError(cfg.Name, "init", "command is required", nil)
	}

	var filterSet map[string]bool
	if len(cfg.Filter) > 0 {
		filterSet = make(map[string]bool, len(cfg.Filter))
		for _, name := range cfg.Filter {
			filterSet[name] = true
		}
	}

	return &MCPToolset{
		cfg:       cfg,
		logger:    logger.With("tools.mcp"),
		filterSet: filterSet,
	}, nil
}

// Tools connects on first use and returns the server's tools
func (t *MCPToolset) Tools(ctx context.Context) ([]Tool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return t.tools, nil
	}
	if err := t.connect(ctx); err != nil {
		return nil, err
	}
	return t.tools, nil
}

// RegisterAll connects and registers every exposed tool
func (t *MCPToolset) RegisterAll(ctx context.Context, reg *ToolRegistry) error {
	tools, err := t.Tools(ctx)
	if err != nil {
		return err
	}
	for _, tool := range tools {
		if err := reg.RegisterTool(tool); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the server subprocess
func (t *MCPToolset) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	t.connected = false
	return err
}

func (t *MCPToolset) connect(ctx context.Context) error {
	mcpClient, err := client.NewStdioMCPClient(t.cfg.Command, t.cfg.Env, t.cfg.Args...)
	if err != nil {
		return NewToolError(t.cfg.Name, "connect", "failed to create MCP client", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return NewToolError(t.cfg.Name, "connect", "failed to start MCP client", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "swarm", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return NewToolError(t.cfg.Name, "connect", "failed to initialize MCP session", err)
	}

	listResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return NewToolError(t.cfg.Name, "connect", "failed to list tools", err)
	}

	var tools []Tool
	for _, mcpTool := range listResp.Tools {
		if t.filterSet != nil && !t.filterSet[mcpTool.Name] {
			continue
		}
		tools = append(tools, &mcpToolAdapter{
			toolset:     t,
			name:        mcpTool.Name,
			description: mcpTool.Description,
			info:        mcpToolInfo(mcpTool),
		})
	}

	t.client = mcpClient
	t.tools = tools
	t.connected = true

	t.logger.Info("connected to MCP server",
		"name", t.cfg.Name, "command", t.cfg.Command, "tools", len(tools))
	return nil
}

// mcpToolAdapter adapts one MCP server tool to the Tool interface
type mcpToolAdapter struct {
	toolset     *MCPToolset
	name        string
	description string
	info        ToolInfo
}

func (w *mcpToolAdapter) GetName() string { return w.name }

func (w *mcpToolAdapter) GetDescription() string { return w.description }

func (w *mcpToolAdapter) GetInfo() ToolInfo { return w.info }

func (w *mcpToolAdapter) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	w.toolset.mu.Lock()
	mcpClient := w.toolset.client
	w.toolset.mu.Unlock()

	if mcpClient == nil {
		return "", NewToolError(w.name, "execute", "MCP client not connected", nil)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = w.name
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return "", NewToolError(w.name, "execute", "MCP call failed", err)
	}

	text := collectText(resp)
	if resp.IsError {
		if text == "" {
			text = "unknown error"
		}
		return "", NewToolError(w.name, "execute", text, nil)
	}
	return text, nil
}

func collectText(resp *mcp.CallToolResult) string {
	var out string
	for _, content := range resp.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			if out != "" {
				out += "\n"
			}
			out += textContent.Text
		}
	}
	return out
}

// mcpToolInfo converts an MCP tool declaration, flattening its input
// schema into parameter descriptors.
func mcpToolInfo(mcpTool mcp.Tool) ToolInfo {
	info := ToolInfo{
		Name:        mcpTool.Name,
		Description: mcpTool.Description,
	}

	data, err := json.Marshal(mcpTool.InputSchema)
	if err != nil {
		return info
	}
	var schema struct {
		Properties map[string]struct {
			Type        string   `json:"type"`
			Description string   `json:"description"`
			Enum        []string `json:"enum"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return info
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for name, prop := range schema.Properties {
		paramType := prop.Type
		if paramType == "" {
			paramType = TypeString
		}
		info.Parameters = append(info.Parameters, ToolParameter{
			Name:        name,
			Type:        paramType,
			Description: prop.Description,
			Required:    required[name],
			Enum:        prop.Enum,
		})
	}

	return info
}

var _ Tool = (*mcpToolAdapter)(nil)

// String implements fmt.Stringer for diagnostics
func (t *MCPToolset) String() string {
	return fmt.Sprintf("mcp toolset %s (%s)", t.cfg.Name, t.cfg.Command)
}
