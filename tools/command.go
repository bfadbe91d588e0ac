package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ============================================================================
// COMMAND TOOL - ALLOW-LISTED SHELL EXECUTION
// ============================================================================

// CommandToolConfig constrains what the command tool may run
type CommandToolConfig struct {
	AllowedCommands  []string      `yaml:"allowed_commands,omitempty"`
	WorkingDirectory string        `yaml:"working_directory,omitempty"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time,omitempty"`
}

// SetDefaults applies a conservative allow-list and limits
func (c *CommandToolConfig) SetDefaults() {
	if len(c.AllowedCommands) == 0 {
		c.AllowedCommands = []string{
			"cat", "head", "tail", "ls", "find", "grep", "wc", "pwd",
			"git", "curl", "echo", "date",
		}
	}
	if c.WorkingDirectory == "" {
		c.WorkingDirectory = "./"
	}
	if c.MaxExecutionTime == 0 {
		c.MaxExecutionTime = 30 * time.Second
	}
}

// CommandTool executes allow-listed shell commands
type CommandTool struct {
	config CommandToolConfig
}

// NewCommandTool creates a command tool with secure defaults
func NewCommandTool(config CommandToolConfig) *CommandTool {
	config.SetDefaults()
	return &CommandTool{config: config}
}

func (t *CommandTool) GetName() string { return "execute_command" }

func (t *CommandTool) GetDescription() string {
	return "Executes an allow-listed shell command and returns its output"
}

func (t *CommandTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: []ToolParameter{
			{
				Name:        "command",
				Type:        TypeString,
				Description: "The shell command to execute",
				Required:    true,
			},
			{
				Name:        "working_dir",
				Type:        TypeString,
				Description: "Directory to run the command in",
				Required:    false,
			},
		},
	}
}

// Execute runs the command with allow-list and timeout protection
func (t *CommandTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	command, ok := args["command"].(string)
	if !ok || strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("command parameter is required")
	}

	workingDir, _ := args["working_dir"].(string)
	if workingDir == "" {
		workingDir = t.config.WorkingDirectory
	}

	fields := strings.Fields(command)
	if err := t.checkAllowed(fields[0]); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.MaxExecutionTime)
	defer cancel()

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Dir = workingDir

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %v", t.config.MaxExecutionTime)
	}
	if err != nil {
		return "", fmt.Errorf("command failed: %w\noutput: %s", err, string(output))
	}

	return string(output), nil
}

func (t *CommandTool) checkAllowed(name string) error {
	base := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		base = name[idx+1:]
	}
	for _, allowed := range t.config.AllowedCommands {
		if base == allowed {
			return nil
		}
	}
	return fmt.Errorf("command '%s' is not allowed", base)
}
