package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/swarm"
	"github.com/kadirpekel/swarm/config"
	"github.com/kadirpekel/swarm/observability"
	"github.com/kadirpekel/swarm/tools"
)

// ChatCmd runs a task against the configured swarm. With a message
// argument it runs one task and exits; without one it drops into an
// interactive loop where every line continues the same task.
type ChatCmd struct {
	Message string `arg:"" optional:"" help:"User message. Empty starts an interactive session."`

	TaskID        string `name:"task-id" help:"Continue an existing task."`
	AllowCommands string `name:"allow-commands" help:"Enable the execute_command tool for these comma-separated commands." placeholder:"CMD1,CMD2"`
	MCPCommand    string `name:"mcp-command" help:"Spawn an MCP server over stdio and register its tools." placeholder:"CMD"`
	MCPArgs       string `name:"mcp-args" help:"Arguments for the MCP server command, comma-separated." placeholder:"ARG1,ARG2"`
}

func (c *ChatCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for chat")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	cfg, err := config.LoadFromFile(cli.Config)
	if err != nil {
		return err
	}

	shutdownObs, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownObs()

	s, err := swarm.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := c.registerExtraTools(ctx, s); err != nil {
		return err
	}

	taskID := c.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	if c.Message != "" {
		return runOnce(ctx, s, taskID, c.Message)
	}
	return runInteractive(ctx, s, taskID)
}

// registerExtraTools wires the optional command and MCP tools
func (c *ChatCmd) registerExtraTools(ctx context.Context, s *swarm.Swarm) error {
	if c.AllowCommands != "" {
		cmdTool := tools.NewCommandTool(tools.CommandToolConfig{
			AllowedCommands: splitList(c.AllowCommands),
		})
		if err := s.Tools().RegisterTool(cmdTool); err != nil {
			return err
		}
	}

	if c.MCPCommand != "" {
		toolset, err := tools.NewMCPToolset(tools.MCPConfig{
			Name:    "mcp",
			Command: c.MCPCommand,
			Args:    splitList(c.MCPArgs),
		})
		if err != nil {
			return err
		}
		if err := toolset.RegisterAll(ctx, s.Tools()); err != nil {
			return err
		}
	}
	return nil
}

func runOnce(ctx context.Context, s *swarm.Swarm, taskID, message string) error {
	final, err := s.Invoke(ctx, taskID, message)
	if err != nil {
		return err
	}
	fmt.Println(final.ContentString())
	return nil
}

func runInteractive(ctx context.Context, s *swarm.Swarm, taskID string) error {
	fmt.Println("Interactive session. Empty line or Ctrl+C exits.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}

		final, err := s.Invoke(ctx, taskID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("%s: %s\n", final.Sender, final.ContentString())
	}
	return scanner.Err()
}

// initObservability starts tracing and the metrics listener per config
func initObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	if _, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:      cfg.Tracing.Enabled,
		EndpointURL:  cfg.Tracing.EndpointURL,
		SamplingRate: cfg.Tracing.SamplingRate,
		ServiceName:  cfg.Tracing.ServiceName,
	}); err != nil {
		return nil, err
	}

	if !cfg.Metrics.Enabled {
		return func() {}, nil
	}

	metricsCfg := observability.MetricsConfig{Enabled: true, Port: cfg.Metrics.Port}
	metrics, err := observability.InitMetrics(ctx, metricsCfg)
	if err != nil {
		return nil, err
	}
	observability.SetGlobalMetrics(metrics)

	server := observability.NewMetricsServer(metricsCfg)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Metrics server error", "error", err)
		}
	}()
	slog.Info("Metrics listener started", "port", cfg.Metrics.Port)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
