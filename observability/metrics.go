package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

func InitMetrics(ctx context.Context, cfg MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("swarm")

	m := &PrometheusMetrics{}

	if m.agentDuration, err = meter.Float64Histogram(
		"swarm_agent_invoke_duration_seconds",
		metric.WithDescription("Agent invoke duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent duration histogram: %w", err)
	}

	if m.agentCallsTotal, err = meter.Int64Counter(
		"swarm_agent_invokes_total",
		metric.WithDescription("Total agent invokes"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent invokes counter: %w", err)
	}

	if m.agentErrorsTotal, err = meter.Int64Counter(
		"swarm_agent_errors_total",
		metric.WithDescription("Total agent errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent errors counter: %w", err)
	}

	if m.agentTokensTotal, err = meter.Int64Counter(
		"swarm_agent_tokens_used_total",
		metric.WithDescription("Total tokens used by agents"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent tokens counter: %w", err)
	}

	if m.toolDuration, err = meter.Float64Histogram(
		"swarm_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	if m.toolCallsTotal, err = meter.Int64Counter(
		"swarm_tool_calls_total",
		metric.WithDescription("Total tool calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	if m.toolErrorsTotal, err = meter.Int64Counter(
		"swarm_tool_errors_total",
		metric.WithDescription("Total tool errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	if m.llmDuration, err = meter.Float64Histogram(
		"swarm_llm_request_duration_seconds",
		metric.WithDescription("LLM request duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	if m.llmInputTokens, err = meter.Int64Counter(
		"swarm_llm_tokens_input_total",
		metric.WithDescription("Total input tokens sent to LLM"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm input tokens counter: %w", err)
	}

	if m.llmOutputTokens, err = meter.Int64Counter(
		"swarm_llm_tokens_output_total",
		metric.WithDescription("Total output tokens from LLM"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm output tokens counter: %w", err)
	}

	if m.llmErrorsTotal, err = meter.Int64Counter(
		"swarm_llm_errors_total",
		metric.WithDescription("Total LLM errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	if m.taskDuration, err = meter.Float64Histogram(
		"swarm_task_run_duration_seconds",
		metric.WithDescription("Task pump run duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create task duration histogram: %w", err)
	}

	if m.taskMessagesTotal, err = meter.Int64Counter(
		"swarm_task_messages_total",
		metric.WithDescription("Total messages processed by tasks"),
	); err != nil {
		return nil, fmt.Errorf("failed to create task messages counter: %w", err)
	}

	if m.taskTimeoutsTotal, err = meter.Int64Counter(
		"swarm_task_timeouts_total",
		metric.WithDescription("Total task iteration budget exhaustions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create task timeouts counter: %w", err)
	}

	return m, nil
}
