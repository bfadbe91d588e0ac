package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// UNIFIED CONFIGURATION
// ============================================================================

// Scheduler defaults
const (
	DefaultCoordinator   = "Eric"
	DefaultDataDir       = "./data"
	DefaultMaxIterations = 50
	DefaultMaxCalls      = 10
)

// Config is the root configuration for a swarm
type Config struct {
	Swarm     SwarmConfig               `yaml:"swarm" json:"swarm"`
	Providers map[string]ProviderConfig `yaml:"providers" json:"providers"`
	Agents    map[string]AgentConfig    `yaml:"agents,omitempty" json:"agents,omitempty"`
	Logging   LoggingConfig             `yaml:"logging,omitempty" json:"logging,omitempty"`
	Tracing   TracingConfig             `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Metrics   MetricsConfig             `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// SwarmConfig configures the scheduler
type SwarmConfig struct {
	// Coordinator receives user messages and routing failure notices
	Coordinator string `yaml:"coordinator,omitempty" json:"coordinator,omitempty"`
	// DataDir is the root for per-task history snapshots
	DataDir string `yaml:"data_dir,omitempty" json:"data_dir,omitempty"`
	// MaxIterations bounds a single pump run, empty ticks included
	MaxIterations int `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
}

// AgentConfig declares an agent assembled from YAML cards
type AgentConfig struct {
	// Card is the path to the agent card YAML; empty means auto-resolved
	// from the agent name under CardsDir
	Card string `yaml:"card,omitempty" json:"card,omitempty"`
	// Prompt is the path to the prompt template YAML
	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	// CardsDir is where auto-resolved cards live
	CardsDir string `yaml:"cards_dir,omitempty" json:"cards_dir,omitempty"`
	// Provider names an entry in Config.Providers
	Provider string `yaml:"provider" json:"provider"`
	// Tools lists registered tool names available to this agent
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	// MaxFunctionCalls bounds the tool-call loop per chat turn
	MaxFunctionCalls int `yaml:"max_function_calls,omitempty" json:"max_function_calls,omitempty"`
}

// LoggingConfig configures the slog-based logger
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=simple,enum=verbose,enum=json"`
}

// TracingConfig configures OTLP trace export
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	EndpointURL  string  `yaml:"endpoint_url,omitempty" json:"endpoint_url,omitempty"`
	SamplingRate float64 `yaml:"sampling_rate,omitempty" json:"sampling_rate,omitempty"`
	ServiceName  string  `yaml:"service_name,omitempty" json:"service_name,omitempty"`
}

// MetricsConfig configures the Prometheus metrics listener
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Port    int  `yaml:"port,omitempty" json:"port,omitempty"`
}

// SetDefaults applies defaults across the whole configuration tree
func (c *Config) SetDefaults() {
	if c.Swarm.Coordinator == "" {
		c.Swarm.Coordinator = DefaultCoordinator
	}
	if c.Swarm.DataDir == "" {
		c.Swarm.DataDir = DefaultDataDir
	}
	if c.Swarm.MaxIterations <= 0 {
		c.Swarm.MaxIterations = DefaultMaxIterations
	}
	if c.Logging.Level == "" {
		c.Logging.Level = os.Getenv("LOG_LEVEL")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "simple"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "swarm"
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}

	for name, provider := range c.Providers {
		provider.SetDefaults()
		c.Providers[name] = provider
	}
	for name, agent := range c.Agents {
		if agent.MaxFunctionCalls <= 0 {
			agent.MaxFunctionCalls = DefaultMaxCalls
		}
		c.Agents[name] = agent
	}
}

// Validate checks the configuration tree, cascading into providers and
// agents.
func (c *Config) Validate() error {
	for name, provider := range c.Providers {
		if err := provider.Validate(); err != nil {
			return NewConfigError("config", "validate",
				fmt.Sprintf("provider '%s'", name), err)
		}
	}
	for name, agent := range c.Agents {
		if agent.Provider == "" {
			return NewConfigError("config", "validate",
				fmt.Sprintf("agent '%s' has no provider", name), nil)
		}
		if _, ok := c.Providers[agent.Provider]; !ok {
			return NewConfigError("config", "validate",
				fmt.Sprintf("agent '%s' references unknown provider '%s'", name, agent.Provider), nil)
		}
	}
	return nil
}

// LoadFromFile reads a YAML configuration file, expands environment
// variables, applies defaults and validates the result.
func LoadFromFile(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, NewConfigError("config", "load", "loading env files", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("config", "load", fmt.Sprintf("reading %s", path), err)
	}
	return Load(raw)
}

// Load parses YAML configuration bytes with env expansion
func Load(raw []byte) (*Config, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, NewConfigError("config", "load", "parsing yaml", err)
	}

	expanded, err := yaml.Marshal(ExpandEnvVarsInData(tree))
	if err != nil {
		return nil, NewConfigError("config", "load", "re-encoding expanded yaml", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, NewConfigError("config", "load", "decoding configuration", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a minimal valid configuration without providers,
// suitable for tests and programmatic assembly.
func Default() *Config {
	cfg := &Config{Providers: map[string]ProviderConfig{}}
	cfg.SetDefaults()
	return cfg
}
