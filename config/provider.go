package config

import (
	"fmt"
	"os"
)

// ============================================================================
// PROVIDER CONFIGURATION
// ============================================================================

// Default request settings applied when a provider omits them
const (
	DefaultTimeout    = 300
	DefaultMaxRetries = 3
	DefaultMaxTokens  = 4096
)

// providerDefaults maps a provider type to its API key environment
// variable and OpenAI-compatible base URL. Gemini is the exception and
// speaks its own wire format.
var providerDefaults = map[string]struct {
	apiKeyEnv string
	baseURL   string
}{
	"openai":      {"OPENAI_API_KEY", "https://api.openai.com/v1"},
	"deepseek":    {"DEEPSEEK_API_KEY", "https://api.deepseek.com/v1"},
	"zhipu":       {"ZHIPU_API_KEY", "https://open.bigmodel.cn/api/paas/v4"},
	"siliconflow": {"SILICONFLOW_API_KEY", "https://api.siliconflow.cn/v1"},
	"anthropic":   {"ANTHROPIC_API_KEY", "https://api.anthropic.com/v1"},
	"gemini":      {"GEMINI_API_KEY", "https://generativelanguage.googleapis.com/v1beta"},
}

// ProviderConfig configures a single LLM provider endpoint
type ProviderConfig struct {
	Type        string  `yaml:"type" json:"type" jsonschema:"enum=openai,enum=deepseek,enum=zhipu,enum=siliconflow,enum=anthropic,enum=gemini"`
	Model       string  `yaml:"model" json:"model"`
	APIKey      string  `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Timeout     int     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxRetries  int     `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
}

// SetDefaults fills missing fields from the built-in provider table and
// the environment.
func (c *ProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if defaults, ok := providerDefaults[c.Type]; ok {
		if c.APIKey == "" {
			c.APIKey = os.Getenv(defaults.apiKeyEnv)
		}
		if c.BaseURL == "" {
			c.BaseURL = defaults.baseURL
		}
	}
	if c.Type == "gemini" && c.APIKey == "" {
		c.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// Validate checks the provider configuration for completeness
func (c *ProviderConfig) Validate() error {
	if _, ok := providerDefaults[c.Type]; !ok {
		return NewConfigError("provider", "validate",
			fmt.Sprintf("unknown provider type '%s'", c.Type), nil)
	}
	if c.Model == "" {
		return NewConfigError("provider", "validate", "model is required", nil)
	}
	if c.APIKey == "" {
		return NewConfigError("provider", "validate",
			fmt.Sprintf("api key missing for provider '%s' (set %s)", c.Type, APIKeyEnvVar(c.Type)), nil)
	}
	if c.BaseURL == "" {
		return NewConfigError("provider", "validate", "base_url is required", nil)
	}
	return nil
}

// APIKeyEnvVar returns the environment variable consulted for a
// provider type's API key.
func APIKeyEnvVar(providerType string) string {
	if defaults, ok := providerDefaults[providerType]; ok {
		return defaults.apiKeyEnv
	}
	return ""
}

// GetAPIConfig resolves a provider's configuration purely from the
// environment, for callers that run without a config file.
func GetAPIConfig(providerType string) (ProviderConfig, error) {
	if _, ok := providerDefaults[providerType]; !ok {
		return ProviderConfig{}, NewConfigError("provider", "resolve",
			fmt.Sprintf("unknown provider type '%s'", providerType), nil)
	}
	cfg := ProviderConfig{Type: providerType}
	cfg.SetDefaults()
	if cfg.APIKey == "" {
		return ProviderConfig{}, NewConfigError("provider", "resolve",
			fmt.Sprintf("environment variable %s is not set", APIKeyEnvVar(providerType)), nil)
	}
	return cfg, nil
}
