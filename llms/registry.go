package llms

import (
	"fmt"

	"github.com/kadirpekel/swarm/config"
	"github.com/kadirpekel/swarm/registry"
)

// ============================================================================
// PROVIDER REGISTRY AND FACTORY
// ============================================================================

// ProviderRegistry manages constructed providers by name
type ProviderRegistry struct {
	*registry.BaseRegistry[Provider]
}

// NewProviderRegistry creates an empty provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		BaseRegistry: registry.NewBaseRegistry[Provider](),
	}
}

// RegisterFromConfig constructs and registers a provider under the given name
func (r *ProviderRegistry) RegisterFromConfig(name string, cfg config.ProviderConfig) (Provider, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	if err := r.Register(name, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// NewProvider builds a provider from its configuration. Everything but
// Gemini speaks the OpenAI chat completions format.
func NewProvider(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "gemini":
		return NewGeminiProvider(cfg)
	case "openai", "deepseek", "zhipu", "siliconflow", "anthropic":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}
