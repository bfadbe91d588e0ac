// Package agent implements YAML-declared agents that chat with LLM
// providers, invoke tools and route messages within a swarm.
package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// AGENT CARD
// ============================================================================

// Card is the YAML declaration of an agent: identity plus arbitrary
// nested attributes.
type Card struct {
	Name        string         `yaml:"name"`
	Role        string         `yaml:"role"`
	Description string         `yaml:"description"`
	Attrs       map[string]any `yaml:",inline"`
}

// LoadCard reads an agent card from a YAML file
func LoadCard(path string) (*Card, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAgentError("", "load_card", fmt.Sprintf("reading %s", path), err)
	}

	card := &Card{}
	if err := yaml.Unmarshal(raw, card); err != nil {
		return nil, NewAgentError("", "load_card", fmt.Sprintf("parsing %s", path), err)
	}
	if card.Name == "" {
		return nil, NewAgentError("", "load_card", fmt.Sprintf("card %s has no name", path), nil)
	}
	return card, nil
}

// Get resolves a dotted path ("browser.headless") into the card attrs.
// Returns false when any segment is missing.
func (c *Card) Get(path string) (any, bool) {
	var current any = c.Attrs
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString resolves a dotted path to a string, with a default
func (c *Card) GetString(path, fallback string) string {
	if v, ok := c.Get(path); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// DecodeAttrs decodes the card's attributes into a typed struct
func (c *Card) DecodeAttrs(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return NewAgentError(c.Name, "decode_attrs", "building decoder", err)
	}
	if err := decoder.Decode(c.Attrs); err != nil {
		return NewAgentError(c.Name, "decode_attrs", "decoding attributes", err)
	}
	return nil
}

// CamelToSnake converts a CamelCase type name to its snake_case file
// stem: BrowserOperator becomes browser_operator.
func CamelToSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CardPath resolves the conventional card file for an agent type name
func CardPath(dir, typeName string) string {
	return filepath.Join(dir, CamelToSnake(typeName)+"_card.yaml")
}

// PromptPath resolves the conventional prompt file for an agent type name
func PromptPath(dir, typeName string) string {
	return filepath.Join(dir, CamelToSnake(typeName)+"_prompt.yaml")
}
