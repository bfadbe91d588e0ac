package agent

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// PROMPT TEMPLATES
// ============================================================================

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// PromptTemplate holds the system and user prompt templates of an agent.
// Templates use {name} placeholders.
type PromptTemplate struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`
}

// LoadPromptTemplate reads a prompt template from a YAML file
func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAgentError("", "load_prompt", fmt.Sprintf("reading %s", path), err)
	}

	tmpl := &PromptTemplate{}
	if err := yaml.Unmarshal(raw, tmpl); err != nil {
		return nil, NewAgentError("", "load_prompt", fmt.Sprintf("parsing %s", path), err)
	}
	if tmpl.SystemPrompt == "" {
		return nil, NewAgentError("", "load_prompt", fmt.Sprintf("prompt %s has no system_prompt", path), nil)
	}
	return tmpl, nil
}

// Format substitutes {name} placeholders from vars. Placeholders with no
// matching variable are left intact.
func Format(template string, vars map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if value, ok := vars[key]; ok {
			return fmt.Sprintf("%v", value)
		}
		return match
	})
}

// FormatSystem renders the system prompt with vars
func (t *PromptTemplate) FormatSystem(vars map[string]any) string {
	return Format(t.SystemPrompt, vars)
}

// FormatUser renders the user prompt with vars. An empty user template
// passes the message content through unchanged.
func (t *PromptTemplate) FormatUser(vars map[string]any) string {
	if t.UserPrompt == "" {
		if content, ok := vars["content"]; ok {
			return fmt.Sprintf("%v", content)
		}
		return ""
	}
	return Format(t.UserPrompt, vars)
}
