package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SWARM_TEST_KEY", "sk-123")
	t.Setenv("SWARM_TEST_HOST", "example.com")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "${SWARM_TEST_KEY}", "sk-123"},
		{"simple", "$SWARM_TEST_KEY", "sk-123"},
		{"with default, var set", "${SWARM_TEST_KEY:-fallback}", "sk-123"},
		{"with default, var unset", "${SWARM_TEST_MISSING:-fallback}", "fallback"},
		{"braced unset", "${SWARM_TEST_MISSING}", ""},
		{"embedded", "https://${SWARM_TEST_HOST}/v1", "https://example.com/v1"},
		{"no vars", "plain text", "plain text"},
		{"lowercase not expanded", "${lower_case}", "${lower_case}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"true", true},
		{"False", false},
		{"42", 42},
		{"3.14", 3.14},
		{"hello", "hello"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.input))
	}
}

func TestExpandEnvVarsInData(t *testing.T) {
	t.Setenv("SWARM_TEST_TIMEOUT", "60")
	t.Setenv("SWARM_TEST_FLAG", "true")

	data := map[string]interface{}{
		"timeout": "${SWARM_TEST_TIMEOUT}",
		"nested": map[string]interface{}{
			"enabled": "${SWARM_TEST_FLAG}",
		},
		"list":  []interface{}{"$SWARM_TEST_TIMEOUT", "static"},
		"plain": 7,
	}

	result := ExpandEnvVarsInData(data).(map[string]interface{})

	assert.Equal(t, 60, result["timeout"])
	assert.Equal(t, true, result["nested"].(map[string]interface{})["enabled"])
	assert.Equal(t, []interface{}{60, "static"}, result["list"])
	assert.Equal(t, 7, result["plain"])
}
