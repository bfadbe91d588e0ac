package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/swarm/config"
)

func TestConvertMessagesToGemini(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "what time is it"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{
			ID:       "call_0",
			Type:     "function",
			Function: FunctionCall{Name: "current_time", Arguments: `{"tz":"UTC"}`},
		}}},
		{Role: RoleTool, ToolCallID: "call_0", Content: "12:00"},
		{Role: RoleAssistant, Content: "it is noon"},
	}

	contents := convertMessagesToGemini(messages)
	require.Len(t, contents, 5)

	// system folds into a user turn
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "be helpful", contents[0].Parts[0].Text)

	assert.Equal(t, "user", contents[1].Role)

	// assistant becomes model; tool call becomes a functionCall part
	assert.Equal(t, "model", contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionCall)
	assert.Equal(t, "current_time", contents[2].Parts[0].FunctionCall.Name)
	assert.Equal(t, "UTC", contents[2].Parts[0].FunctionCall.Args["tz"])

	// tool result becomes a user functionResponse, name resolved by call ID
	assert.Equal(t, "user", contents[3].Role)
	require.NotNil(t, contents[3].Parts[0].FunctionResponse)
	assert.Equal(t, "current_time", contents[3].Parts[0].FunctionResponse.Name)
	assert.Equal(t, "12:00", contents[3].Parts[0].FunctionResponse.Response["content"])

	assert.Equal(t, "model", contents[4].Role)
	assert.Equal(t, "it is noon", contents[4].Parts[0].Text)
}

func TestConvertSchemaToGemini(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"city": map[string]interface{}{
				"type":        "string",
				"description": "city name",
			},
			"days": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "integer"},
			},
		},
		"required": []string{"city"},
	}

	got := convertSchemaToGemini(schema)

	assert.Equal(t, "OBJECT", got["type"])
	props := got["properties"].(map[string]interface{})
	assert.Equal(t, "STRING", props["city"].(map[string]interface{})["type"])
	days := props["days"].(map[string]interface{})
	assert.Equal(t, "ARRAY", days["type"])
	assert.Equal(t, "INTEGER", days["items"].(map[string]interface{})["type"])
	assert.Equal(t, []string{"city"}, got["required"])
}

func TestNormalizeGeminiCandidateSyntheticIDs(t *testing.T) {
	candidate := GeminiCandidate{
		Content: GeminiContent{
			Role: "model",
			Parts: []GeminiPart{
				{FunctionCall: &GeminiFunctionCall{Name: "first", Args: map[string]interface{}{"a": float64(1)}}},
				{FunctionCall: &GeminiFunctionCall{Name: "second", Args: map[string]interface{}{}}},
			},
		},
		FinishReason: "STOP",
	}

	completion := normalizeGeminiCandidate(candidate, GeminiUsage{PromptTokenCount: 3, CandidatesTokenCount: 4, TotalTokenCount: 7})

	require.Len(t, completion.ToolCalls, 2)
	assert.Equal(t, "call_0", completion.ToolCalls[0].ID)
	assert.Equal(t, "call_1", completion.ToolCalls[1].ID)
	assert.Equal(t, FinishToolCalls, completion.FinishReason)
	assert.Equal(t, 7, completion.Usage.TotalTokens)
	assert.JSONEq(t, `{"a":1}`, completion.ToolCalls[0].Function.Arguments)
}

func TestNormalizeGeminiCandidateFinishReasons(t *testing.T) {
	tests := []struct {
		finish string
		want   string
	}{
		{"STOP", FinishStop},
		{"MAX_TOKENS", FinishLength},
		{"", FinishStop},
	}

	for _, tt := range tests {
		candidate := GeminiCandidate{
			Content:      GeminiContent{Parts: []GeminiPart{{Text: "x"}}},
			FinishReason: tt.finish,
		}
		got := normalizeGeminiCandidate(candidate, GeminiUsage{})
		assert.Equal(t, tt.want, got.FinishReason)
	}
}

func TestGeminiChat(t *testing.T) {
	var gotReq GeminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/models/gemini-2.0-flash:generateContent")
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(GeminiResponse{
			Candidates: []GeminiCandidate{{
				Content:      GeminiContent{Role: "model", Parts: []GeminiPart{{Text: "hi there"}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: GeminiUsage{PromptTokenCount: 2, CandidatesTokenCount: 3, TotalTokenCount: 5},
		})
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(config.ProviderConfig{
		Model:      "gemini-2.0-flash",
		APIKey:     "g-key",
		BaseURL:    server.URL,
		MaxRetries: 1,
	})
	require.NoError(t, err)

	tools := []ToolDefinition{{
		Name: "lookup",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"q": map[string]interface{}{"type": "string"},
			},
		},
	}}

	completion, err := provider.Chat(context.Background(),
		[]Message{{Role: RoleUser, Content: "hello"}}, tools, nil)
	require.NoError(t, err)

	assert.Equal(t, "hi there", completion.Content)
	assert.Equal(t, 5, completion.Usage.TotalTokens)

	require.Len(t, gotReq.Tools, 1)
	decl := gotReq.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, "lookup", decl.Name)
	assert.Equal(t, "OBJECT", decl.Parameters["type"])
}

func TestNewProviderFactory(t *testing.T) {
	tests := []struct {
		providerType string
		wantErr      bool
	}{
		{"openai", false},
		{"deepseek", false},
		{"zhipu", false},
		{"siliconflow", false},
		{"anthropic", false},
		{"gemini", false},
		{"bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.providerType, func(t *testing.T) {
			_, err := NewProvider(config.ProviderConfig{
				Type:    tt.providerType,
				Model:   "m1",
				APIKey:  "k",
				BaseURL: "https://example.com",
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
