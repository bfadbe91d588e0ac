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

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProvider(config.ProviderConfig{
		Type:       "openai",
		Model:      "gpt-4o-mini",
		APIKey:     "sk-test",
		BaseURL:    server.URL,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	return provider, server
}

func TestChatNormalizesCompletion(t *testing.T) {
	var gotReq OpenAIRequest
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(OpenAIResponse{
			Choices: []OpenAIChoice{{
				Message:      Message{Role: RoleAssistant, Content: "hello"},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 11, CompletionTokens: 5, TotalTokens: 16},
		})
	})

	completion, err := provider.Chat(context.Background(),
		[]Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hi"},
		}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, RoleAssistant, completion.Role)
	assert.Equal(t, "hello", completion.Content)
	assert.Equal(t, "stop", completion.FinishReason)
	assert.Equal(t, 16, completion.Usage.TotalTokens)
	assert.False(t, completion.HasToolCalls())

	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Len(t, gotReq.Messages, 2)
	assert.Empty(t, gotReq.ToolChoice)
}

func TestChatSendsToolsWithAutoChoice(t *testing.T) {
	var gotReq OpenAIRequest
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(OpenAIResponse{
			Choices: []OpenAIChoice{{
				Message: Message{
					Role: RoleAssistant,
					ToolCalls: []ToolCall{{
						ID:       "call_abc",
						Type:     "function",
						Function: FunctionCall{Name: "current_time", Arguments: "{}"},
					}},
				},
				FinishReason: "tool_calls",
			}},
		})
	})

	tools := []ToolDefinition{{
		Name:        "current_time",
		Description: "returns the current time",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []string{},
		},
	}}

	completion, err := provider.Chat(context.Background(),
		[]Message{{Role: RoleUser, Content: "what time is it"}}, tools, nil)
	require.NoError(t, err)

	require.True(t, completion.HasToolCalls())
	assert.Equal(t, "call_abc", completion.ToolCalls[0].ID)
	assert.Equal(t, "current_time", completion.ToolCalls[0].Function.Name)

	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "function", gotReq.Tools[0].Type)
	assert.Equal(t, "auto", gotReq.ToolChoice)
}

func TestChatProviderErrorOnHTTPFailure(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth_error"}}`))
	})

	_, err := provider.Chat(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode)
	assert.Equal(t, "invalid api key", provErr.Message)
	assert.Equal(t, "gpt-4o-mini", provErr.Model)
	assert.False(t, provErr.Retriable)
}

func TestChatProviderErrorWithoutStatusOnTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	provider, err := NewOpenAIProvider(config.ProviderConfig{
		Type:       "openai",
		Model:      "gpt-4o-mini",
		APIKey:     "sk-test",
		BaseURL:    server.URL,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	server.Close()

	_, err = provider.Chat(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 0, provErr.StatusCode)
}

func TestChatEmptyChoices(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OpenAIResponse{})
	})

	_, err := provider.Chat(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
	assert.Error(t, err)
}

func TestChatForceJSON(t *testing.T) {
	var gotReq OpenAIRequest
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(OpenAIResponse{
			Choices: []OpenAIChoice{{Message: Message{Role: RoleAssistant, Content: "{}"}}},
		})
	})

	_, err := provider.Chat(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, nil, &Options{ForceJSON: true})
	require.NoError(t, err)

	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
}

func TestIsRetriableStatus(t *testing.T) {
	assert.True(t, NewProviderError(429, "", "m", nil).Retriable)
	assert.True(t, NewProviderError(503, "", "m", nil).Retriable)
	assert.False(t, NewProviderError(400, "", "m", nil).Retriable)
	assert.False(t, NewProviderError(0, "", "m", nil).Retriable)
}
