package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/swarm/config"
	"github.com/kadirpekel/swarm/internal/httpclient"
	"github.com/kadirpekel/swarm/logger"
	"github.com/kadirpekel/swarm/observability"
)

// ============================================================================
// OPENAI-COMPATIBLE PROVIDER
// ============================================================================
//
// Serves every provider speaking the /chat/completions wire format:
// OpenAI, DeepSeek, Zhipu, SiliconFlow and Anthropic's compatibility
// endpoint. Only the base URL and auth header vary.

// OpenAIRequest is the chat completions request body
type OpenAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Tools          []OpenAITool    `json:"tools,omitempty"`
	ToolChoice     string          `json:"tool_choice,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// OpenAITool wraps a function definition for the tools array
type OpenAITool struct {
	Type     string         `json:"type"`
	Function OpenAIFunction `json:"function"`
}

// OpenAIFunction is the function-calling tool schema
type OpenAIFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ResponseFormat forces structured output
type ResponseFormat struct {
	Type string `json:"type"`
}

// OpenAIResponse is the chat completions response body
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   Usage          `json:"usage"`
	Error   *OpenAIError   `json:"error,omitempty"`
}

// OpenAIChoice is one completion candidate
type OpenAIChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// OpenAIError is the error payload returned on non-2xx responses
type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// OpenAIProvider implements Provider over the chat completions API
type OpenAIProvider struct {
	cfg        config.ProviderConfig
	httpClient *httpclient.Client
	logger     *slog.Logger
}

// NewOpenAIProvider creates a provider for any OpenAI-compatible endpoint
func NewOpenAIProvider(cfg config.ProviderConfig) (*OpenAIProvider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parser := httpclient.ParseOpenAIHeaders
	if cfg.Type == "anthropic" {
		parser = httpclient.ParseAnthropicHeaders
	}

	return &OpenAIProvider{
		cfg: cfg,
		httpClient: httpclient.New(
			httpclient.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithHeaderParser(parser),
		),
		logger: logger.With("llms." + cfg.Type),
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.cfg.Type }

func (p *OpenAIProvider) Model() string { return p.cfg.Model }

func (p *OpenAIProvider) Close() error { return nil }

// Chat sends the conversation and normalizes the first choice.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, opts *Options) (*Completion, error) {
	tracer := observability.GetTracer("swarm.llms")
	ctx, span := tracer.Start(ctx, observability.SpanLLMRequest,
		trace.WithAttributes(
			attribute.String(observability.AttrLLMModel, p.cfg.Model),
			attribute.Int("llm.messages", len(messages)),
			attribute.Int("llm.tools", len(tools)),
		))
	defer span.End()

	start := time.Now()
	completion, err := p.chat(ctx, messages, tools, opts)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.GetGlobalMetrics().RecordLLMCall(ctx, p.cfg.Model, duration, 0, 0, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int(observability.AttrLLMTokensInput, completion.Usage.PromptTokens),
		attribute.Int(observability.AttrLLMTokensOutput, completion.Usage.CompletionTokens),
	)
	span.SetStatus(codes.Ok, "")
	observability.GetGlobalMetrics().RecordLLMCall(ctx, p.cfg.Model, duration,
		completion.Usage.PromptTokens, completion.Usage.CompletionTokens, nil)

	return completion, nil
}

func (p *OpenAIProvider) chat(ctx context.Context, messages []Message, tools []ToolDefinition, opts *Options) (*Completion, error) {
	reqBody := p.buildRequest(messages, tools, opts)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("marshaling request: %v", err), Model: p.cfg.Model, Err: err}
	}

	url := p.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("building request: %v", err), Model: p.cfg.Model, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	p.logger.Debug("sending chat request", "model", p.cfg.Model, "messages", len(messages))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
			resp.Body.Close()
		}
		return nil, NewProviderError(statusCode, err.Error(), p.cfg.Model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("reading response: %v", err), Model: p.cfg.Model, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewProviderError(resp.StatusCode, errorMessage(body), p.cfg.Model, nil)
	}

	var parsed OpenAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("decoding response: %v", err), Model: p.cfg.Model, Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "response contains no choices", Model: p.cfg.Model}
	}

	choice := parsed.Choices[0]
	return &Completion{
		Role:         RoleAssistant,
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
		Usage:        parsed.Usage,
	}, nil
}

func (p *OpenAIProvider) buildRequest(messages []Message, tools []ToolDefinition, opts *Options) *OpenAIRequest {
	req := &OpenAIRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}

	if opts != nil {
		if opts.Temperature > 0 {
			req.Temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
		if opts.ForceJSON {
			req.ResponseFormat = &ResponseFormat{Type: "json_object"}
		}
	}

	if len(tools) > 0 {
		req.Tools = make([]OpenAITool, 0, len(tools))
		for _, t := range tools {
			req.Tools = append(req.Tools, OpenAITool{
				Type: "function",
				Function: OpenAIFunction{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		req.ToolChoice = "auto"
	}

	return req
}

// errorMessage extracts a human-readable message from an error body,
// falling back to the raw payload.
func errorMessage(body []byte) string {
	var wrapper struct {
		Error *OpenAIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error != nil && wrapper.Error.Message != "" {
		return wrapper.Error.Message
	}
	return string(body)
}
