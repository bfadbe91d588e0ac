package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
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
// GEMINI PROVIDER
// ============================================================================
//
// Gemini speaks its own wire format: roles are user/model, tool calls
// travel as functionCall/functionResponse parts, and schemas use
// uppercase type names. Tool calls carry no IDs, so synthetic call_<n>
// IDs are minted per response to satisfy the normalized contract.

// GeminiRequest is the generateContent request body
type GeminiRequest struct {
	Contents         []GeminiContent  `json:"contents"`
	Tools            []GeminiTool     `json:"tools,omitempty"`
	GenerationConfig *GeminiGenConfig `json:"generationConfig,omitempty"`
}

// GeminiContent is one conversation turn
type GeminiContent struct {
	Role  string       `json:"role"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is a single content fragment
type GeminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *GeminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *GeminiFunctionResponse `json:"functionResponse,omitempty"`
}

// GeminiFunctionCall is a model-requested tool invocation
type GeminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// GeminiFunctionResponse carries a tool result back to the model
type GeminiFunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

// GeminiTool groups function declarations
type GeminiTool struct {
	FunctionDeclarations []GeminiFunctionDecl `json:"functionDeclarations"`
}

// GeminiFunctionDecl declares one callable function
type GeminiFunctionDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// GeminiGenConfig tunes generation
type GeminiGenConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// GeminiResponse is the generateContent response body
type GeminiResponse struct {
	Candidates    []GeminiCandidate `json:"candidates"`
	UsageMetadata GeminiUsage       `json:"usageMetadata"`
}

// GeminiCandidate is one completion candidate
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// GeminiUsage reports token consumption
type GeminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GeminiProvider implements Provider over the Gemini REST API
type GeminiProvider struct {
	cfg        config.ProviderConfig
	httpClient *httpclient.Client
	logger     *slog.Logger
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(cfg config.ProviderConfig) (*GeminiProvider, error) {
	cfg.Type = "gemini"
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &GeminiProvider{
		cfg: cfg,
		httpClient: httpclient.New(
			httpclient.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithHeaderParser(httpclient.ParseGeminiHeaders),
		),
		logger: logger.With("llms.gemini"),
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Model() string { return p.cfg.Model }

func (p *GeminiProvider) Close() error { return nil }

// Chat sends the conversation and normalizes the first candidate.
func (p *GeminiProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, opts *Options) (*Completion, error) {
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

func (p *GeminiProvider) chat(ctx context.Context, messages []Message, tools []ToolDefinition, opts *Options) (*Completion, error) {
	reqBody := &GeminiRequest{
		Contents: convertMessagesToGemini(messages),
	}

	if len(tools) > 0 {
		decls := make([]GeminiFunctionDecl, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, GeminiFunctionDecl{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  convertSchemaToGemini(t.Parameters),
			})
		}
		reqBody.Tools = []GeminiTool{{FunctionDeclarations: decls}}
	}

	genConfig := &GeminiGenConfig{
		Temperature:     p.cfg.Temperature,
		MaxOutputTokens: p.cfg.MaxTokens,
	}
	if opts != nil {
		if opts.Temperature > 0 {
			genConfig.Temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			genConfig.MaxOutputTokens = opts.MaxTokens
		}
		// Gemini rejects JSON mode combined with function declarations.
		if opts.ForceJSON && len(tools) == 0 {
			genConfig.ResponseMimeType = "application/json"
		}
	}
	reqBody.GenerationConfig = genConfig

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("marshaling request: %v", err), Model: p.cfg.Model, Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.cfg.BaseURL, p.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("building request: %v", err), Model: p.cfg.Model, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)

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
		return nil, NewProviderError(resp.StatusCode, geminiErrorMessage(body), p.cfg.Model, nil)
	}

	var parsed GeminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("decoding response: %v", err), Model: p.cfg.Model, Err: err}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "response contains no candidates", Model: p.cfg.Model}
	}

	return normalizeGeminiCandidate(parsed.Candidates[0], parsed.UsageMetadata), nil
}

// convertMessagesToGemini translates normalized messages to Gemini turns:
// system and tool turns become user turns, assistant becomes model.
func convertMessagesToGemini(messages []Message) []GeminiContent {
	callNames := map[string]string{}
	contents := make([]GeminiContent, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			parts := []GeminiPart{}
			if msg.Content != "" {
				parts = append(parts, GeminiPart{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				callNames[call.ID] = call.Function.Name
				args := map[string]interface{}{}
				_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
				parts = append(parts, GeminiPart{
					FunctionCall: &GeminiFunctionCall{Name: call.Function.Name, Args: args},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, GeminiPart{Text: ""})
			}
			contents = append(contents, GeminiContent{Role: "model", Parts: parts})

		case RoleTool:
			name := msg.Name
			if name == "" {
				name = callNames[msg.ToolCallID]
			}
			contents = append(contents, GeminiContent{
				Role: "user",
				Parts: []GeminiPart{{
					FunctionResponse: &GeminiFunctionResponse{
						Name:     name,
						Response: map[string]interface{}{"content": msg.Content},
					},
				}},
			})

		default:
			// system and user both map to user turns
			contents = append(contents, GeminiContent{
				Role:  "user",
				Parts: []GeminiPart{{Text: msg.Content}},
			})
		}
	}

	return contents
}

// normalizeGeminiCandidate maps a candidate to the normalized Completion,
// minting synthetic call_<n> tool-call IDs.
func normalizeGeminiCandidate(candidate GeminiCandidate, usage GeminiUsage) *Completion {
	completion := &Completion{
		Role: RoleAssistant,
		Usage: Usage{
			PromptTokens:     usage.PromptTokenCount,
			CompletionTokens: usage.CandidatesTokenCount,
			TotalTokens:      usage.TotalTokenCount,
		},
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				args = []byte("{}")
			}
			completion.ToolCalls = append(completion.ToolCalls, ToolCall{
				ID:   fmt.Sprintf("call_%d", len(completion.ToolCalls)),
				Type: "function",
				Function: FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
				},
			})
		}
	}
	completion.Content = text.String()

	switch {
	case len(completion.ToolCalls) > 0:
		completion.FinishReason = FinishToolCalls
	case strings.EqualFold(candidate.FinishReason, "MAX_TOKENS"):
		completion.FinishReason = FinishLength
	default:
		completion.FinishReason = FinishStop
	}

	return completion
}

// convertSchemaToGemini recursively rewrites a JSON schema for Gemini:
// uppercase type names, recursing into properties and items.
func convertSchemaToGemini(schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return nil
	}

	out := make(map[string]interface{}, len(schema))
	for key, value := range schema {
		switch key {
		case "type":
			if typeStr, ok := value.(string); ok {
				out[key] = strings.ToUpper(typeStr)
			} else {
				out[key] = value
			}
		case "properties":
			if props, ok := value.(map[string]interface{}); ok {
				converted := make(map[string]interface{}, len(props))
				for name, prop := range props {
					if propMap, ok := prop.(map[string]interface{}); ok {
						converted[name] = convertSchemaToGemini(propMap)
					} else {
						converted[name] = prop
					}
				}
				out[key] = converted
			} else {
				out[key] = value
			}
		case "items":
			if itemMap, ok := value.(map[string]interface{}); ok {
				out[key] = convertSchemaToGemini(itemMap)
			} else {
				out[key] = value
			}
		default:
			out[key] = value
		}
	}
	return out
}

func geminiErrorMessage(body []byte) string {
	var wrapper struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		return wrapper.Error.Message
	}
	return string(body)
}
