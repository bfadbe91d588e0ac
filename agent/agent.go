package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/swarm/llms"
	"github.com/kadirpekel/swarm/logger"
	"github.com/kadirpekel/swarm/observability"
	"github.com/kadirpekel/swarm/protocol"
	"github.com/kadirpekel/swarm/tools"
	"github.com/kadirpekel/swarm/utils"
)

// DefaultMaxFunctionCalls bounds the tool-call loop per chat turn
const DefaultMaxFunctionCalls = 10

// RosterEntry is the routing view of a registered peer
type RosterEntry struct {
	Name        string
	Role        string
	Description string
}

// TaskContext is the narrow view an agent gets of the task it is bound
// to: the task identity and the peers it may route to.
type TaskContext interface {
	TaskID() string
	Peers() []RosterEntry
}

// Agent chats with a provider, invokes tools and routes replies
type Agent struct {
	name             string
	card             *Card
	prompt           *PromptTemplate
	provider         llms.Provider
	tools            *tools.ToolRegistry
	toolNames        []string
	maxFunctionCalls int
	logger           *slog.Logger

	mu   sync.RWMutex
	task TaskContext
}

// Option configures an Agent during construction
type Option func(*Agent)

// WithPromptTemplate overrides the default prompt template
func WithPromptTemplate(tmpl *PromptTemplate) Option {
	return func(a *Agent) { a.prompt = tmpl }
}

// WithTools grants the agent access to registered tools. With no names,
// every registered tool is available.
func WithTools(reg *tools.ToolRegistry, names ...string) Option {
	return func(a *Agent) {
		a.tools = reg
		a.toolNames = names
	}
}

// WithMaxFunctionCalls overrides the tool-call loop bound
func WithMaxFunctionCalls(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxFunctionCalls = n
		}
	}
}

// New assembles an agent from its card and provider
func New(card *Card, provider llms.Provider, opts ...Option) (*Agent, error) {
	if card == nil {
		return nil, NewAgentError("", "new", "card is required", nil)
	}
	if provider == nil {
		return nil, NewAgentError(card.Name, "new", "provider is required", nil)
	}

	a := &Agent{
		name:             card.Name,
		card:             card,
		provider:         provider,
		maxFunctionCalls: DefaultMaxFunctionCalls,
		prompt: &PromptTemplate{
			SystemPrompt: "You are {name}, {role}. {description}",
		},
		logger: logger.With("agent." + card.Name),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Load assembles an agent from the conventional card and prompt files
// for a type name: <dir>/<snake>_card.yaml and <dir>/<snake>_prompt.yaml.
// A missing prompt file is not an error; the default template applies.
func Load(dir, typeName string, provider llms.Provider, opts ...Option) (*Agent, error) {
	card, err := LoadCard(CardPath(dir, typeName))
	if err != nil {
		return nil, err
	}

	if tmpl, err := LoadPromptTemplate(PromptPath(dir, typeName)); err == nil {
		opts = append([]Option{WithPromptTemplate(tmpl)}, opts...)
	}

	return New(card, provider, opts...)
}

// Name returns the agent's roster name
func (a *Agent) Name() string { return a.name }

// Card returns the agent's declaration
func (a *Agent) Card() *Card { return a.card }

// Provider returns the agent's LLM provider
func (a *Agent) Provider() llms.Provider { return a.provider }

// BindTask attaches the agent to a running task. Routing instructions
// are only rendered while bound.
func (a *Agent) BindTask(task TaskContext) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.task = task
}

// UnbindTask detaches the agent from its task
func (a *Agent) UnbindTask() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.task = nil
}

func (a *Agent) currentTask() TaskContext {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.task
}

// SystemPrompt renders the card prompt plus, when task-bound, the
// routing instructions listing the roster and the output contract.
func (a *Agent) SystemPrompt() string {
	vars := map[string]any{
		"name":        a.card.Name,
		"role":        a.card.Role,
		"description": a.card.Description,
	}
	prompt := a.prompt.FormatSystem(vars)

	if task := a.currentTask(); task != nil {
		prompt += routingInstructions(a.name, task.Peers())
	}
	return prompt
}

// routingInstructions renders the peer list and the output contract
func routingInstructions(self string, peers []RosterEntry) string {
	var b strings.Builder
	b.WriteString("\n\nYou are part of a multi-agent swarm. Your peers are:\n")
	for _, peer := range peers {
		if peer.Name == self {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s (%s): %s\n", peer.Name, peer.Role, peer.Description))
	}
	b.WriteString("\nAlways respond with a single JSON object of the form ")
	b.WriteString(`{"receiver": "<name>", "next_receiver": "<name, optional>", "content": "<your message>"}. `)
	b.WriteString(`Set "receiver" to a peer name to delegate, or to "user" when the task is complete.`)
	return b.String()
}

// Chat runs the tool-call loop: while the completion carries tool calls
// and the iteration budget holds, execute the calls, append the results
// and ask the provider again. At most maxFunctionCalls+1 round trips. A
// completion still requesting tools after the budget is exhausted is
// returned alongside a ToolLimitError.
func (a *Agent) Chat(ctx context.Context, messages []llms.Message, opts *llms.Options) (*llms.Completion, error) {
	defs := a.toolDefinitions()

	completion, err := a.provider.Chat(ctx, messages, defs, opts)
	if err != nil {
		return nil, err
	}

	usage := completion.Usage
	for iteration := 1; iteration <= a.maxFunctionCalls && completion.HasToolCalls(); iteration++ {
		messages = append(messages, llms.Message{
			Role:      llms.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		// One tool message per call, in the completion's order.
		for _, call := range completion.ToolCalls {
			messages = append(messages, llms.Message{
				Role:       llms.RoleTool,
				Content:    a.executeToolCall(ctx, call),
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}

		completion, err = a.provider.Chat(ctx, messages, defs, opts)
		if err != nil {
			return nil, err
		}
		usage = addUsage(usage, completion.Usage)
	}

	completion.Usage = usage
	if completion.HasToolCalls() {
		return completion, &ToolLimitError{Agent: a.name, LastResponse: completion}
	}
	return completion, nil
}

// Invoke handles one routed message: render it through the prompt
// template, chat, and parse the reply into the next routed message.
func (a *Agent) Invoke(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	tracer := observability.GetTracer("swarm.agent")
	ctx, span := tracer.Start(ctx, observability.SpanAgentInvoke,
		trace.WithAttributes(
			attribute.String(observability.AttrAgentName, a.name),
			attribute.String(observability.AttrTaskID, msg.TaskID),
		))
	defer span.End()

	start := time.Now()
	reply, err := a.invoke(ctx, msg)
	duration := time.Since(start)

	tokens := 0
	if reply != nil {
		tokens = reply.TokenUsage
	}
	observability.GetGlobalMetrics().RecordAgentInvoke(ctx, a.name, duration, tokens, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String(observability.AttrMessageReceiver, reply.Receiver))
	span.SetStatus(codes.Ok, "")
	return reply, nil
}

func (a *Agent) invoke(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	vars := map[string]any{
		"name":        a.card.Name,
		"role":        a.card.Role,
		"description": a.card.Description,
		"sender":      msg.Sender,
		"content":     msg.ContentString(),
	}

	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: a.SystemPrompt()},
		{Role: llms.RoleUser, Content: a.prompt.FormatUser(vars)},
	}

	completion, err := a.Chat(ctx, messages, &llms.Options{ForceJSON: true})
	if err != nil {
		return nil, err
	}

	routed, err := parseRoutedOutput(completion.Content)
	if err != nil {
		return nil, &OutputError{Agent: a.name, Output: completion.Content, Err: err}
	}

	tokens := completion.Usage.TotalTokens
	if tokens == 0 {
		tokens = utils.CountOrEstimate(a.provider.Model(), completion.Content)
	}

	opts := []protocol.Option{
		protocol.WithTaskID(msg.TaskID),
		protocol.WithTokenUsage(tokens),
	}
	if routed.NextReceiver != "" {
		opts = append(opts, protocol.WithNextReceiver(routed.NextReceiver))
	}
	return protocol.New(a.name, routed.Receiver, routed.Content, opts...), nil
}

func (a *Agent) toolDefinitions() []llms.ToolDefinition {
	if a.tools == nil {
		return nil
	}
	return a.tools.Definitions(a.toolNames...)
}

// executeToolCall parses the call arguments and runs the tool. Malformed
// argument JSON degrades to an empty argument object; tool failures are
// reported to the model as a status/error payload.
func (a *Agent) executeToolCall(ctx context.Context, call llms.ToolCall) string {
	args := map[string]interface{}{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			a.logger.Warn("malformed tool arguments, using empty object",
				"tool", call.Function.Name, "error", err)
			args = map[string]interface{}{}
		}
	}

	if a.tools == nil {
		return errorResult(fmt.Sprintf("tool %s is not available", call.Function.Name))
	}

	result, err := a.tools.Execute(ctx, call.Function.Name, args)
	if err != nil {
		a.logger.Warn("tool execution failed", "tool", call.Function.Name, "error", err)
		return errorResult(err.Error())
	}
	return result
}

// errorResult renders a tool failure for the model
func errorResult(message string) string {
	payload, _ := json.Marshal(map[string]any{
		"status":  "error",
		"content": message,
	})
	return string(payload)
}

// routedOutput is the agent output contract
type routedOutput struct {
	Receiver     string `json:"receiver"`
	NextReceiver string `json:"next_receiver,omitempty"`
	Content      any    `json:"content"`
}

// parseRoutedOutput decodes the output contract, tolerating markdown
// code fences around the JSON object.
func parseRoutedOutput(content string) (*routedOutput, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	out := &routedOutput{}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return nil, err
	}
	if out.Receiver == "" {
		return nil, fmt.Errorf("output is missing a receiver")
	}
	return out, nil
}

func addUsage(a, b llms.Usage) llms.Usage {
	return llms.Usage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}
