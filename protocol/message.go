// Package protocol defines the message envelope exchanged between agents.
package protocol

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reserved participant names. "user" terminates a task; "system" marks
// messages synthesized by the scheduler.
const (
	UserName   = "user"
	SystemName = "system"
)

// Message is the unit of communication between agents. Content is
// typically a string but may carry structured data.
type Message struct {
	ID           string         `json:"id"`
	Timestamp    string         `json:"timestamp"`
	Sender       string         `json:"sender"`
	Receiver     string         `json:"receiver"`
	NextReceiver string         `json:"next_receiver,omitempty"`
	Content      any            `json:"content"`
	TaskID       string         `json:"task_id,omitempty"`
	TokenUsage   int            `json:"token_usage,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Option mutates a Message during construction.
type Option func(*Message)

// WithTaskID binds the message to a task.
func WithTaskID(taskID string) Option {
	return func(m *Message) { m.TaskID = taskID }
}

// WithNextReceiver sets a routing hint for the hop after the receiver.
func WithNextReceiver(next string) Option {
	return func(m *Message) { m.NextReceiver = next }
}

// WithTokenUsage records the provider tokens spent producing the message.
func WithTokenUsage(tokens int) Option {
	return func(m *Message) { m.TokenUsage = tokens }
}

// WithMetadata attaches arbitrary metadata.
func WithMetadata(metadata map[string]any) Option {
	return func(m *Message) { m.Metadata = metadata }
}

// New builds a message with a fresh ID and timestamp.
func New(sender, receiver string, content any, opts ...Option) *Message {
	m := &Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ToMap serializes the message with snake_case keys. Zero-valued optional
// fields are omitted.
func (m *Message) ToMap() map[string]any {
	out := map[string]any{
		"id":        m.ID,
		"timestamp": m.Timestamp,
		"sender":    m.Sender,
		"receiver":  m.Receiver,
		"content":   m.Content,
	}
	if m.NextReceiver != "" {
		out["next_receiver"] = m.NextReceiver
	}
	if m.TaskID != "" {
		out["task_id"] = m.TaskID
	}
	if m.TokenUsage != 0 {
		out["token_usage"] = m.TokenUsage
	}
	if m.Metadata != nil {
		out["metadata"] = m.Metadata
	}
	return out
}

// FromMap rebuilds a message from its map form. Missing id and timestamp
// are filled with fresh defaults; sender and receiver are required.
func FromMap(data map[string]any) (*Message, error) {
	sender, _ := data["sender"].(string)
	receiver, _ := data["receiver"].(string)
	if sender == "" || receiver == "" {
		return nil, fmt.Errorf("message requires sender and receiver")
	}

	m := &Message{
		Sender:   sender,
		Receiver: receiver,
		Content:  data["content"],
	}

	if id, ok := data["id"].(string); ok && id != "" {
		m.ID = id
	} else {
		m.ID = uuid.NewString()
	}
	if ts, ok := data["timestamp"].(string); ok && ts != "" {
		m.Timestamp = ts
	} else {
		m.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if next, ok := data["next_receiver"].(string); ok {
		m.NextReceiver = next
	}
	if taskID, ok := data["task_id"].(string); ok {
		m.TaskID = taskID
	}
	switch v := data["token_usage"].(type) {
	case int:
		m.TokenUsage = v
	case float64:
		m.TokenUsage = int(v)
	}
	if md, ok := data["metadata"].(map[string]any); ok {
		m.Metadata = md
	}
	return m, nil
}

// ContentString renders the content as a string for prompt assembly.
func (m *Message) ContentString() string {
	if s, ok := m.Content.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", m.Content)
}
