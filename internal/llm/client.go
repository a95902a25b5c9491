package llm

import (
	"context"
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversational unit sent to the completion endpoint.
// An empty Content means absent; it is only legal together with ToolCalls.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // for tool result messages
}

// Empty reports whether the message carries neither content nor tool calls.
func (m Message) Empty() bool {
	return m.Content == "" && len(m.ToolCalls) == 0
}

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON text as produced by the model
}

// Params decodes the call arguments. Empty or malformed arguments yield an
// empty map, never an error.
func (tc ToolCall) Params() map[string]any {
	params := map[string]any{}
	if strings.TrimSpace(tc.Arguments) == "" {
		return params
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &params); err != nil || params == nil {
		return map[string]any{}
	}
	return params
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// FinishReason is why the endpoint stopped generating.
type FinishReason string

const (
	FinishNone      FinishReason = ""
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
)

// Event is one incremental update from a streamed completion. Every field is
// optional.
type Event struct {
	Content   string
	Role      Role
	Finish    FinishReason
	ToolCalls []ToolCall
}

// EventStream yields events in arrival order. Next blocks until the next event
// is available and returns false at the end of the stream or on error.
type EventStream interface {
	Next() bool
	Current() Event
	Err() error
	Close() error
}

type Request struct {
	Model    string
	Messages []Message
	Tools    []Tool
	Stream   bool
}

// Client is the completion endpoint. Implementations must be safe for
// concurrent use by independent turns.
type Client interface {
	Stream(ctx context.Context, req Request) (EventStream, error)
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Synthesizer turns reply text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
