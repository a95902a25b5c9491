package llm

import (
	"fmt"
	"strings"
)

// Completion is the reduced form of one streamed response. It is built once
// by Aggregate and not modified afterwards.
type Completion struct {
	Role      Role
	Content   string
	Finish    FinishReason
	ToolCalls []ToolCall
}

// WantsTools reports whether the endpoint asked for tool execution and at
// least one call was actually delivered.
func (c Completion) WantsTools() bool {
	return c.Finish == FinishToolCalls && len(c.ToolCalls) > 0
}

// Message converts the completion into a conversation message.
func (c Completion) Message() Message {
	return Message{
		Role:      c.Role,
		Content:   c.Content,
		ToolCalls: append([]ToolCall(nil), c.ToolCalls...),
	}
}

// Aggregate drains the stream and folds its events into a Completion.
//
// Content fragments are concatenated in arrival order. The last non-empty role
// wins and defaults to assistant. Tool-call fragments are collected as a flat
// list in arrival order without merging. The stream is always closed.
func Aggregate(stream EventStream) (Completion, error) {
	defer stream.Close()

	var (
		text  strings.Builder
		role  Role
		done  FinishReason
		calls []ToolCall
	)
	for stream.Next() {
		ev := stream.Current()
		text.WriteString(ev.Content)
		if ev.Role != "" {
			role = ev.Role
		}
		if ev.Finish != FinishNone {
			done = ev.Finish
		}
		calls = append(calls, ev.ToolCalls...)
	}
	if err := stream.Err(); err != nil {
		return Completion{}, fmt.Errorf("reading completion stream: %w", err)
	}

	if role == "" {
		role = RoleAssistant
	}
	return Completion{
		Role:      role,
		Content:   text.String(),
		Finish:    done,
		ToolCalls: calls,
	}, nil
}

// SliceStream replays a fixed list of events. It backs non-streaming
// providers and tests.
type SliceStream struct {
	events []Event
	pos    int
	err    error
	closed bool
}

// NewSliceStream returns a stream over events. If err is non-nil it is reported
// after the last event.
func NewSliceStream(err error, events ...Event) *SliceStream {
	return &SliceStream{events: events, pos: -1, err: err}
}

func (s *SliceStream) Next() bool {
	if s.closed || s.pos+1 >= len(s.events) {
		s.pos = len(s.events)
		return false
	}
	s.pos++
	return true
}

func (s *SliceStream) Current() Event {
	if s.pos < 0 || s.pos >= len(s.events) {
		return Event{}
	}
	return s.events[s.pos]
}

func (s *SliceStream) Err() error {
	if s.pos >= len(s.events) {
		return s.err
	}
	return nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *SliceStream) Closed() bool {
	return s.closed
}
