package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chris/cetes/internal/history"
	"github.com/chris/cetes/internal/llm"
	"github.com/chris/cetes/internal/logging"
)

// ErrorPrefix marks a reply that reports a failure instead of an answer.
const ErrorPrefix = "Error: "

// ErrMaxToolRounds is reported when Options.MaxToolRounds is set and the model
// keeps requesting tools past it.
var ErrMaxToolRounds = errors.New("max tool iterations exceeded")

// State is a step of one turn.
type State int

const (
	StateComposing State = iota
	StateStreaming
	StateToolDispatch
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateComposing:
		return "composing"
	case StateStreaming:
		return "streaming"
	case StateToolDispatch:
		return "tool_dispatch"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Options struct {
	Model string
	Tools []llm.Tool
	// MaxToolRounds caps tool dispatches per turn. Zero means no cap.
	MaxToolRounds int
	// MaxContextTokens trims old history before each request. Zero sends
	// everything.
	MaxContextTokens int
}

// Agent drives one turn against the completion endpoint. It holds no
// per-turn state and may serve concurrent turns.
type Agent struct {
	client llm.Client
	tools  ToolExecutor
	opts   Options
}

func New(client llm.Client, tools ToolExecutor, opts Options) *Agent {
	return &Agent{client: client, tools: tools, opts: opts}
}

// Outcome is the result of Run.
type Outcome struct {
	State State
	// Reply is the answer on StateDone, or ErrorPrefix + Err on StateFailed.
	Reply string
	Err   error
	// Requests counts calls to the completion endpoint.
	Requests int
	// ToolResults counts tool messages appended during the turn.
	ToolResults int
	// Messages is the conversation as last sent, plus the final reply.
	Messages []llm.Message
}

// Failed reports whether the turn ended in an error reply.
func (o Outcome) Failed() bool { return o.State == StateFailed }

// Conversation builds the message list for a turn: the system prompt, then
// every non-empty user and assistant text from pairs in order.
func Conversation(systemPrompt string, pairs []history.Pair) []llm.Message {
	msgs := make([]llm.Message, 0, 1+2*len(pairs))
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, p := range pairs {
		if u := strings.TrimSpace(p.User); u != "" {
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: u})
		}
		if a := strings.TrimSpace(p.Reply()); a != "" {
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: a})
		}
	}
	return msgs
}

// Run resolves the pending last pair of pairs.
//
// The loop sends the conversation, drains the stream, and either finishes or
// executes the requested tools and sends again. A tool_calls finish with no
// calls counts as an answer. Transport errors end the turn in StateFailed with
// the error as reply text; Run itself never fails.
func (a *Agent) Run(ctx context.Context, systemPrompt string, pairs []history.Pair) Outcome {
	log := logging.Logger()
	conv := Conversation(systemPrompt, pairs)

	var (
		out        Outcome
		state      = StateComposing
		req        llm.Request
		completion llm.Completion
		rounds     int
	)
	fail := func(err error) {
		out.Err = err
		out.Reply = ErrorPrefix + err.Error()
		state = StateFailed
	}

	for {
		log.Debug("turn state", "state", state, "requests", out.Requests)
		switch state {
		case StateComposing:
			req = llm.Request{
				Model:    a.opts.Model,
				Messages: a.trim(conv),
				Tools:    a.opts.Tools,
				Stream:   true,
			}
			log.Debug("request composed", "messages", len(req.Messages), "estimated_tokens", llm.EstimateRequestTokens(req))
			state = StateStreaming

		case StateStreaming:
			out.Requests++
			stream, err := a.client.Stream(ctx, req)
			if err != nil {
				fail(err)
				continue
			}
			completion, err = llm.Aggregate(stream)
			if err != nil {
				fail(err)
				continue
			}
			if completion.WantsTools() {
				if a.opts.MaxToolRounds > 0 && rounds >= a.opts.MaxToolRounds {
					fail(ErrMaxToolRounds)
					continue
				}
				state = StateToolDispatch
				continue
			}
			out.Reply = completion.Content
			state = StateDone

		case StateToolDispatch:
			rounds++
			conv = append(conv, completion.Message())
			for _, tc := range completion.ToolCalls {
				log.Info("tool call", "tool", tc.Name, "tool_call_id", tc.ID, "round", rounds)
			}
			results := a.tools.Execute(ctx, completion.ToolCalls)
			conv = append(conv, results...)
			out.ToolResults += len(results)
			state = StateComposing

		case StateDone, StateFailed:
			out.State = state
			if state == StateDone {
				if out.Reply != "" {
					conv = append(conv, llm.Message{Role: llm.RoleAssistant, Content: out.Reply})
				}
			} else {
				log.Error("turn failed", "err", out.Err, "requests", out.Requests)
			}
			out.Messages = conv
			return out
		}
	}
}

func (a *Agent) trim(conv []llm.Message) []llm.Message {
	if a.opts.MaxContextTokens <= 0 {
		return conv
	}
	budget := a.opts.MaxContextTokens - llm.EstimateToolsTokens(a.opts.Tools)
	if budget < 1000 {
		budget = 1000 // floor so we always have room for at least the current turn
	}
	trimmed := llm.TrimConversation(conv, budget)
	if len(trimmed) < len(conv) {
		logging.Logger().Info("context trimmed", "from", len(conv), "to", len(trimmed))
	}
	return trimmed
}
