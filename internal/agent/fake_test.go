package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/llm"
	"github.com/chris/cetes/internal/market"
)

// scriptedClient replays one completion per call. Calls beyond the script
// repeat the last entry.
type scriptedClient struct {
	mu       sync.Mutex
	script   []func() (llm.EventStream, error)
	requests []llm.Request
}

func (c *scriptedClient) Stream(ctx context.Context, req llm.Request) (llm.EventStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	i := len(c.requests) - 1
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	return c.script[i]()
}

func reply(text string) func() (llm.EventStream, error) {
	return func() (llm.EventStream, error) {
		return llm.NewSliceStream(nil,
			llm.Event{Role: llm.RoleAssistant},
			llm.Event{Content: text},
			llm.Event{Finish: llm.FinishStop},
		), nil
	}
}

func toolCall(id, name, args string) func() (llm.EventStream, error) {
	return func() (llm.EventStream, error) {
		return llm.NewSliceStream(nil,
			llm.Event{Role: llm.RoleAssistant},
			llm.Event{ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: args}}},
			llm.Event{Finish: llm.FinishToolCalls},
		), nil
	}
}

func failing(err error) func() (llm.EventStream, error) {
	return func() (llm.EventStream, error) { return nil, err }
}

func brokenStream(err error) func() (llm.EventStream, error) {
	return func() (llm.EventStream, error) {
		return llm.NewSliceStream(err, llm.Event{Content: "parcial"}), nil
	}
}

// recordingExecutor answers every call with a fixed payload.
type recordingExecutor struct {
	calls []llm.ToolCall
}

func (e *recordingExecutor) Execute(ctx context.Context, calls []llm.ToolCall) []llm.Message {
	var out []llm.Message
	for _, tc := range calls {
		e.calls = append(e.calls, tc)
		out = append(out, llm.Message{Role: llm.RoleTool, Content: `{"ok":true}`, ToolCallID: tc.ID})
	}
	return out
}

// memStore is an in-memory MarketStore.
type memStore struct {
	frame     *market.Frame
	forecasts map[string]forecast.Result
	err       error
}

func (s *memStore) LoadFrame() (*market.Frame, error) {
	return s.frame, s.err
}

func (s *memStore) GetForecast(series string) (forecast.Result, bool, error) {
	if s.err != nil {
		return forecast.Result{}, false, s.err
	}
	r, ok := s.forecasts[series]
	return r, ok, nil
}

func (s *memStore) ListForecasts() ([]forecast.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []forecast.Result
	for _, series := range market.CetesSeries {
		if r, ok := s.forecasts[series]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

var errUnreachable = errors.New("dial tcp: connection refused")
