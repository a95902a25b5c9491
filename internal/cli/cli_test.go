package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/llm"
	"github.com/chris/cetes/internal/market"
)

var fixedNow = time.Date(2025, 6, 5, 18, 0, 0, 0, time.UTC)

type countingClient struct{ calls int }

func (c *countingClient) Stream(ctx context.Context, req llm.Request) (llm.EventStream, error) {
	c.calls++
	last := req.Messages[len(req.Messages)-1]
	return llm.NewSliceStream(nil,
		llm.Event{Role: llm.RoleAssistant},
		llm.Event{Content: "respuesta a " + last.Content},
		llm.Event{Finish: llm.FinishStop},
	), nil
}

func testSession(t *testing.T) (*chatSession, *countingClient) {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	client := &countingClient{}
	responder := &agent.Responder{
		Agent:      agent.New(client, agent.NewExecutor(d), agent.Options{Model: "test"}),
		BasePrompt: "sys",
	}
	return &chatSession{responder: responder, db: d, now: func() time.Time { return fixedNow }}, client
}

func TestChatSession_Handle(t *testing.T) {
	s, client := testSession(t)
	ctx := context.Background()

	if out, done := s.handle(ctx, "   "); out != "" || done {
		t.Errorf("blank line: out=%q done=%v", out, done)
	}
	if out, _ := s.handle(ctx, "hola"); out != "respuesta a hola" {
		t.Errorf("reply = %q", out)
	}
	s.handle(ctx, "¿y los CETES?")
	if len(s.pairs) != 2 {
		t.Errorf("pairs = %d, want 2", len(s.pairs))
	}
	if out, _ := s.handle(ctx, "/reset"); !strings.Contains(out, "reiniciada") || s.pairs != nil {
		t.Errorf("reset: out=%q pairs=%d", out, len(s.pairs))
	}
	if out, _ := s.handle(ctx, "/datos"); !strings.Contains(out, "Sin datos") {
		t.Errorf("status = %q", out)
	}
	if _, done := s.handle(ctx, "exit"); !done {
		t.Error("exit should end the session")
	}
	if client.calls != 2 {
		t.Errorf("model calls = %d, want 2", client.calls)
	}
}

func TestChatSession_AudioWithoutTranscriber(t *testing.T) {
	s, client := testSession(t)
	out, _ := s.handle(context.Background(), "/audio /no/existe.wav")
	if !strings.Contains(out, "No se pudo procesar el archivo de audio") {
		t.Errorf("out = %q", out)
	}
	if client.calls != 0 || len(s.pairs) != 0 {
		t.Error("audio fault must not reach the model or touch history")
	}
}

func TestRunREPL_Stdio(t *testing.T) {
	s, client := testSession(t)
	var out bytes.Buffer
	in := strings.NewReader("hola\n\nquit\nnunca\n")

	if err := runREPL(context.Background(), s, in, &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}
	if !strings.Contains(out.String(), "asesor> respuesta a hola") {
		t.Errorf("output = %q", out.String())
	}
	if client.calls != 1 {
		t.Errorf("lines after quit must be ignored, got %d calls", client.calls)
	}
}

func TestRunREPL_EOFWithoutNewline(t *testing.T) {
	s, _ := testSession(t)
	var out bytes.Buffer
	if err := runREPL(context.Background(), s, strings.NewReader("hola"), &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}
	if !strings.Contains(out.String(), "respuesta a hola") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrintRefresh(t *testing.T) {
	frame := market.SampleData(fixedNow)
	res, ok := forecast.Holt{}.Forecast(frame, market.Cete28, 13)
	if !ok {
		t.Fatal("forecast unavailable on sample data")
	}
	rec := db.Refresh{
		Source:         "banxico",
		Rows:           1234,
		Series:         market.Cete28,
		ForecastPoints: 13,
		StartedAt:      fixedNow.Add(-2 * time.Second),
		FinishedAt:     fixedNow,
	}

	var out bytes.Buffer
	if err := printRefresh(&out, rec, []forecast.Result{res, {Series: market.Cete91}}, fixedNow); err != nil {
		t.Fatalf("printRefresh: %v", err)
	}
	got := out.String()
	for _, want := range []string{"1,234", "Banxico", "CETES 28 días", "13 semanas", "en 2s"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "91 días") {
		t.Error("empty forecast should be skipped")
	}
}
