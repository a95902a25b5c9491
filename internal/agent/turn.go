package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/chris/cetes/internal/history"
	"github.com/chris/cetes/internal/llm"
	"github.com/chris/cetes/internal/logging"
)

// AudioPrefix marks user text that came from a transcription.
const AudioPrefix = "(Audio) "

// TurnInput is what a UI hands over for one turn. Text wins over AudioPath
// when both are set.
type TurnInput struct {
	Text      string
	AudioPath string
	History   []history.Entry
	Shape     history.Shape
	Data      DataContext
}

// TurnOutput is what the UI gets back. Error is set only for input faults
// (unusable audio); endpoint failures arrive as an error reply in History.
type TurnOutput struct {
	History   []history.Entry
	Pairs     []history.Pair
	Display   string // user text as shown, including AudioPrefix
	Reply     string
	AudioPath string
	Error     string
	Outcome   *Outcome
}

// Responder wires the driver to speech services and the external history
// shapes. Transcriber and Synthesizer may be nil.
type Responder struct {
	Agent       *Agent
	BasePrompt  string
	Transcriber llm.Transcriber
	Synthesizer llm.Synthesizer
	AudioDir    string
}

// Respond runs one turn. It never panics or returns an error value: an
// empty input is a no-op that returns the history untouched.
func (r *Responder) Respond(ctx context.Context, in TurnInput) TurnOutput {
	log := logging.Logger()
	noop := TurnOutput{History: in.History, Pairs: history.Normalize(in.History)}

	var prompt, display string
	switch {
	case strings.TrimSpace(in.Text) != "":
		prompt = strings.TrimSpace(in.Text)
		display = prompt
	case in.AudioPath != "":
		text, err := r.transcribe(ctx, in.AudioPath)
		if err != nil {
			log.Warn("transcription failed", "path", in.AudioPath, "err", err)
			noop.Error = err.Error()
			return noop
		}
		if text == "" {
			return noop
		}
		prompt = text
		display = AudioPrefix + text
	default:
		return noop
	}

	pairs := history.Append(history.Normalize(in.History), history.Pending(display))
	system := ComposeSystemPrompt(r.BasePrompt, in.Data)
	outcome := r.Agent.Run(ctx, system, pairs)

	reply := outcome.Reply
	pairs[len(pairs)-1].Assistant = &reply
	log.Info("turn finished", "state", outcome.State, "requests", outcome.Requests, "tool_results", outcome.ToolResults, "prompt", truncate(prompt, 80))

	out := TurnOutput{
		History: history.Render(pairs, in.Shape),
		Pairs:   pairs,
		Display: display,
		Reply:   reply,
		Outcome: &outcome,
	}
	if strings.TrimSpace(reply) != "" {
		out.AudioPath = r.speak(ctx, reply)
	}
	return out
}

func (r *Responder) transcribe(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", errors.New("Error: No se pudo procesar el archivo de audio")
	}
	if r.Transcriber == nil {
		return "", errors.New("Error al transcribir audio: transcripción no disponible")
	}
	text, err := r.Transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("Error al transcribir audio: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// speak synthesizes reply into AudioDir. Any failure means no audio.
func (r *Responder) speak(ctx context.Context, reply string) string {
	if r.Synthesizer == nil {
		return ""
	}
	log := logging.Logger()
	audio, err := r.Synthesizer.Synthesize(ctx, reply)
	if err != nil {
		log.Warn("speech synthesis failed", "err", err)
		return ""
	}
	dir := r.AudioDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, uuid.NewString()+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		log.Warn("writing synthesized audio", "path", path, "err", err)
		return ""
	}
	return path
}
