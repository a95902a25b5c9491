package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

type OpenAIClient struct {
	client          openai.Client
	model           string
	transcribeModel string
	ttsModel        string
	voice           string
}

// OpenAIOptions configures the speech models. Zero values pick the defaults.
type OpenAIOptions struct {
	BaseURL         string
	HTTPClient      *http.Client
	TranscribeModel string
	TTSModel        string
	Voice           string
}

func NewOpenAIClient(apiKey, model string, o OpenAIOptions) *OpenAIClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	if o.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	}
	client := openai.NewClient(opts...)
	if model == "" {
		model = "gpt-5.1"
	}
	c := &OpenAIClient{
		client:          client,
		model:           model,
		transcribeModel: o.TranscribeModel,
		ttsModel:        o.TTSModel,
		voice:           o.Voice,
	}
	if c.transcribeModel == "" {
		c.transcribeModel = string(openai.AudioModelWhisper1)
	}
	if c.ttsModel == "" {
		c.ttsModel = "gpt-4o-mini-tts"
	}
	if c.voice == "" {
		c.voice = string(openai.AudioSpeechNewParamsVoiceShimmer)
	}
	return c
}

func (c *OpenAIClient) Stream(ctx context.Context, req Request) (EventStream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = toOpenAITools(req.Tools)
	}

	if !req.Stream {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai chat: %w", err)
		}
		if len(resp.Choices) == 0 {
			return NewSliceStream(nil), nil
		}
		choice := resp.Choices[0]
		ev := Event{
			Content: choice.Message.Content,
			Role:    Role(choice.Message.Role),
			Finish:  FinishReason(choice.FinishReason),
		}
		for _, tc := range choice.Message.ToolCalls {
			ftc := tc.AsFunction()
			ev.ToolCalls = append(ev.ToolCalls, ToolCall{
				ID:        ftc.ID,
				Name:      ftc.Function.Name,
				Arguments: ftc.Function.Arguments,
			})
		}
		return NewSliceStream(nil, ev), nil
	}

	return &openAIStream{
		stream:  c.client.Chat.Completions.NewStreaming(ctx, params),
		pending: map[int64]*ToolCall{},
	}, nil
}

// openAIStream adapts chat completion chunks to Events.
//
// The endpoint spreads one tool call over several deltas that share an index:
// the first carries id and name, the rest carry argument text. Deltas are held
// back and released as whole calls on the chunk that carries the finish reason,
// so every tool call the aggregator sees is complete.
type openAIStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	cur     Event
	pending map[int64]*ToolCall
	order   []int64
}

func (s *openAIStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue // usage-only chunk
		}
		choice := chunk.Choices[0]
		for _, d := range choice.Delta.ToolCalls {
			s.collect(d)
		}
		ev := Event{
			Content: choice.Delta.Content,
			Role:    Role(choice.Delta.Role),
		}
		if choice.FinishReason != "" {
			ev.Finish = FinishReason(choice.FinishReason)
			ev.ToolCalls = s.flush()
		}
		s.cur = ev
		return true
	}
	if s.stream.Err() == nil && len(s.order) > 0 {
		// Stream ended without a finish reason; don't lose the calls.
		s.cur = Event{ToolCalls: s.flush()}
		return true
	}
	return false
}

func (s *openAIStream) collect(d openai.ChatCompletionChunkChoiceDeltaToolCall) {
	tc, ok := s.pending[d.Index]
	if !ok {
		tc = &ToolCall{}
		s.pending[d.Index] = tc
		s.order = append(s.order, d.Index)
	}
	if d.ID != "" {
		tc.ID = d.ID
	}
	if d.Function.Name != "" {
		tc.Name = d.Function.Name
	}
	tc.Arguments += d.Function.Arguments
}

func (s *openAIStream) flush() []ToolCall {
	if len(s.order) == 0 {
		return nil
	}
	calls := make([]ToolCall, 0, len(s.order))
	for _, idx := range s.order {
		calls = append(calls, *s.pending[idx])
	}
	s.pending = map[int64]*ToolCall{}
	s.order = nil
	return calls
}

func (s *openAIStream) Current() Event { return s.cur }
func (s *openAIStream) Err() error     { return s.stream.Err() }
func (s *openAIStream) Close() error   { return s.stream.Close() }

func toOpenAITools(tools []Tool) []openai.ChatCompletionToolUnionParam {
	oaiTools := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		oaiTools[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Parameters),
		})
	}
	return oaiTools
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	oaiMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			oaiMsgs = append(oaiMsgs, openai.SystemMessage(m.Content))
		case RoleUser:
			oaiMsgs = append(oaiMsgs, openai.UserMessage(m.Content))
		case RoleTool:
			oaiMsgs = append(oaiMsgs, openai.ToolMessage(m.Content, m.ToolCallID))
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				oaiMsgs = append(oaiMsgs, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				args := tc.Arguments
				if args == "" {
					args = "{}"
				}
				toolCalls[j] = openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: args,
						},
					},
				}
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(m.Content),
				}
			}
			oaiMsgs = append(oaiMsgs, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		}
	}
	return oaiMsgs
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio: %w", err)
	}
	defer f.Close()

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(c.transcribeModel),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.ttsModel),
		Voice:          openai.AudioSpeechNewParamsVoice(c.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading speech: %w", err)
	}
	return audio, nil
}
