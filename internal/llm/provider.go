package llm

import "fmt"

type ProviderConfig struct {
	Provider        string
	APIKey          string
	Model           string
	BaseURL         string
	TranscribeModel string
	TTSModel        string
	Voice           string
}

// Clients bundles the completion endpoint with the optional speech services.
// Transcriber and Synthesizer are nil when the provider has no audio API.
type Clients struct {
	Chat        Client
	Transcriber Transcriber
	Synthesizer Synthesizer
}

func NewClients(cfg ProviderConfig) (Clients, error) {
	switch cfg.Provider {
	case "openai", "":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, OpenAIOptions{
			TranscribeModel: cfg.TranscribeModel,
			TTSModel:        cfg.TTSModel,
			Voice:           cfg.Voice,
		})
		return Clients{Chat: c, Transcriber: c, Synthesizer: c}, nil
	case "anthropic":
		return Clients{Chat: NewAnthropicClient(cfg.APIKey, cfg.Model, "", nil)}, nil
	case "ollama":
		if cfg.Model == "" || cfg.Model == "gpt-5.1" {
			cfg.Model = "llama3.1"
		}
		return Clients{Chat: NewOpenAIClient("ollama", cfg.Model, OpenAIOptions{BaseURL: cfg.BaseURL})}, nil
	default:
		return Clients{}, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
