package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider      string // openai, anthropic, ollama
	OpenAIKey        string
	AnthropicKey     string
	LLMModel         string
	OllamaBaseURL    string
	TranscribeModel  string
	TTSModel         string
	TTSVoice         string
	BanxicoToken     string // Bmx-Token header
	DatabasePath     string
	ListenAddr       string
	RefreshCron      string
	ForecastSeries   string
	ForecastWeeks    int
	MaxToolRounds    int // 0 = unbounded
	MaxContextTokens int // 0 = send the full history
	DiscordToken     string
	AudioDir         string
	LogLevel         string
}

func Load() *Config {
	_ = godotenv.Load() // ignore error if no .env

	return &Config{
		LLMProvider:      envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		LLMModel:         envOr("LLM_MODEL", "gpt-5.1"),
		OllamaBaseURL:    envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		TranscribeModel:  envOr("TRANSCRIBE_MODEL", "whisper-1"),
		TTSModel:         envOr("TTS_MODEL", "gpt-4o-mini-tts"),
		TTSVoice:         envOr("TTS_VOICE", "shimmer"),
		BanxicoToken:     os.Getenv("BANXICO_API_KEY"),
		DatabasePath:     envOr("DATABASE_PATH", "./cetes.db"),
		ListenAddr:       envOr("LISTEN_ADDR", ":7860"),
		RefreshCron:      envOr("REFRESH_CRON", "0 18 * * 4"),
		ForecastSeries:   envOr("FORECAST_SERIES", "CETE_28D"),
		ForecastWeeks:    envInt("FORECAST_WEEKS", 13),
		MaxToolRounds:    envInt("MAX_TOOL_ROUNDS", 0),
		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 0),
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		AudioDir:         envOr("AUDIO_DIR", os.TempDir()),
		LogLevel:         envOr("LOG_LEVEL", "info"),
	}
}

// APIKey returns the key matching the configured provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicKey
	case "ollama":
		return "ollama"
	default:
		return c.OpenAIKey
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
