package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "LLM_MODEL", "FORECAST_WEEKS", "MAX_TOOL_ROUNDS", "REFRESH_CRON"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want openai", cfg.LLMProvider)
	}
	if cfg.LLMModel != "gpt-5.1" {
		t.Errorf("LLMModel = %q, want gpt-5.1", cfg.LLMModel)
	}
	if cfg.ForecastWeeks != 13 {
		t.Errorf("ForecastWeeks = %d, want 13", cfg.ForecastWeeks)
	}
	if cfg.MaxToolRounds != 0 {
		t.Errorf("MaxToolRounds = %d, want 0 (unbounded)", cfg.MaxToolRounds)
	}
	if cfg.RefreshCron != "0 18 * * 4" {
		t.Errorf("RefreshCron = %q", cfg.RefreshCron)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("FORECAST_WEEKS", "4")
	t.Setenv("MAX_TOOL_ROUNDS", "not-a-number")

	cfg := Load()
	if cfg.APIKey() != "sk-ant" {
		t.Errorf("APIKey() = %q, want sk-ant", cfg.APIKey())
	}
	if cfg.ForecastWeeks != 4 {
		t.Errorf("ForecastWeeks = %d, want 4", cfg.ForecastWeeks)
	}
	if cfg.MaxToolRounds != 0 {
		t.Errorf("invalid MAX_TOOL_ROUNDS should fall back to 0, got %d", cfg.MaxToolRounds)
	}
}

func TestAPIKey_Ollama(t *testing.T) {
	cfg := &Config{LLMProvider: "ollama"}
	if cfg.APIKey() != "ollama" {
		t.Errorf("APIKey() = %q, want ollama", cfg.APIKey())
	}
}
