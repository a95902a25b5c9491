package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/chris/cetes/config"
	"github.com/chris/cetes/internal/agent"
	"github.com/chris/cetes/internal/banxico"
	"github.com/chris/cetes/internal/db"
	"github.com/chris/cetes/internal/forecast"
	"github.com/chris/cetes/internal/llm"
	"github.com/chris/cetes/internal/logging"
	"github.com/chris/cetes/internal/scheduler"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg       *config.Config
	db        *db.DB
	responder *agent.Responder
	refresher *scheduler.Refresher
}

// newApp opens the store. The responder is built only when withLLM is set,
// so `asesor refresh` runs without provider credentials.
func newApp(cfg *config.Config, withLLM bool) (*app, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a := &app{cfg: cfg, db: database}

	bx := banxico.NewClient(cfg.BanxicoToken, "", nil)
	a.refresher = scheduler.NewRefresher(database, scheduler.BanxicoLoader(bx), forecast.Holt{}, cfg.ForecastSeries, cfg.ForecastWeeks)

	if withLLM {
		responder, err := newResponder(cfg, database)
		if err != nil {
			database.Close()
			return nil, err
		}
		a.responder = responder
	}
	return a, nil
}

func newResponder(cfg *config.Config, store agent.MarketStore) (*agent.Responder, error) {
	clients, err := llm.NewClients(llm.ProviderConfig{
		Provider:        cfg.LLMProvider,
		APIKey:          cfg.APIKey(),
		Model:           cfg.LLMModel,
		BaseURL:         cfg.OllamaBaseURL,
		TranscribeModel: cfg.TranscribeModel,
		TTSModel:        cfg.TTSModel,
		Voice:           cfg.TTSVoice,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}

	ag := agent.New(clients.Chat, agent.NewExecutor(store), agent.Options{
		Model:            cfg.LLMModel,
		Tools:            llm.AdvisorTools,
		MaxToolRounds:    cfg.MaxToolRounds,
		MaxContextTokens: cfg.MaxContextTokens,
	})
	return &agent.Responder{
		Agent:       ag,
		BasePrompt:  llm.SystemPrompt,
		Transcriber: clients.Transcriber,
		Synthesizer: clients.Synthesizer,
		AudioDir:    cfg.AudioDir,
	}, nil
}

// ensureData runs a first refresh when the store has never been filled.
func (a *app) ensureData(ctx context.Context) {
	log := logging.Logger()
	last, err := a.db.LastRefresh()
	if err != nil {
		log.Warn("reading refresh log", "err", err)
		return
	}
	if last != nil {
		return
	}
	log.Info("no market data yet, running first refresh")
	if _, err := a.refresher.Refresh(ctx); err != nil {
		log.Error("first refresh failed", "err", err)
	}
}

func (a *app) Close() error {
	return a.db.Close()
}
