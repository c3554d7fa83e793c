package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soyeahso/supportdesk/internal/agents"
	"github.com/soyeahso/supportdesk/internal/config"
	"github.com/soyeahso/supportdesk/internal/engine"
	"github.com/soyeahso/supportdesk/internal/llm"
	"github.com/soyeahso/supportdesk/internal/logging"
	"github.com/soyeahso/supportdesk/internal/store"
	"github.com/soyeahso/supportdesk/internal/tools"
)

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg    config.Config
	db     *store.DB
	engine *engine.Engine
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// buildApp loads and validates config, opens the database, and wires the
// full agent workflow into an engine.
func buildApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	l, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	log = l

	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return nil, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}

	db, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	eng, err := buildEngine(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, db: db, engine: eng}, nil
}

// newLogger builds the configured logger: a log file gets structured JSON,
// consoleStyle selects pretty or JSON output on stderr.
func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	var w io.Writer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
	} else if cfg.ConsoleStyle == "json" {
		w = os.Stderr
	}
	return logging.New(w, cfg.Level), nil
}

func buildEngine(cfg config.Config, db *store.DB) (*engine.Engine, error) {
	providers := llm.NewRegistry()
	providers.Register(llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	}, log))
	providers.Register(&llm.MockClient{})

	client, err := providers.Get(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", client.Name()).Str("model", cfg.LLM.Model).Msg("model provider ready")

	modelCfg := agents.ModelConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	lookups := tools.NewLookupRegistry(db)
	policy, err := agents.NewPolicyAgent(client, modelCfg, lookups, log)
	if err != nil {
		return nil, err
	}
	billing, err := agents.NewBillingAgent(client, modelCfg, lookups, log)
	if err != nil {
		return nil, err
	}
	claims, err := agents.NewClaimsAgent(client, modelCfg, lookups, log)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	var sessions engine.SessionStore
	if cfg.Session.Store == "memory" {
		sessions = store.NewMemorySessionStore(ttl)
		log.Info().Msg("using in-memory session store")
	} else {
		sessions = store.NewSQLiteSessionStore(db, ttl)
		log.Info().Str("path", cfg.Database.Path).Msg("using SQLite session store")
	}

	return engine.New(engine.Agents{
		Supervisor:  agents.NewSupervisor(client, modelCfg, cfg.Supervisor.MaxIterations, log).Node(),
		Policy:      policy.Node(),
		Billing:     billing.Node(),
		Claims:      claims.Node(),
		GeneralHelp: agents.NewGeneralHelpAgent(client, modelCfg, db, cfg.Retrieval.TopK, log).Node(),
		Escalation:  agents.NewEscalationAgent(client, modelCfg, log).Node(),
		FinalAnswer: agents.NewFinalAnswerAgent(client, modelCfg, log).Node(),
	}, sessions, engine.Config{
		StepTimeout: time.Duration(cfg.LLM.TimeoutSecs*2) * time.Second,
	}, log)
}
