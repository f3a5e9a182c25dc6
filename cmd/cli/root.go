package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfred-cli/alfred/internal/config"
	"github.com/alfred-cli/alfred/internal/core"
	"github.com/alfred-cli/alfred/internal/github"
	"github.com/alfred-cli/alfred/internal/history"
	"github.com/alfred-cli/alfred/internal/ledger"
	"github.com/alfred-cli/alfred/internal/llm"
	"github.com/alfred-cli/alfred/internal/logger"
	"github.com/alfred-cli/alfred/internal/pricing"
	"github.com/alfred-cli/alfred/internal/resolver"
	"github.com/alfred-cli/alfred/internal/review"
	"github.com/alfred-cli/alfred/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:           "alfred",
	Short:         "alfred is an AI code review assistant for local files and GitHub pull requests.",
	Long:          `Alfred submits source files or pull request diffs to an LLM backend for a structured code review, with durable cost accounting and a searchable review history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app bundles the wired components a command needs. Commands that only read
// local state leave engine nil; newEngine upgrades an app when a backend is
// required.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	db      *storage.DB
	ledger  *ledger.Ledger
	history *history.Store
	engine  *review.Engine
}

// openApp loads config, opens the database, and runs migrations. The
// returned cleanup must be deferred by the caller.
func openApp(_ context.Context) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(log)

	db, closeDB, err := storage.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		ledger:  ledger.New(db),
		history: history.New(db),
	}, closeDB, nil
}

// newEngine wires the review engine onto an open app. It fails when no API
// key is configured, before anything is persisted.
func newEngine(ctx context.Context, a *app) error {
	if a.cfg.APIKey == "" {
		return fmt.Errorf("%w: set ALFRED_API_KEY or ANTHROPIC_API_KEY", core.ErrAuthenticationRequired)
	}
	if !pricing.Known(a.cfg.Model) {
		return fmt.Errorf("model %q has no configured price (see alfred version for priced models): %w",
			a.cfg.Model, core.ErrUnknownModel)
	}
	backend, err := llm.NewAnthropic(a.cfg.APIKey, a.cfg.Model, a.cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("failed to create backend: %w", err)
	}

	var gh github.Client
	if a.cfg.GitHubToken != "" {
		gh = github.NewPATClient(ctx, a.cfg.GitHubToken, a.log)
	}

	dispatcher := review.NewDispatcher(backend, a.db, a.ledger, a.history, review.DispatcherConfig{
		MaxRetries:      a.cfg.MaxRetries,
		MinBalance:      a.cfg.MinBalance,
		MaxOutputTokens: a.cfg.MaxOutputTokens,
	}, a.log)

	res := resolver.New(gh, a.cfg.MaxFileBytes, a.log)
	a.engine = review.NewEngine(res, dispatcher, a.cfg.MaxPromptBytes, a.cfg.Concurrency, a.log)
	return nil
}
