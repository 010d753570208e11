package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgebench/go-gauntlet/internal/config"
	"github.com/forgebench/go-gauntlet/internal/judge"
	"github.com/forgebench/go-gauntlet/internal/orchestrator"
	"github.com/forgebench/go-gauntlet/internal/scoring"
	"github.com/forgebench/go-gauntlet/internal/store"
	"github.com/forgebench/go-gauntlet/internal/workspace"
)

// Dependencies holds the wired collaborators for a worker or CLI run.
// Close releases the store.
type Dependencies struct {
	Store        store.ResultStore
	Workspace    workspace.Provider
	Orchestrator *orchestrator.Orchestrator

	closeFn func() error
}

// Close releases held resources. Safe on a zero value.
func (d *Dependencies) Close() error {
	if d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

// Initialize wires the store, workspace provider, judge, and orchestrator
// from configuration. A missing OPENROUTER_API_KEY disables the judge;
// ai_judge and hybrid tasks then degrade to rule-based scoring.
func Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, closeFn, err := initStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	ws, err := initWorkspace(cfg, logger)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	judgeScorer := initJudge(ctx, cfg, logger)
	reports := orchestrator.NewFSReportSink(cfg.Workspace.ResultsDir)

	return &Dependencies{
		Store:        st,
		Workspace:    ws,
		Orchestrator: orchestrator.New(st, ws, judgeScorer, reports, logger),
		closeFn:      closeFn,
	}, nil
}

func initStore(cfg *config.Config, logger *slog.Logger) (store.ResultStore, func() error, error) {
	bs, err := store.OpenBadger(store.BadgerConfig{
		Path:       cfg.Storage.Path,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize store: %w", err)
	}
	return bs, bs.Close, nil
}

func initWorkspace(cfg *config.Config, logger *slog.Logger) (workspace.Provider, error) {
	fs := workspace.NewFSProvider(cfg.Workspace.TasksDir, cfg.Workspace.SolutionsDir)
	if cfg.Workspace.GitHub.Repo == "" {
		return fs, nil
	}
	if cfg.GitHubToken == "" {
		logger.Warn("github repo configured but GITHUB_TOKEN unset, using filesystem solutions",
			"repo", cfg.Workspace.GitHub.Repo)
		return fs, nil
	}
	gh, err := workspace.NewGitHubProvider(
		cfg.GitHubToken, cfg.Workspace.GitHub.Repo, cfg.Workspace.GitHub.BranchPrefix, fs, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize github workspace: %w", err)
	}
	return gh, nil
}

// initJudge builds the judge scorer, or nil when no API key is available.
func initJudge(ctx context.Context, cfg *config.Config, logger *slog.Logger) *scoring.JudgeScorer {
	if cfg.OpenRouterAPIKey == "" {
		logger.Warn("OPENROUTER_API_KEY unset, ai_judge and hybrid strategies degrade to rule_based")
		return nil
	}

	client, err := judge.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.Judge.BaseURL, logger)
	if err != nil {
		logger.Warn("judge client unavailable, degrading to rule_based", "error", err)
		return nil
	}

	j := judge.WithCache(ctx, client, judge.CacheConfig{
		Enabled: cfg.Judge.Cache.Enabled,
		Addr:    cfg.Judge.Cache.Addr,
		DB:      cfg.Judge.Cache.DB,
		TTL:     cfg.CacheTTL(),
	}, logger)

	return scoring.NewJudgeScorer(j, cfg.Judge.DefaultModel, logger,
		scoring.WithJudgeTimeout(cfg.JudgeTimeout()),
		scoring.WithJudgeRateLimit(cfg.Judge.RatePerSecond, cfg.Judge.RateBurst))
}
