// Package config loads service configuration from a YAML file with
// environment overrides for secrets. Secrets never live in the file or in
// any ambient global: they are read once at load time and injected into the
// components that need them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted at load time.
const (
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvGitHubToken   = "GITHUB_TOKEN"
)

// TemporalConfig locates the Temporal service and task queue.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

// StorageConfig selects the embedded store location.
type StorageConfig struct {
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// WorkspaceConfig locates baseline/solution artifacts. When GitHub.Repo is
// set (and GITHUB_TOKEN is present) solutions are read from evaluation
// branches; otherwise from SolutionsDir.
type WorkspaceConfig struct {
	TasksDir     string `yaml:"tasks_dir"`
	SolutionsDir string `yaml:"solutions_dir"`
	ResultsDir   string `yaml:"results_dir"`

	GitHub struct {
		Repo         string `yaml:"repo"`
		BranchPrefix string `yaml:"branch_prefix"`
	} `yaml:"github"`
}

// JudgeConfig controls the external judge. The API key comes exclusively
// from the environment.
type JudgeConfig struct {
	BaseURL       string  `yaml:"base_url"`
	DefaultModel  string  `yaml:"default_model"`
	TimeoutSecs   int     `yaml:"timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`

	Cache struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		DB      int    `yaml:"db"`
		TTLSecs int    `yaml:"ttl_secs"`
	} `yaml:"cache"`
}

// Config is the root service configuration.
type Config struct {
	Temporal  TemporalConfig  `yaml:"temporal"`
	Storage   StorageConfig   `yaml:"storage"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Judge     JudgeConfig     `yaml:"judge"`
	LogLevel  string          `yaml:"log_level"`

	// Secrets, populated from the environment at load time.
	OpenRouterAPIKey string `yaml:"-"`
	GitHubToken      string `yaml:"-"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	cfg := &Config{
		Temporal: TemporalConfig{
			HostPort:  "127.0.0.1:7233",
			Namespace: "default",
			TaskQueue: "gauntlet-evaluation",
		},
		Storage: StorageConfig{
			Path:       "data/gauntlet",
			SyncWrites: true,
		},
		Workspace: WorkspaceConfig{
			TasksDir:     "tasks",
			SolutionsDir: "solutions",
			ResultsDir:   "results",
		},
		Judge: JudgeConfig{
			DefaultModel:  "anthropic/claude-3-sonnet",
			TimeoutSecs:   120,
			RatePerSecond: 1,
			RateBurst:     2,
		},
		LogLevel: "info",
	}
	cfg.Workspace.GitHub.BranchPrefix = "eval"
	return cfg
}

// Load reads the YAML file at path (optional, "" for defaults) and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.OpenRouterAPIKey = os.Getenv(EnvOpenRouterKey)
	cfg.GitHubToken = os.Getenv(EnvGitHubToken)
	return cfg, nil
}

// JudgeTimeout returns the judge call bound as a duration.
func (c *Config) JudgeTimeout() time.Duration {
	return time.Duration(c.Judge.TimeoutSecs) * time.Second
}

// CacheTTL returns the judge cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Judge.Cache.TTLSecs) * time.Second
}
