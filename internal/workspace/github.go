package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// githubAPIBase is the GitHub REST v3 endpoint.
const githubAPIBase = "https://api.github.com"

// githubHTTPTimeout bounds each GitHub API call.
const githubHTTPTimeout = 30 * time.Second

// GitHubProvider loads agent solutions from evaluation branches of a GitHub
// repository. Agents push their work to <prefix>-<evaluation>-<agent>
// branches; this provider reads the branch contents back for scoring.
// Baselines stay on the local filesystem and are delegated to an FSProvider.
type GitHubProvider struct {
	token        string
	repo         string // "owner/name"
	branchPrefix string
	baseURL      string
	httpClient   *http.Client
	baselines    *FSProvider
	logger       *slog.Logger
}

// NewGitHubProvider creates a GitHub-backed solution provider.
// token and repo are required; branchPrefix defaults to "eval".
func NewGitHubProvider(token, repo, branchPrefix string, baselines *FSProvider, logger *slog.Logger) (*GitHubProvider, error) {
	if token == "" || repo == "" {
		return nil, fmt.Errorf("github token and repository must be configured")
	}
	if branchPrefix == "" {
		branchPrefix = "eval"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubProvider{
		token:        token,
		repo:         repo,
		branchPrefix: branchPrefix,
		baseURL:      githubAPIBase,
		httpClient:   &http.Client{Timeout: githubHTTPTimeout},
		baselines:    baselines,
		logger:       logger.With("component", "github_workspace"),
	}, nil
}

// LoadBaseline delegates to the filesystem provider.
func (g *GitHubProvider) LoadBaseline(ctx context.Context, taskID string) (domain.FileSet, error) {
	return g.baselines.LoadBaseline(ctx, taskID)
}

// contentItem is the subset of the GitHub contents API response we consume.
type contentItem struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	DownloadURL string `json:"download_url"`
}

// LoadSolution fetches every file from the agent's evaluation branch.
func (g *GitHubProvider) LoadSolution(ctx context.Context, evaluationID, agent string) (domain.FileSet, error) {
	branch := fmt.Sprintf("%s-%s-%s", g.branchPrefix, evaluationID, agent)

	listURL := fmt.Sprintf("%s/repos/%s/contents?ref=%s", g.baseURL, g.repo, url.QueryEscape(branch))
	var items []contentItem
	if err := g.getJSON(ctx, listURL, &items); err != nil {
		return nil, fmt.Errorf("list branch %s: %w", branch, err)
	}

	files := make(domain.FileSet, len(items))
	for _, item := range items {
		if item.Type != "file" || item.DownloadURL == "" {
			continue
		}
		content, err := g.getRaw(ctx, item.DownloadURL)
		if err != nil {
			g.logger.Warn("skipping unreadable file", "branch", branch, "path", item.Path, "error", err)
			continue
		}
		files[item.Name] = content
	}
	return files, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (g *GitHubProvider) getJSON(ctx context.Context, rawURL string, out any) error {
	body, err := g.get(ctx, rawURL, true)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// getRaw fetches a raw download URL without authentication headers.
func (g *GitHubProvider) getRaw(ctx context.Context, rawURL string) (string, error) {
	body, err := g.get(ctx, rawURL, false)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (g *GitHubProvider) get(ctx context.Context, rawURL string, authenticated bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if authenticated {
		req.Header.Set("Authorization", "token "+g.token)
		req.Header.Set("Accept", "application/vnd.github+json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
