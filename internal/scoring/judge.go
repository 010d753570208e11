package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// Judge is the opaque chat-completion capability the judge scorer delegates
// to. Implementations are external collaborators (OpenRouter, a local model,
// a test stub); absence of a Judge means judge scoring is unavailable.
type Judge interface {
	Ask(ctx context.Context, prompt, model string) (string, error)
}

// maxFileChars bounds file content embedded in the judge prompt.
const maxFileChars = 3000

// defaultJudgeTimeout bounds a single judge call. Exceeding it is a judge
// failure, not a hang.
const defaultJudgeTimeout = 2 * time.Minute

// fencedJSONRe extracts a JSON object from a ```json markdown fence.
var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// judgePayload is the JSON document the judge is instructed to return.
type judgePayload struct {
	Scores       map[string]float64 `json:"scores"`
	TotalScore   *float64           `json:"total_score"`
	Feedback     string             `json:"feedback"`
	Strengths    []string           `json:"strengths"`
	Improvements []string           `json:"improvements"`
}

// JudgeScorer normalizes an external judge's free-text response into the
// same result shape the structural scorer produces. Failures of any kind
// (network, timeout, unparseable response) are recovered into a zero-score
// result with the error preserved in feedback; they never propagate.
type JudgeScorer struct {
	judge        Judge
	defaultModel string
	timeout      time.Duration
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// JudgeOption customizes a JudgeScorer.
type JudgeOption func(*JudgeScorer)

// WithJudgeTimeout overrides the per-call timeout.
func WithJudgeTimeout(d time.Duration) JudgeOption {
	return func(s *JudgeScorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithJudgeRateLimit bounds outbound judge calls with a local token bucket.
func WithJudgeRateLimit(perSecond float64, burst int) JudgeOption {
	return func(s *JudgeScorer) {
		if perSecond > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewJudgeScorer creates a judge scorer delegating to the given judge.
// defaultModel is used when the task does not pin a judge model.
func NewJudgeScorer(judge Judge, defaultModel string, logger *slog.Logger, opts ...JudgeOption) *JudgeScorer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &JudgeScorer{
		judge:        judge,
		defaultModel: defaultModel,
		timeout:      defaultJudgeTimeout,
		logger:       logger.With("component", "judge_scorer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score builds a deterministic evaluation prompt, delegates to the judge,
// and parses the response. The returned error is always nil: every failure
// mode is folded into the result per the recovery contract.
func (s *JudgeScorer) Score(ctx context.Context, baseline, solution domain.FileSet, sc Context) (*domain.ScoreResult, error) {
	prompt := BuildJudgePrompt(sc.Task, sc.Agent, baseline, solution)

	model := s.defaultModel
	if sc.Task != nil && sc.Task.JudgeModel != "" {
		model = sc.Task.JudgeModel
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return s.failure(err), nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.judge.Ask(callCtx, prompt, model)
	if err != nil {
		s.logger.Warn("judge call failed", "model", model, "agent", sc.Agent, "error", err)
		return s.failure(err), nil
	}

	return parseJudgeResponse(content), nil
}

// failure is the recovered zero-score result for a failed judge call.
func (s *JudgeScorer) failure(err error) *domain.ScoreResult {
	return &domain.ScoreResult{
		Kind:         domain.KindAIJudge,
		TotalScore:   0,
		Breakdown:    map[string]int{},
		Feedback:     fmt.Sprintf("Evaluation failed: %v", err),
		Strengths:    []string{},
		Improvements: []string{},
		Err:          err.Error(),
	}
}

// parseJudgeResponse extracts the evaluation payload from the judge's reply.
// It tolerates a ```json fenced wrapper; a reply with no JSON at all becomes
// a zero-score result carrying the raw reply as feedback. Missing fields get
// defaults and total_score is derived from the per-criterion sum when absent.
func parseJudgeResponse(content string) *domain.ScoreResult {
	var payload judgePayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		if m := fencedJSONRe.FindStringSubmatch(content); m != nil {
			err = json.Unmarshal([]byte(m[1]), &payload)
		}
		if err != nil {
			payload = judgePayload{Feedback: content}
		}
	}

	if payload.Scores == nil {
		payload.Scores = map[string]float64{}
	}
	if payload.Feedback == "" {
		payload.Feedback = "No feedback provided"
	}
	if payload.Strengths == nil {
		payload.Strengths = []string{}
	}
	if payload.Improvements == nil {
		payload.Improvements = []string{}
	}

	total := 0.0
	if payload.TotalScore != nil {
		total = *payload.TotalScore
	} else {
		for _, v := range payload.Scores {
			total += v
		}
	}

	breakdown := make(map[string]int, len(payload.Scores))
	for name, v := range payload.Scores {
		breakdown[name] = domain.RoundScore(v)
	}

	return &domain.ScoreResult{
		Kind:         domain.KindAIJudge,
		TotalScore:   domain.ClampScore(domain.RoundScore(total)),
		Breakdown:    breakdown,
		Feedback:     payload.Feedback,
		Strengths:    payload.Strengths,
		Improvements: payload.Improvements,
	}
}

// BuildJudgePrompt renders the deterministic evaluation prompt from the task
// rubric and the truncated baseline/solution contents. Files are embedded in
// sorted path order so identical inputs always produce identical prompts.
func BuildJudgePrompt(task *domain.Task, agent string, baseline, solution domain.FileSet) string {
	name, description := "Unknown Task", "No description provided"
	var rubric []domain.RubricCriterion
	customTemplate := ""
	if task != nil {
		if task.Name != "" {
			name = task.Name
		}
		if task.Description != "" {
			description = task.Description
		}
		rubric = task.Rubric
		customTemplate = task.JudgePromptTemplate
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Task Evaluation: %s\n\n", name)
	fmt.Fprintf(&b, "## Task Description\n%s\n\n", description)
	fmt.Fprintf(&b, "## Agent Being Evaluated\n%s\n\n", agent)
	fmt.Fprintf(&b, "## Scoring Criteria\n%s\n\n", formatCriteria(rubric))
	fmt.Fprintf(&b, "## Baseline Files (Original)\n%s\n\n", formatFiles(baseline, "BASELINE"))
	fmt.Fprintf(&b, "## Solution Files (Agent Output)\n%s\n\n", formatFiles(solution, "SOLUTION"))

	b.WriteString(`## Instructions
Please evaluate this solution based on the scoring criteria above. Consider:

1. **Task Completion**: Does the solution accomplish the stated goals?
2. **Code Quality**: Is the code well-structured, readable, and maintainable?
3. **Best Practices**: Does the solution follow established coding conventions?
4. **Performance**: Are there any obvious performance issues or improvements?
5. **Edge Cases**: Does the solution handle edge cases appropriately?
6. **Innovation**: Are there any clever or innovative approaches used?

Provide your evaluation as JSON with this exact structure:
` + "```json" + `
{
  "scores": {
    "criterion_name": score_out_of_max_weight
  },
  "total_score": sum_of_all_scores,
  "feedback": "Overall evaluation summary (2-3 sentences)",
  "strengths": ["strength1", "strength2", "strength3"],
  "improvements": ["improvement1", "improvement2", "improvement3"]
}
` + "```" + `

Be objective and constructive in your evaluation.`)

	if customTemplate != "" {
		fmt.Fprintf(&b, "\n\n## Additional Evaluation Guidelines\n%s", customTemplate)
	}

	return b.String()
}

// formatCriteria renders rubric criteria as a markdown list.
func formatCriteria(rubric []domain.RubricCriterion) string {
	if len(rubric) == 0 {
		return "No specific criteria defined."
	}
	lines := make([]string, 0, len(rubric))
	for _, c := range rubric {
		desc := c.Description
		if desc == "" {
			desc = "No description"
		}
		lines = append(lines, fmt.Sprintf("- **%s** (%d points): %s", c.Name, c.Weight, desc))
	}
	return strings.Join(lines, "\n")
}

// formatFiles renders a file set as fenced blocks, truncating long files.
func formatFiles(files domain.FileSet, label string) string {
	if len(files) == 0 {
		return label + ": No files provided"
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	parts := []string{label + ":"}
	for _, p := range paths {
		content := files[p]
		if len(content) > maxFileChars {
			content = content[:maxFileChars] + "\n... (truncated)"
		}
		parts = append(parts, fmt.Sprintf("\n### %s", p), fmt.Sprintf("```\n%s\n```", content))
	}
	return strings.Join(parts, "\n")
}
