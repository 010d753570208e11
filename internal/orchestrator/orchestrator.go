// Package orchestrator coordinates the evaluation of one agent: it loads
// artifacts, selects and runs the scoring strategy, persists the result, and
// advances the evaluation's lifecycle state. When the last agent completes it
// transitions the evaluation exactly once and publishes a comparison report.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/forgebench/go-gauntlet/internal/domain"
	"github.com/forgebench/go-gauntlet/internal/scoring"
	"github.com/forgebench/go-gauntlet/internal/store"
	"github.com/forgebench/go-gauntlet/internal/workspace"
)

// ReportSink receives the ranked results of a completed evaluation.
// Publish fires once per completion transition and is best-effort: a sink
// failure is logged, never propagated.
type ReportSink interface {
	Publish(ctx context.Context, evaluationID string, ranked []domain.AgentResult) error
}

// Orchestrator runs single-agent evaluations against injected collaborators.
// Evaluate is safe to call concurrently for different agents of the same
// evaluation; per-agent atomicity and the single completion transition are
// delegated to the ResultStore's transactional contract.
type Orchestrator struct {
	store      store.ResultStore
	workspace  workspace.Provider
	structural *scoring.StructuralScorer
	judge      *scoring.JudgeScorer // nil when no judge capability is configured
	reports    ReportSink
	logger     *slog.Logger
}

// New creates an orchestrator. judge may be nil; ai_judge and hybrid tasks
// then degrade to rule-based scoring. reports may be nil to skip publication.
func New(st store.ResultStore, ws workspace.Provider, judge *scoring.JudgeScorer, reports ReportSink, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if reports == nil {
		reports = NoopSink{}
	}
	return &Orchestrator{
		store:      st,
		workspace:  ws,
		structural: scoring.NewStructuralScorer(),
		judge:      judge,
		reports:    reports,
		logger:     logger.With("component", "orchestrator"),
	}
}

// Evaluate scores one agent's solution and records the outcome.
//
// Preconditions: the evaluation exists and the agent belongs to it; violations
// surface as domain.ErrEvaluationNotFound / domain.ErrAgentNotInEvaluation
// with no state mutated. Workspace failures are recovered as empty file sets
// (a missing submission is scorable). Judge failures are folded into the
// score result by the judge scorer. Persistence failures are fatal for this
// call and safe to retry.
func (o *Orchestrator) Evaluate(ctx context.Context, evaluationID, agent string) (*domain.AgentResult, error) {
	ev, err := o.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("evaluation %s: %w", evaluationID, err)
	}
	if !ev.HasAgent(agent) {
		return nil, fmt.Errorf("agent %q in evaluation %s: %w", agent, evaluationID, domain.ErrAgentNotInEvaluation)
	}

	task, err := o.store.GetTask(ctx, ev.TaskID)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", ev.TaskID, err)
	}

	// Mark the agent in flight. Best-effort: the status is informational and
	// the terminal transition rides on SaveAgentResult either way.
	if err := o.store.SetAgentStatus(ctx, evaluationID, agent, domain.AgentEvaluating); err != nil {
		o.logger.Warn("setting agent status failed", "evaluation_id", evaluationID, "agent", agent, "error", err)
	}

	baseline := o.loadFiles(ctx, "baseline", func() (domain.FileSet, error) {
		return o.workspace.LoadBaseline(ctx, ev.TaskID)
	})
	solution := o.loadFiles(ctx, "solution", func() (domain.FileSet, error) {
		return o.workspace.LoadSolution(ctx, evaluationID, agent)
	})

	scorer, effective := scoring.Select(task.Strategy, o.structural, o.judge, o.logger)
	started := time.Now().UTC()

	o.logger.Info("evaluating agent",
		"evaluation_id", evaluationID,
		"agent", agent,
		"strategy", effective,
		"baseline_files", len(baseline),
		"solution_files", len(solution))

	scoreResult, err := scorer.Score(ctx, baseline, solution, scoring.Context{Task: task, Agent: agent})
	if err != nil {
		// Scorers recover their own failures; an error here is internal and
		// still recorded so the agent reaches a terminal status.
		o.logger.Error("scoring failed", "evaluation_id", evaluationID, "agent", agent, "error", err)
		scoreResult = &domain.ScoreResult{
			Kind:      effective.Kind(),
			Breakdown: map[string]int{},
			Feedback:  fmt.Sprintf("Scoring failed: %v", err),
			Err:       err.Error(),
		}
	}

	result := &domain.AgentResult{
		EvaluationID: evaluationID,
		AgentName:    agent,
		Score:        domain.ClampScore(scoreResult.TotalScore),
		Breakdown:    scoreResult.Breakdown,
		Feedback:     scoreResult.Feedback,
		Strengths:    scoreResult.Strengths,
		Improvements: scoreResult.Improvements,
		Output:       scoreResult,
		StartedAt:    started,
		CompletedAt:  time.Now().UTC(),
		Status:       domain.AgentCompleted,
	}

	if err := o.store.SaveAgentResult(ctx, result, domain.AgentCompleted); err != nil {
		return nil, fmt.Errorf("persist result for %s/%s: %w", evaluationID, agent, err)
	}

	if err := o.checkCompletion(ctx, evaluationID); err != nil {
		return nil, err
	}
	return result, nil
}

// Fail moves the evaluation to the failed sink. Called when orchestration
// can no longer drive the evaluation to completion, e.g. an agent's activity
// exhausted its retries. No-op when the evaluation already completed.
func (o *Orchestrator) Fail(ctx context.Context, evaluationID string) error {
	if err := o.store.FailEvaluation(ctx, evaluationID); err != nil {
		return fmt.Errorf("fail evaluation %s: %w", evaluationID, err)
	}
	o.logger.Warn("evaluation moved to failed", "evaluation_id", evaluationID)
	return nil
}

// loadFiles runs a workspace load, recovering failure as an empty file set.
func (o *Orchestrator) loadFiles(_ context.Context, kind string, load func() (domain.FileSet, error)) domain.FileSet {
	files, err := load()
	if err != nil {
		o.logger.Warn("workspace load failed, using empty file set", "kind", kind, "error", err)
		return domain.FileSet{}
	}
	if files == nil {
		files = domain.FileSet{}
	}
	return files
}

// checkCompletion attempts the guarded completion transition and publishes
// the comparison report when this call performed it.
func (o *Orchestrator) checkCompletion(ctx context.Context, evaluationID string) error {
	transitioned, err := o.store.CompleteEvaluation(ctx, evaluationID)
	if err != nil {
		return fmt.Errorf("completion check for %s: %w", evaluationID, err)
	}
	if !transitioned {
		return nil
	}

	o.logger.Info("evaluation completed", "evaluation_id", evaluationID)

	results, err := o.store.ListAgentResults(ctx, evaluationID)
	if err != nil {
		o.logger.Error("loading results for report failed", "evaluation_id", evaluationID, "error", err)
		return nil
	}
	ranked := Rank(results)

	if err := o.reports.Publish(ctx, evaluationID, ranked); err != nil {
		o.logger.Error("report publication failed", "evaluation_id", evaluationID, "error", err)
	}
	return nil
}

// Rank orders results by score descending. The sort is stable, so ties keep
// the evaluation's original agent order.
func Rank(results []domain.AgentResult) []domain.AgentResult {
	ranked := append([]domain.AgentResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
