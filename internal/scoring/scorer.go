package scoring

import (
	"context"
	"log/slog"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// Context carries per-evaluation inputs that scorers may need beyond the
// file sets themselves: the task definition (rubric, judge settings) and the
// agent under evaluation.
type Context struct {
	Task  *domain.Task
	Agent string
}

// Scorer produces a uniform ScoreResult from a baseline/solution file pair.
// Implementations must be safe for concurrent use: any scratch state is
// created per call, never shared across invocations.
type Scorer interface {
	Score(ctx context.Context, baseline, solution domain.FileSet, sc Context) (*domain.ScoreResult, error)
}

// Select resolves the task's evaluation strategy to a concrete scorer.
// The strategy enum is closed: rule_based and ai_judge map to a single
// handler each, and hybrid composes the two. When ai_judge or hybrid is
// requested but no judge is configured, selection degrades to rule-based
// scoring; this is a documented degradation, logged at WARN, not an error.
func Select(strategy domain.EvalStrategy, structural *StructuralScorer, judge *JudgeScorer, logger *slog.Logger) (Scorer, domain.EvalStrategy) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strategy {
	case domain.StrategyAIJudge:
		if judge == nil {
			logger.Warn("ai_judge strategy requested but no judge configured, falling back to rule-based")
			return structural, domain.StrategyRuleBased
		}
		return judge, strategy
	case domain.StrategyHybrid:
		if judge == nil {
			logger.Warn("hybrid strategy requested but no judge configured, falling back to rule-based")
			return structural, domain.StrategyRuleBased
		}
		return &HybridScorer{Rule: structural, Judge: judge}, strategy
	default:
		return structural, domain.StrategyRuleBased
	}
}
