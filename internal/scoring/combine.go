package scoring

import (
	"context"
	"fmt"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// Fixed hybrid weighting: rule-based carries 70%, judge 30%.
const (
	ruleWeight  = 0.7
	judgeWeight = 0.3
)

// Combine merges a rule-based and a judge result under the fixed 70/30
// policy. The breakdown keeps both sub-scores and the combined value under
// distinct keys; improvements are concatenated without dedup; strengths pass
// through from the judge only, since the rule-based scorer has no strengths
// concept.
func Combine(rule, judge *domain.ScoreResult) *domain.ScoreResult {
	combined := domain.ClampScore(domain.RoundScore(
		ruleWeight*float64(rule.TotalScore) + judgeWeight*float64(judge.TotalScore)))

	improvements := make([]string, 0, len(rule.Improvements)+len(judge.Improvements))
	improvements = append(improvements, rule.Improvements...)
	improvements = append(improvements, judge.Improvements...)

	return &domain.ScoreResult{
		Kind:       domain.KindHybrid,
		TotalScore: combined,
		Breakdown: map[string]int{
			domain.BreakdownRuleBased: rule.TotalScore,
			domain.BreakdownAIJudge:   judge.TotalScore,
			domain.BreakdownCombined:  combined,
		},
		Feedback: fmt.Sprintf("Rule-based: %d/100, AI Judge: %d/100",
			rule.TotalScore, judge.TotalScore),
		Strengths:    judge.Strengths,
		Improvements: improvements,
		Details: map[string]any{
			"rule_based": rule,
			"ai_judge":   judge,
		},
	}
}

// HybridScorer runs the structural and judge scorers over the same inputs
// and combines their results. The judge side never fails the hybrid run: a
// judge failure is already folded into a zero-score sub-result.
type HybridScorer struct {
	Rule  *StructuralScorer
	Judge *JudgeScorer
}

// Score evaluates both strategies and merges them.
func (h *HybridScorer) Score(ctx context.Context, baseline, solution domain.FileSet, sc Context) (*domain.ScoreResult, error) {
	ruleResult, err := h.Rule.Score(ctx, baseline, solution, sc)
	if err != nil {
		return nil, err
	}
	judgeResult, err := h.Judge.Score(ctx, baseline, solution, sc)
	if err != nil {
		return nil, err
	}
	return Combine(ruleResult, judgeResult), nil
}
