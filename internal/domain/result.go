package domain

import (
	"math"
	"time"
)

// ScorerKind tags which scoring strategy produced a ScoreResult.
type ScorerKind string

const (
	KindRuleBased ScorerKind = "rule_based"
	KindAIJudge   ScorerKind = "ai_judge"
	KindHybrid    ScorerKind = "hybrid"
)

// Kind maps an evaluation strategy to the scorer-kind tag its results carry.
func (s EvalStrategy) Kind() ScorerKind {
	switch s {
	case StrategyAIJudge:
		return KindAIJudge
	case StrategyHybrid:
		return KindHybrid
	default:
		return KindRuleBased
	}
}

// Breakdown keys used by hybrid results in addition to rubric criterion names.
const (
	BreakdownRuleBased = "rule_based_score"
	BreakdownAIJudge   = "ai_judge_score"
	BreakdownCombined  = "combined_score"
)

// ScoreResult is the uniform output shape shared by every scoring strategy.
// Rule-based, judge, and hybrid scorers all normalize into this shape so the
// orchestrator can persist results without caring which path produced them.
type ScoreResult struct {
	// Kind tags the strategy that produced this result.
	Kind ScorerKind `json:"kind"`

	// TotalScore is the overall score, clamped to [0, 100].
	TotalScore int `json:"total_score"`

	// Breakdown maps criterion names (or the hybrid breakdown keys) to
	// their score contribution.
	Breakdown map[string]int `json:"breakdown"`

	// Feedback is free-text commentary on the solution.
	Feedback string `json:"feedback,omitempty"`

	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`

	// Details carries scorer-specific payloads, e.g. the structural
	// scorer's baseline and solution analyses.
	Details map[string]any `json:"details,omitempty"`

	// Err is set when the scorer recovered from a failure (judge timeout,
	// unparseable response). The result is still valid and persistable.
	Err string `json:"error,omitempty"`
}

// AgentResult is the persisted scoring outcome for one (evaluation, agent)
// pair. At most one row exists per pair: re-evaluating an agent updates the
// existing result in place.
type AgentResult struct {
	EvaluationID string `json:"evaluation_id" validate:"required,min=1"`
	AgentName    string `json:"agent_name" validate:"required,min=1"`

	// Score is the final numeric score, clamped to [0, 100].
	Score int `json:"score" validate:"min=0,max=100"`

	Breakdown    map[string]int `json:"breakdown,omitempty"`
	Feedback     string         `json:"feedback,omitempty"`
	Strengths    []string       `json:"strengths,omitempty"`
	Improvements []string       `json:"improvements,omitempty"`

	// Output is the full score result for audit purposes.
	Output *ScoreResult `json:"output,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	Status AgentStatus `json:"status" validate:"required"`
}

// Validate checks that the result meets all structural requirements.
func (r *AgentResult) Validate() error { return validate.Struct(r) }

// ClampScore bounds a score to the valid [0, 100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RoundScore converts a fractional score to the nearest integer.
func RoundScore(score float64) int {
	return int(math.Round(score))
}

// FileSet maps relative file paths to their text content. It is the artifact
// shape handed from workspace providers to scorers.
type FileSet map[string]string
