package domain

import "errors"

// Error taxonomy for evaluation orchestration. NotFound and invalid-input
// errors surface to the caller without mutating state; judge and workspace
// failures are recovered locally by the orchestrator; persistence failures
// are fatal for the current call and safe to retry.
var (
	// ErrEvaluationNotFound indicates the evaluation id does not exist.
	ErrEvaluationNotFound = errors.New("evaluation not found")

	// ErrTaskNotFound indicates the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAgentNotInEvaluation indicates the agent is not a member of the
	// evaluation's agent set.
	ErrAgentNotInEvaluation = errors.New("agent not part of evaluation")

	// ErrAgentResultNotFound indicates no result exists for the
	// (evaluation, agent) pair.
	ErrAgentResultNotFound = errors.New("agent result not found")

	// ErrJudgeUnavailable indicates no judge capability is configured.
	// Strategy selection treats this as a documented degradation to
	// rule-based scoring, not an error.
	ErrJudgeUnavailable = errors.New("judge not configured")

	// ErrInvalidEvaluation indicates an evaluation record failed validation.
	ErrInvalidEvaluation = errors.New("invalid evaluation")
)
