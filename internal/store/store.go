// Package store persists evaluation state: tasks, evaluation lifecycle
// records, and per-agent results. Two implementations are provided, an
// embedded Badger store for production and an in-memory store for tests and
// development. Both honor the same transactional contract.
package store

import (
	"context"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// ResultStore is the persistence port of the orchestrator. Every method is
// transactional per call.
//
// Two operations carry the concurrency contract of the evaluation state
// machine:
//
//   - SaveAgentResult upserts a result by its (evaluation, agent) natural key
//     and sets the agent's status in the same atomic unit, so two concurrent
//     calls for the same agent can never produce duplicate rows.
//   - CompleteEvaluation re-reads the evaluation inside its transaction and
//     transitions it to completed only when every agent is completed and the
//     evaluation is not already completed. It reports whether this call
//     performed the transition, which the caller uses to fire the comparison
//     report exactly once.
type ResultStore interface {
	PutTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	PutEvaluation(ctx context.Context, ev *domain.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*domain.Evaluation, error)

	// SetAgentStatus updates one agent's lifecycle status without touching
	// its result, e.g. marking it evaluating while scoring runs.
	SetAgentStatus(ctx context.Context, evaluationID, agent string, status domain.AgentStatus) error

	// SaveAgentResult upserts the result and sets the agent's status as one
	// atomic unit. A pending evaluation becomes active on the first result.
	// An update preserves the original StartedAt of the existing row.
	SaveAgentResult(ctx context.Context, result *domain.AgentResult, status domain.AgentStatus) error

	// CompleteEvaluation performs the guarded, idempotent completion
	// transition. transitioned is true only for the single call that moved
	// the evaluation to completed.
	CompleteEvaluation(ctx context.Context, evaluationID string) (transitioned bool, err error)

	// FailEvaluation moves the evaluation to the failed sink. No-op when the
	// evaluation is already completed.
	FailEvaluation(ctx context.Context, evaluationID string) error

	// ListAgentResults returns all results for an evaluation, ordered by the
	// evaluation's agent list.
	ListAgentResults(ctx context.Context, evaluationID string) ([]domain.AgentResult, error)
}
