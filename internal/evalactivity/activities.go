// Package evalactivity exposes the evaluation orchestrator as a Temporal
// activity. The activity boundary classifies orchestration errors:
// precondition violations are non-retryable, persistence failures are
// retryable because the orchestrator's evaluate call is safe to repeat.
package evalactivity

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/forgebench/go-gauntlet/internal/domain"
	"github.com/forgebench/go-gauntlet/internal/orchestrator"
)

// heartbeatInterval keeps long evaluations (a judge call alone may run for
// minutes) alive well within the workflow's heartbeat timeout.
const heartbeatInterval = 10 * time.Second

var recordHeartbeat = activity.RecordHeartbeat

// EvaluateAgentInput identifies one (evaluation, agent) scoring unit.
type EvaluateAgentInput struct {
	EvaluationID string `json:"evaluation_id"`
	Agent        string `json:"agent"`
}

// Activities handles evaluation-specific Temporal activities.
type Activities struct {
	orch *orchestrator.Orchestrator
}

// NewActivities creates evaluation activities around the orchestrator.
func NewActivities(orch *orchestrator.Orchestrator) *Activities {
	return &Activities{orch: orch}
}

// EvaluateAgent scores one agent's solution and records the outcome.
// NotFound and invalid-agent preconditions fail non-retryably; everything
// else (persistence) is left retryable so the worker can repeat the call.
func (a *Activities) EvaluateAgent(ctx context.Context, input EvaluateAgentInput) (*domain.AgentResult, error) {
	if input.EvaluationID == "" || input.Agent == "" {
		return nil, nonRetryable("EvaluateAgent", nil, "evaluation_id and agent are required")
	}

	safeLog(ctx, "starting agent evaluation",
		"evaluation_id", input.EvaluationID, "agent", input.Agent)

	safeHeartbeat(ctx, "evaluation started")
	stop := heartbeat(ctx, heartbeatInterval, input.Agent)
	defer stop()

	result, err := a.orch.Evaluate(ctx, input.EvaluationID, input.Agent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEvaluationNotFound),
			errors.Is(err, domain.ErrTaskNotFound),
			errors.Is(err, domain.ErrAgentNotInEvaluation):
			return nil, nonRetryable("EvaluateAgent", err, err.Error())
		default:
			return nil, err // retryable, e.g. persistence failure
		}
	}

	safeLog(ctx, "agent evaluation completed",
		"evaluation_id", input.EvaluationID, "agent", input.Agent, "score", result.Score)
	return result, nil
}

// MarkEvaluationFailedInput identifies the evaluation to move to the failed
// sink.
type MarkEvaluationFailedInput struct {
	EvaluationID string `json:"evaluation_id"`
}

// MarkEvaluationFailed transitions an evaluation that can no longer complete
// to the failed sink. A completed evaluation is never demoted; the store
// guards that transition.
func (a *Activities) MarkEvaluationFailed(ctx context.Context, input MarkEvaluationFailedInput) error {
	if input.EvaluationID == "" {
		return nonRetryable("MarkEvaluationFailed", nil, "evaluation_id is required")
	}

	err := a.orch.Fail(ctx, input.EvaluationID)
	if errors.Is(err, domain.ErrEvaluationNotFound) {
		return nonRetryable("MarkEvaluationFailed", err, err.Error())
	}
	if err != nil {
		return err
	}

	safeLog(ctx, "evaluation marked failed", "evaluation_id", input.EvaluationID)
	return nil
}

// nonRetryable wraps an error as a Temporal application error that will not
// be retried.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}

// safeLog logs through the activity logger, tolerating non-activity contexts
// (unit tests) where activity.GetLogger would panic.
func safeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// safeHeartbeat records an activity heartbeat, tolerating non-activity
// contexts where activity.RecordHeartbeat would panic.
func safeHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	recordHeartbeat(ctx, details...)
}

// heartbeat emits heartbeats every interval until the returned stop function
// is called or the context ends. The activity body stays synchronous; only
// the liveness signal runs in the background.
func heartbeat(ctx context.Context, interval time.Duration, details ...any) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				safeHeartbeat(ctx, details...)
			}
		}
	}()
	return func() { close(done) }
}
