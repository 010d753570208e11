// Package workflow orchestrates evaluation runs as Temporal workflows.
// The workflow fans out one scoring activity per agent; the per-agent
// result persistence, lifecycle bookkeeping, and the exactly-once completion
// transition all live behind the activity in the orchestrator and store.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/forgebench/go-gauntlet/internal/evalactivity"
)

// Default activity bounds. A scoring activity includes at most one judge
// call, which is itself bounded, so ten minutes is generous headroom.
const (
	activityTimeout    = 10 * time.Minute
	heartbeatTimeout   = 30 * time.Second
	maxActivityRetries = 3
)

// EvaluationInput starts an evaluation run for the given agents.
type EvaluationInput struct {
	EvaluationID string   `json:"evaluation_id"`
	Agents       []string `json:"agents"`
}

// EvaluationSummary reports the fan-out outcome. A failed agent does not
// fail the run; it is recorded here and its terminal status is persisted by
// the orchestrator path that did execute.
type EvaluationSummary struct {
	EvaluationID string            `json:"evaluation_id"`
	Succeeded    []string          `json:"succeeded"`
	Failed       map[string]string `json:"failed,omitempty"`
}

// EvaluationWorkflow runs one scoring activity per agent, concurrently.
// All workflow code uses workflow-safe APIs only; activity ordering is
// deterministic over the input agent list.
func EvaluationWorkflow(ctx workflow.Context, input EvaluationInput) (*EvaluationSummary, error) {
	// Version gate enables safe evolution and backward compatibility.
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "evaluation.v", workflow.DefaultVersion, currentVersion)

	if input.EvaluationID == "" || len(input.Agents) == 0 {
		return nil, temporal.NewNonRetryableApplicationError(
			"evaluation_id and agents are required", "Validation", nil)
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: activityTimeout,
		HeartbeatTimeout:    heartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    maxActivityRetries,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var acts *evalactivity.Activities

	// Fan out one activity per agent, then collect in input order.
	futures := make([]workflow.Future, len(input.Agents))
	for i, agent := range input.Agents {
		futures[i] = workflow.ExecuteActivity(ctx, acts.EvaluateAgent, evalactivity.EvaluateAgentInput{
			EvaluationID: input.EvaluationID,
			Agent:        agent,
		})
	}

	summary := &EvaluationSummary{EvaluationID: input.EvaluationID}
	logger := workflow.GetLogger(ctx)

	for i, f := range futures {
		agent := input.Agents[i]
		if err := f.Get(ctx, nil); err != nil {
			logger.Error("agent evaluation failed", "agent", agent, "error", err)
			if summary.Failed == nil {
				summary.Failed = make(map[string]string)
			}
			summary.Failed[agent] = err.Error()
			continue
		}
		summary.Succeeded = append(summary.Succeeded, agent)
	}

	// An agent whose activity exhausted its retries has no terminal result,
	// so the evaluation can never reach completed: move it to the failed
	// sink. The store never demotes an already-completed evaluation.
	if len(summary.Failed) > 0 {
		err := workflow.ExecuteActivity(ctx, acts.MarkEvaluationFailed, evalactivity.MarkEvaluationFailedInput{
			EvaluationID: input.EvaluationID,
		}).Get(ctx, nil)
		if err != nil {
			logger.Error("marking evaluation failed", "evaluation_id", input.EvaluationID, "error", err)
		}
	}

	return summary, nil
}
