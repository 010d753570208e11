// Package worker exposes helpers to register workflows/activities with a
// Temporal worker and to initialize their dependencies from configuration.
package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/forgebench/go-gauntlet/internal/evalactivity"
	"github.com/forgebench/go-gauntlet/internal/workflow"
)

// RegisterAll registers the evaluation workflow and its activities with the
// Temporal worker. Must be called once during worker startup before the
// worker runs; registration is not thread-safe.
func RegisterAll(w sdkworker.Worker, acts *evalactivity.Activities) {
	w.RegisterWorkflow(workflow.EvaluationWorkflow)
	w.RegisterActivity(acts.EvaluateAgent)
	w.RegisterActivity(acts.MarkEvaluationFailed)
}
