package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/forgebench/go-gauntlet/internal/domain"
	"github.com/forgebench/go-gauntlet/internal/evalactivity"
)

func TestEvaluationWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	acts := &evalactivity.Activities{}

	t.Run("fans out one activity per agent", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		defer env.AssertExpectations(t)
		env.RegisterActivity(acts.EvaluateAgent)

		for _, agent := range []string{"alpha", "beta"} {
			agent := agent
			env.OnActivity(acts.EvaluateAgent, mock.Anything, evalactivity.EvaluateAgentInput{
				EvaluationID: "eval-1",
				Agent:        agent,
			}).Return(&domain.AgentResult{
				EvaluationID: "eval-1",
				AgentName:    agent,
				Score:        80,
				Status:       domain.AgentCompleted,
			}, nil).Once()
		}

		env.ExecuteWorkflow(EvaluationWorkflow, EvaluationInput{
			EvaluationID: "eval-1",
			Agents:       []string{"alpha", "beta"},
		})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var summary EvaluationSummary
		require.NoError(t, env.GetWorkflowResult(&summary))
		assert.Equal(t, "eval-1", summary.EvaluationID)
		assert.Equal(t, []string{"alpha", "beta"}, summary.Succeeded)
		assert.Empty(t, summary.Failed)
	})

	t.Run("a failed agent does not fail the run", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		defer env.AssertExpectations(t)
		env.RegisterActivity(acts.EvaluateAgent)
		env.RegisterActivity(acts.MarkEvaluationFailed)

		env.OnActivity(acts.EvaluateAgent, mock.Anything, evalactivity.EvaluateAgentInput{
			EvaluationID: "eval-1",
			Agent:        "alpha",
		}).Return(&domain.AgentResult{AgentName: "alpha", Score: 80}, nil).Once()
		env.OnActivity(acts.EvaluateAgent, mock.Anything, evalactivity.EvaluateAgentInput{
			EvaluationID: "eval-1",
			Agent:        "beta",
		}).Return(nil, temporal.NewNonRetryableApplicationError(
			"agent not in evaluation", "EvaluateAgent", errors.New("boom"))).Once()

		// The beta agent will never produce a terminal result, so the run
		// must move the evaluation to the failed sink.
		env.OnActivity(acts.MarkEvaluationFailed, mock.Anything, evalactivity.MarkEvaluationFailedInput{
			EvaluationID: "eval-1",
		}).Return(nil).Once()

		env.ExecuteWorkflow(EvaluationWorkflow, EvaluationInput{
			EvaluationID: "eval-1",
			Agents:       []string{"alpha", "beta"},
		})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var summary EvaluationSummary
		require.NoError(t, env.GetWorkflowResult(&summary))
		assert.Equal(t, []string{"alpha"}, summary.Succeeded)
		require.Contains(t, summary.Failed, "beta")
		assert.Contains(t, summary.Failed["beta"], "agent not in evaluation")
	})

	t.Run("empty input fails validation", func(t *testing.T) {
		tests := []struct {
			name  string
			input EvaluationInput
		}{
			{name: "missing evaluation id", input: EvaluationInput{Agents: []string{"alpha"}}},
			{name: "missing agents", input: EvaluationInput{EvaluationID: "eval-1"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := testSuite.NewTestWorkflowEnvironment()
				defer env.AssertExpectations(t)

				env.ExecuteWorkflow(EvaluationWorkflow, tt.input)

				require.True(t, env.IsWorkflowCompleted())
				err := env.GetWorkflowError()
				require.Error(t, err)

				var appErr *temporal.ApplicationError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, "Validation", appErr.Type())
				assert.True(t, appErr.NonRetryable())
			})
		}
	})
}
