package evalactivity

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/forgebench/go-gauntlet/internal/domain"
	"github.com/forgebench/go-gauntlet/internal/orchestrator"
	"github.com/forgebench/go-gauntlet/internal/store"
)

type emptyWorkspace struct{}

func (emptyWorkspace) LoadBaseline(context.Context, string) (domain.FileSet, error) {
	return domain.FileSet{}, nil
}

func (emptyWorkspace) LoadSolution(context.Context, string, string) (domain.FileSet, error) {
	return domain.FileSet{}, nil
}

func setup(t *testing.T) (*Activities, *store.MemoryStore, *domain.Evaluation) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	task, err := domain.ParseTaskConfig("css-cleanup", []byte("task:\n  name: CSS Cleanup\n"))
	require.NoError(t, err)
	require.NoError(t, s.PutTask(ctx, task))

	ev, err := domain.NewEvaluation(task.ID, []string{"alpha"})
	require.NoError(t, err)
	require.NoError(t, s.PutEvaluation(ctx, ev))

	orch := orchestrator.New(s, emptyWorkspace{}, nil, nil, nil)
	return NewActivities(orch), s, ev
}

func requireNonRetryable(t *testing.T, err error) {
	t.Helper()
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
}

func TestEvaluateAgent(t *testing.T) {
	acts, _, ev := setup(t)

	result, err := acts.EvaluateAgent(context.Background(), EvaluateAgentInput{
		EvaluationID: ev.ID,
		Agent:        "alpha",
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha", result.AgentName)
	assert.Equal(t, domain.AgentCompleted, result.Status)
}

func TestEvaluateAgent_EmptyInput(t *testing.T) {
	acts, _, _ := setup(t)

	_, err := acts.EvaluateAgent(context.Background(), EvaluateAgentInput{})
	require.Error(t, err)
	requireNonRetryable(t, err)
}

func TestEvaluateAgent_PreconditionFailures(t *testing.T) {
	acts, _, ev := setup(t)

	tests := []struct {
		name  string
		input EvaluateAgentInput
	}{
		{
			name:  "unknown evaluation",
			input: EvaluateAgentInput{EvaluationID: "no-such-id", Agent: "alpha"},
		},
		{
			name:  "agent not in evaluation",
			input: EvaluateAgentInput{EvaluationID: ev.ID, Agent: "intruder"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := acts.EvaluateAgent(context.Background(), tt.input)
			require.Error(t, err)
			requireNonRetryable(t, err)
		})
	}
}

func TestMarkEvaluationFailed(t *testing.T) {
	acts, s, ev := setup(t)
	ctx := context.Background()

	require.NoError(t, acts.MarkEvaluationFailed(ctx, MarkEvaluationFailedInput{EvaluationID: ev.ID}))

	got, err := s.GetEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EvaluationFailed, got.Status)
}

func TestMarkEvaluationFailed_Preconditions(t *testing.T) {
	acts, _, _ := setup(t)

	err := acts.MarkEvaluationFailed(context.Background(), MarkEvaluationFailedInput{})
	require.Error(t, err)
	requireNonRetryable(t, err)

	err = acts.MarkEvaluationFailed(context.Background(), MarkEvaluationFailedInput{EvaluationID: "no-such-id"})
	require.Error(t, err)
	requireNonRetryable(t, err)
}

func TestHeartbeat_TicksUntilStopped(t *testing.T) {
	var beats atomic.Int32
	orig := recordHeartbeat
	recordHeartbeat = func(context.Context, ...any) { beats.Add(1) }
	t.Cleanup(func() { recordHeartbeat = orig })

	stop := heartbeat(context.Background(), time.Millisecond, "alpha")
	assert.Eventually(t, func() bool { return beats.Load() >= 3 }, time.Second, time.Millisecond,
		"heartbeats keep flowing while the evaluation runs")

	stop()
	settled := beats.Load()
	time.Sleep(20 * time.Millisecond)
	// A tick already in flight when stop lands may still be delivered.
	assert.LessOrEqual(t, beats.Load(), settled+1, "no further heartbeats after stop")
}

func TestSafeHeartbeat_OutsideActivityContext(t *testing.T) {
	assert.NotPanics(t, func() {
		safeHeartbeat(context.Background(), "alpha")
	})
}
