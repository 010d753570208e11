package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EvaluationStatus tracks the lifecycle of a whole evaluation run.
type EvaluationStatus string

const (
	// EvaluationPending means no agent has started scoring yet.
	EvaluationPending EvaluationStatus = "pending"

	// EvaluationActive means at least one agent result has landed.
	EvaluationActive EvaluationStatus = "active"

	// EvaluationCompleted is terminal; it is entered exactly once, when
	// every agent in the run has a completed result.
	EvaluationCompleted EvaluationStatus = "completed"

	// EvaluationFailed is a sink for unrecoverable orchestration errors.
	// A single agent's scoring failure does not fail the evaluation.
	EvaluationFailed EvaluationStatus = "failed"
)

// AgentStatus tracks one agent's progress within an evaluation.
type AgentStatus string

const (
	AgentPending AgentStatus = "pending"
	// AgentReady marks a submitted solution awaiting evaluation. It is set by
	// external submission tooling, never by the orchestrator.
	AgentReady      AgentStatus = "ready"
	AgentEvaluating AgentStatus = "evaluating"
	AgentCompleted  AgentStatus = "completed"
	AgentFailed     AgentStatus = "failed"
)

// Terminal reports whether the status is terminal for the agent.
func (s AgentStatus) Terminal() bool {
	return s == AgentCompleted || s == AgentFailed
}

// Evaluation is one run of a Task against a set of agents. It references the
// task rather than owning it, and is never deleted: evaluation history is
// append-only.
type Evaluation struct {
	// ID uniquely identifies this evaluation run using UUID format.
	ID string `json:"id" validate:"required,uuid"`

	// TaskID references the task being evaluated.
	TaskID string `json:"task_id" validate:"required,min=1"`

	// Agents is the ordered set of agent identifiers taking part in this
	// run. Order is significant: it breaks ranking ties in the comparison
	// report. Entries are unique.
	Agents []string `json:"agents" validate:"required,min=1,unique"`

	Status EvaluationStatus `json:"status" validate:"required,oneof=pending active completed failed"`

	// AgentStatus maps each agent to its per-agent lifecycle state.
	AgentStatus map[string]AgentStatus `json:"agent_status"`

	// Metadata holds free-form key-value pairs for tracking and auditing.
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEvaluation creates a pending evaluation for the given task and agents.
// Every agent starts in AgentPending.
func NewEvaluation(taskID string, agents []string) (*Evaluation, error) {
	now := time.Now().UTC()
	ev := &Evaluation{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		Agents:      append([]string(nil), agents...),
		Status:      EvaluationPending,
		AgentStatus: make(map[string]AgentStatus, len(agents)),
		Metadata:    make(map[string]string),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, a := range agents {
		ev.AgentStatus[a] = AgentPending
	}

	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvaluation, err)
	}
	return ev, nil
}

// Validate checks that the evaluation meets all structural requirements.
func (e *Evaluation) Validate() error { return validate.Struct(e) }

// HasAgent reports whether the agent is a member of this evaluation.
func (e *Evaluation) HasAgent(agent string) bool {
	for _, a := range e.Agents {
		if a == agent {
			return true
		}
	}
	return false
}

// AllAgentsCompleted reports whether every agent in the run has reached
// AgentCompleted. This is the completion condition for the whole evaluation.
func (e *Evaluation) AllAgentsCompleted() bool {
	for _, a := range e.Agents {
		if e.AgentStatus[a] != AgentCompleted {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Stores hand out clones so callers cannot
// mutate shared state.
func (e *Evaluation) Clone() *Evaluation {
	cp := *e
	cp.Agents = append([]string(nil), e.Agents...)
	cp.AgentStatus = make(map[string]AgentStatus, len(e.AgentStatus))
	for k, v := range e.AgentStatus {
		cp.AgentStatus[k] = v
	}
	cp.Metadata = cloneStringMap(e.Metadata)
	return &cp
}

// cloneStringMap creates a copy of a string map. Returns nil for nil input.
func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
