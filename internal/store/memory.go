package store

import (
	"context"
	"sync"
	"time"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// MemoryStore is an in-memory ResultStore for tests and development.
// A single mutex scopes every operation, which trivially satisfies the
// per-call transactional contract.
type MemoryStore struct {
	mu      sync.Mutex
	tasks   map[string]*domain.Task
	evals   map[string]*domain.Evaluation
	results map[string]map[string]*domain.AgentResult // evaluation id -> agent -> result
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:   make(map[string]*domain.Task),
		evals:   make(map[string]*domain.Evaluation),
		results: make(map[string]map[string]*domain.AgentResult),
	}
}

// PutTask stores a task.
func (s *MemoryStore) PutTask(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

// GetTask returns the task or domain.ErrTaskNotFound.
func (s *MemoryStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

// PutEvaluation stores an evaluation record.
func (s *MemoryStore) PutEvaluation(_ context.Context, ev *domain.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evals[ev.ID] = ev.Clone()
	return nil
}

// GetEvaluation returns a copy of the evaluation or domain.ErrEvaluationNotFound.
func (s *MemoryStore) GetEvaluation(_ context.Context, id string) (*domain.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.evals[id]
	if !ok {
		return nil, domain.ErrEvaluationNotFound
	}
	return ev.Clone(), nil
}

// SetAgentStatus updates one agent's lifecycle status.
func (s *MemoryStore) SetAgentStatus(_ context.Context, evaluationID, agent string, status domain.AgentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[evaluationID]
	if !ok {
		return domain.ErrEvaluationNotFound
	}
	if !ev.HasAgent(agent) {
		return domain.ErrAgentNotInEvaluation
	}
	ev.AgentStatus[agent] = status
	ev.UpdatedAt = time.Now().UTC()
	return nil
}

// SaveAgentResult upserts the result by natural key and updates the agent's
// status under the same lock.
func (s *MemoryStore) SaveAgentResult(_ context.Context, result *domain.AgentResult, status domain.AgentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[result.EvaluationID]
	if !ok {
		return domain.ErrEvaluationNotFound
	}

	byAgent := s.results[result.EvaluationID]
	if byAgent == nil {
		byAgent = make(map[string]*domain.AgentResult)
		s.results[result.EvaluationID] = byAgent
	}

	cp := *result
	if existing, ok := byAgent[result.AgentName]; ok && !existing.StartedAt.IsZero() {
		cp.StartedAt = existing.StartedAt
	}
	byAgent[result.AgentName] = &cp

	ev.AgentStatus[result.AgentName] = status
	if ev.Status == domain.EvaluationPending {
		ev.Status = domain.EvaluationActive
	}
	ev.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteEvaluation performs the guarded completion transition.
func (s *MemoryStore) CompleteEvaluation(_ context.Context, evaluationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[evaluationID]
	if !ok {
		return false, domain.ErrEvaluationNotFound
	}
	if ev.Status == domain.EvaluationCompleted || !ev.AllAgentsCompleted() {
		return false, nil
	}
	ev.Status = domain.EvaluationCompleted
	ev.UpdatedAt = time.Now().UTC()
	return true, nil
}

// FailEvaluation moves the evaluation to the failed sink.
func (s *MemoryStore) FailEvaluation(_ context.Context, evaluationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[evaluationID]
	if !ok {
		return domain.ErrEvaluationNotFound
	}
	if ev.Status == domain.EvaluationCompleted {
		return nil
	}
	ev.Status = domain.EvaluationFailed
	ev.UpdatedAt = time.Now().UTC()
	return nil
}

// ListAgentResults returns results in the evaluation's agent order.
func (s *MemoryStore) ListAgentResults(_ context.Context, evaluationID string) ([]domain.AgentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[evaluationID]
	if !ok {
		return nil, domain.ErrEvaluationNotFound
	}

	out := make([]domain.AgentResult, 0, len(ev.Agents))
	for _, agent := range ev.Agents {
		if r, ok := s.results[evaluationID][agent]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}
