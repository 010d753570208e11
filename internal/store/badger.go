package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// Key layout: one keyspace per record type, results addressed by their
// (evaluation, agent) natural key so the upsert is a plain Set inside a
// transaction.
const (
	taskPrefix   = "task/"
	evalPrefix   = "eval/"
	resultPrefix = "result/"
)

// BadgerConfig holds configuration for the embedded store.
type BadgerConfig struct {
	// Path is the directory for the database files. Ignored when InMemory.
	Path string `json:"path"`

	// InMemory disables disk persistence. Useful for tests.
	InMemory bool `json:"in_memory"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `json:"sync_writes"`
}

// BadgerStore is a ResultStore backed by an embedded Badger database.
// Badger's serializable transactions provide the atomic unit required by the
// evaluation state machine: result upsert plus status update commit together,
// and the completion transition re-reads status inside its own transaction.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) the store at the configured path.
func OpenBadger(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	if cfg.InMemory {
		opts.Dir, opts.ValueDir = "", ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return &BadgerStore{db: db, logger: logger.With("component", "badger_store")}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error { return s.db.Close() }

func taskKey(id string) []byte { return []byte(taskPrefix + id) }

func evalKey(id string) []byte { return []byte(evalPrefix + id) }

func resultKey(evaluationID, agent string) []byte {
	return []byte(resultPrefix + evaluationID + "/" + agent)
}

// PutTask stores a task record.
func (s *BadgerStore) PutTask(_ context.Context, task *domain.Task) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, taskKey(task.ID), task)
	})
}

// GetTask returns the task or domain.ErrTaskNotFound.
func (s *BadgerStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, taskKey(id), &task)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// PutEvaluation stores an evaluation record.
func (s *BadgerStore) PutEvaluation(_ context.Context, ev *domain.Evaluation) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, evalKey(ev.ID), ev)
	})
}

// GetEvaluation returns the evaluation or domain.ErrEvaluationNotFound.
func (s *BadgerStore) GetEvaluation(_ context.Context, id string) (*domain.Evaluation, error) {
	var ev domain.Evaluation
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, evalKey(id), &ev)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrEvaluationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// SetAgentStatus updates one agent's lifecycle status.
func (s *BadgerStore) SetAgentStatus(_ context.Context, evaluationID, agent string, status domain.AgentStatus) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var ev domain.Evaluation
		if err := getJSON(txn, evalKey(evaluationID), &ev); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrEvaluationNotFound
			}
			return err
		}
		if !ev.HasAgent(agent) {
			return domain.ErrAgentNotInEvaluation
		}
		ev.AgentStatus[agent] = status
		ev.UpdatedAt = time.Now().UTC()
		return setJSON(txn, evalKey(ev.ID), &ev)
	})
}

// SaveAgentResult upserts the result and advances the agent's status in a
// single transaction. An existing row keeps its original StartedAt.
func (s *BadgerStore) SaveAgentResult(_ context.Context, result *domain.AgentResult, status domain.AgentStatus) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var ev domain.Evaluation
		if err := getJSON(txn, evalKey(result.EvaluationID), &ev); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrEvaluationNotFound
			}
			return err
		}

		record := *result
		var existing domain.AgentResult
		err := getJSON(txn, resultKey(result.EvaluationID, result.AgentName), &existing)
		switch {
		case err == nil:
			if !existing.StartedAt.IsZero() {
				record.StartedAt = existing.StartedAt
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := setJSON(txn, resultKey(result.EvaluationID, result.AgentName), &record); err != nil {
			return err
		}

		ev.AgentStatus[result.AgentName] = status
		if ev.Status == domain.EvaluationPending {
			ev.Status = domain.EvaluationActive
		}
		ev.UpdatedAt = time.Now().UTC()
		return setJSON(txn, evalKey(ev.ID), &ev)
	})
}

// CompleteEvaluation re-reads the evaluation inside the transaction and
// transitions it at most once. Concurrent redundant attempts are no-ops;
// Badger aborts conflicting transactions, surfacing ErrConflict which the
// caller may retry (a retry will then observe the completed status).
func (s *BadgerStore) CompleteEvaluation(_ context.Context, evaluationID string) (bool, error) {
	transitioned := false
	err := s.db.Update(func(txn *badger.Txn) error {
		var ev domain.Evaluation
		if err := getJSON(txn, evalKey(evaluationID), &ev); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrEvaluationNotFound
			}
			return err
		}
		if ev.Status == domain.EvaluationCompleted || !ev.AllAgentsCompleted() {
			return nil
		}
		ev.Status = domain.EvaluationCompleted
		ev.UpdatedAt = time.Now().UTC()
		transitioned = true
		return setJSON(txn, evalKey(ev.ID), &ev)
	})
	if err != nil {
		return false, err
	}
	return transitioned, nil
}

// FailEvaluation moves the evaluation to the failed sink unless completed.
func (s *BadgerStore) FailEvaluation(_ context.Context, evaluationID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var ev domain.Evaluation
		if err := getJSON(txn, evalKey(evaluationID), &ev); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrEvaluationNotFound
			}
			return err
		}
		if ev.Status == domain.EvaluationCompleted {
			return nil
		}
		ev.Status = domain.EvaluationFailed
		ev.UpdatedAt = time.Now().UTC()
		return setJSON(txn, evalKey(ev.ID), &ev)
	})
}

// ListAgentResults returns results in the evaluation's agent order.
func (s *BadgerStore) ListAgentResults(_ context.Context, evaluationID string) ([]domain.AgentResult, error) {
	var ev domain.Evaluation
	var out []domain.AgentResult

	err := s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, evalKey(evaluationID), &ev); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrEvaluationNotFound
			}
			return err
		}
		for _, agent := range ev.Agents {
			var r domain.AgentResult
			err := getJSON(txn, resultKey(evaluationID, agent), &r)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// setJSON marshals v and writes it under key within the transaction.
func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// getJSON reads key within the transaction and unmarshals into v.
func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
