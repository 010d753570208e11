// Package domain provides the core types and business rules for agent
// evaluation runs. It defines tasks with weighted scoring rubrics, evaluation
// lifecycle state, and per-agent results. The types are designed to keep
// evaluation history append-only and auditable.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EvalStrategy selects how an agent's solution is scored.
// Using typed constants instead of raw strings provides compile-time safety
// and enables exhaustive switch statements in the scorer dispatch.
type EvalStrategy string

const (
	// StrategyRuleBased scores solutions with the deterministic structural scorer.
	StrategyRuleBased EvalStrategy = "rule_based"

	// StrategyAIJudge delegates scoring to an external judge model.
	StrategyAIJudge EvalStrategy = "ai_judge"

	// StrategyHybrid blends rule-based and judge scores at a fixed 70/30 weighting.
	StrategyHybrid EvalStrategy = "hybrid"
)

// ParseStrategy maps a task configuration string to an EvalStrategy.
// Unknown or empty values fall back to rule-based scoring, matching the
// default behavior of task authoring.
func ParseStrategy(s string) EvalStrategy {
	switch EvalStrategy(s) {
	case StrategyAIJudge:
		return StrategyAIJudge
	case StrategyHybrid:
		return StrategyHybrid
	default:
		return StrategyRuleBased
	}
}

// RubricCriterion is one weighted sub-score dimension of a task's rubric.
// Weights are 1-100 and cap the score contribution of the criterion; the
// weights of a rubric need not sum to 100.
type RubricCriterion struct {
	Name        string `json:"name" validate:"required,min=1"`
	Weight      int    `json:"weight" validate:"required,min=1,max=100"`
	Description string `json:"description"`
}

// Task is an immutable-once-created unit of work that agents solve.
// Tasks are read-only after authoring except for soft deactivation.
type Task struct {
	// ID is the task slug, unique across the catalog.
	ID string `json:"id" validate:"required,min=1"`

	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// Rubric is the ordered set of weighted criteria. Order is preserved
	// from the task configuration document.
	Rubric []RubricCriterion `json:"rubric"`

	// Strategy selects rule-based, AI-judge, or hybrid scoring.
	Strategy EvalStrategy `json:"strategy" validate:"required,oneof=rule_based ai_judge hybrid"`

	// JudgeModel optionally pins the judge model for ai_judge/hybrid tasks.
	// Empty means the service default model is used.
	JudgeModel string `json:"judge_model,omitempty"`

	// JudgePromptTemplate is appended to the judge prompt as additional
	// evaluation guidelines when present.
	JudgePromptTemplate string `json:"judge_prompt_template,omitempty"`

	// AgentPrompts maps agent name to the prompt text given to that agent.
	AgentPrompts map[string]string `json:"agent_prompts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Active is the soft-deactivation flag; inactive tasks cannot start
	// new evaluations but their history remains readable.
	Active bool `json:"active"`
}

// ErrInvalidTaskConfig indicates that a task configuration document failed
// to parse or violated a structural constraint.
var ErrInvalidTaskConfig = errors.New("invalid task config")

// validate is the package-level validator instance used for struct validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the task meets all structural requirements.
func (t *Task) Validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}
	for i := range t.Rubric {
		if err := validate.Struct(&t.Rubric[i]); err != nil {
			return fmt.Errorf("rubric criterion %q: %w", t.Rubric[i].Name, err)
		}
	}
	return nil
}

// AgentPrompt returns the prompt text configured for an agent, or a generic
// instruction when the task does not define one.
func (t *Task) AgentPrompt(agent string) string {
	if p, ok := t.AgentPrompts[agent]; ok && p != "" {
		return p
	}
	return "Complete the task as described."
}

// taskConfigDoc mirrors the on-disk config.yaml layout of a task.
// evaluation.scoring is decoded through a yaml.Node so rubric order follows
// document order rather than map iteration order.
type taskConfigDoc struct {
	Task struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Category    string `yaml:"category"`
	} `yaml:"task"`
	Evaluation struct {
		Type    string    `yaml:"type"`
		Scoring yaml.Node `yaml:"scoring"`
	} `yaml:"evaluation"`
	AIJudge struct {
		Model          string `yaml:"model"`
		PromptTemplate string `yaml:"prompt_template"`
	} `yaml:"ai_judge"`
	Agents map[string]string `yaml:"agents"`
}

// criterionDoc is the value shape of one evaluation.scoring entry.
type criterionDoc struct {
	Weight      int    `yaml:"weight"`
	Description string `yaml:"description"`
}

// ParseTaskConfig parses a task configuration document into a Task.
// The document's evaluation.scoring mapping becomes the ordered rubric;
// unknown evaluation types degrade to rule_based.
func ParseTaskConfig(id string, data []byte) (*Task, error) {
	var doc taskConfigDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTaskConfig, err)
	}

	rubric, err := parseRubric(&doc.Evaluation.Scoring)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTaskConfig, err)
	}

	now := time.Now().UTC()
	task := &Task{
		ID:                  id,
		Name:                doc.Task.Name,
		Description:         doc.Task.Description,
		Category:            doc.Task.Category,
		Rubric:              rubric,
		Strategy:            ParseStrategy(doc.Evaluation.Type),
		JudgeModel:          doc.AIJudge.Model,
		JudgePromptTemplate: doc.AIJudge.PromptTemplate,
		AgentPrompts:        doc.Agents,
		CreatedAt:           now,
		UpdatedAt:           now,
		Active:              true,
	}
	if task.Name == "" {
		task.Name = id
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTaskConfig, err)
	}
	return task, nil
}

// parseRubric walks the scoring mapping node in document order.
func parseRubric(node *yaml.Node) ([]RubricCriterion, error) {
	if node == nil || node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("evaluation.scoring must be a mapping, got %s", node.Tag)
	}

	rubric := make([]RubricCriterion, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var crit criterionDoc
		if err := node.Content[i+1].Decode(&crit); err != nil {
			return nil, fmt.Errorf("criterion %q: %w", node.Content[i].Value, err)
		}
		rubric = append(rubric, RubricCriterion{
			Name:        node.Content[i].Value,
			Weight:      crit.Weight,
			Description: crit.Description,
		})
	}
	return rubric, nil
}
