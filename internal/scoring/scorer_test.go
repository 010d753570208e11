package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

func TestSelect(t *testing.T) {
	structural := NewStructuralScorer()
	judge := NewJudgeScorer(&stubJudge{response: "{}"}, "m", nil)

	tests := []struct {
		name         string
		strategy     domain.EvalStrategy
		judge        *JudgeScorer
		wantStrategy domain.EvalStrategy
		wantType     any
	}{
		{
			name:         "rule based",
			strategy:     domain.StrategyRuleBased,
			judge:        judge,
			wantStrategy: domain.StrategyRuleBased,
			wantType:     &StructuralScorer{},
		},
		{
			name:         "ai judge",
			strategy:     domain.StrategyAIJudge,
			judge:        judge,
			wantStrategy: domain.StrategyAIJudge,
			wantType:     &JudgeScorer{},
		},
		{
			name:         "hybrid",
			strategy:     domain.StrategyHybrid,
			judge:        judge,
			wantStrategy: domain.StrategyHybrid,
			wantType:     &HybridScorer{},
		},
		{
			name:         "ai judge degrades without judge",
			strategy:     domain.StrategyAIJudge,
			judge:        nil,
			wantStrategy: domain.StrategyRuleBased,
			wantType:     &StructuralScorer{},
		},
		{
			name:         "hybrid degrades without judge",
			strategy:     domain.StrategyHybrid,
			judge:        nil,
			wantStrategy: domain.StrategyRuleBased,
			wantType:     &StructuralScorer{},
		},
		{
			name:         "unknown strategy uses rule based",
			strategy:     domain.EvalStrategy("bogus"),
			judge:        judge,
			wantStrategy: domain.StrategyRuleBased,
			wantType:     &StructuralScorer{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer, effective := Select(tt.strategy, structural, tt.judge, nil)
			assert.Equal(t, tt.wantStrategy, effective)
			assert.IsType(t, tt.wantType, scorer)
		})
	}
}
