package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampScore(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  int
	}{
		{name: "negative clamps to zero", score: -5, want: 0},
		{name: "zero passes", score: 0, want: 0},
		{name: "in range passes", score: 73, want: 73},
		{name: "max passes", score: 100, want: 100},
		{name: "over max clamps", score: 140, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampScore(tt.score))
		})
	}
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 70, RoundScore(69.5))
	assert.Equal(t, 69, RoundScore(69.4))
	assert.Equal(t, -1, RoundScore(-0.6))
}

func TestEvalStrategy_Kind(t *testing.T) {
	assert.Equal(t, KindRuleBased, StrategyRuleBased.Kind())
	assert.Equal(t, KindAIJudge, StrategyAIJudge.Kind())
	assert.Equal(t, KindHybrid, StrategyHybrid.Kind())
	assert.Equal(t, KindRuleBased, EvalStrategy("bogus").Kind())
}
