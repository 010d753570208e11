package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

const legacyBaseline = `<html><body>
<span style="color: red; font-weight: bold">alpha</span>
<span style="color: blue; font-weight: bold">beta</span>
<span style="color: green; font-weight: bold">gamma</span>
<div style="filter: alpha(opacity=50)">legacy box</div>
<font size="3">old text</font>
<style type="text/css">.x { color: red; }</style>
</body></html>`

const cleanSolution = `<html><body>
<span class="item">alpha</span>
<span class="item">beta</span>
<span class="item">gamma</span>
<div style="margin-top: 10px">legacy box</div>
</body></html>`

func TestStructuralScorer_FullMarks(t *testing.T) {
	scorer := NewStructuralScorer()

	result, err := scorer.Score(context.Background(),
		domain.FileSet{"index.html": legacyBaseline},
		domain.FileSet{"index.html": cleanSolution},
		Context{})
	require.NoError(t, err)

	assert.Equal(t, domain.KindRuleBased, result.Kind)
	assert.Equal(t, 100, result.TotalScore)
	assert.Equal(t, map[string]int{
		CriterionPatternConsolidation: 40,
		CriterionIEHackRemoval:        20,
		CriterionFontTagModernization: 15,
		CriterionStyleBlockCleanup:    15,
		CriterionSmartRetention:       10,
	}, result.Breakdown)
	assert.Contains(t, result.Improvements, "Good job consolidating repetitive patterns!")
}

func TestStructuralScorer_UnchangedSolution(t *testing.T) {
	scorer := NewStructuralScorer()

	files := domain.FileSet{"index.html": legacyBaseline}
	result, err := scorer.Score(context.Background(), files, files, Context{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Breakdown[CriterionPatternConsolidation])
	assert.Equal(t, 0, result.Breakdown[CriterionIEHackRemoval])
	assert.Equal(t, 0, result.Breakdown[CriterionFontTagModernization])
	assert.Equal(t, 0, result.Breakdown[CriterionStyleBlockCleanup])
	assert.Contains(t, result.Improvements, "Consider consolidating 3 remaining repetitive styles")
	assert.Contains(t, result.Improvements, "Remove 1 remaining IE-specific hacks")
	assert.Contains(t, result.Improvements, "Modernize 1 remaining <font> tags")
	assert.Contains(t, result.Improvements, "Move 1 <style> blocks to external CSS")
}

func TestStructuralScorer_PartialConsolidation(t *testing.T) {
	scorer := NewStructuralScorer()

	baseline := domain.FileSet{"a.html": `<div>
<span style="color: red">w</span>
<span style="color: blue">x</span>
<span style="color: green">y</span>
<span style="color: black">z</span>
</div>`}
	solution := domain.FileSet{"a.html": `<div>
<span style="color: red">w</span>
<span style="color: blue">x</span>
<span class="c">y</span>
<span class="c">z</span>
</div>`}

	result, err := scorer.Score(context.Background(), baseline, solution, Context{})
	require.NoError(t, err)

	// 4 repetitive down to 2 is a 50% reduction of the 40-point criterion.
	assert.Equal(t, 20, result.Breakdown[CriterionPatternConsolidation])
}

func TestStructuralScorer_EmptyInputs(t *testing.T) {
	scorer := NewStructuralScorer()

	result, err := scorer.Score(context.Background(), domain.FileSet{}, domain.FileSet{}, Context{})
	require.NoError(t, err)

	// Nothing to fix means nothing was missed.
	assert.Equal(t, 100, result.TotalScore)
}

func TestStructuralScorer_IgnoresNonMarkup(t *testing.T) {
	scorer := NewStructuralScorer()

	baseline := domain.FileSet{
		"readme.md":  `<span style="color: red">a</span><span style="color: blue">b</span>`,
		"styles.css": `.x { color: red; }`,
	}
	result, err := scorer.Score(context.Background(), baseline, domain.FileSet{}, Context{})
	require.NoError(t, err)

	assert.Equal(t, 100, result.TotalScore, "non-markup files carry no style defects")
}

func TestStructuralScorer_RetentionFraction(t *testing.T) {
	scorer := NewStructuralScorer()

	// One legitimate inline style (numeric content) and one gratuitous one.
	solution := domain.FileSet{"a.html": `<div>
<td style="text-align: right">42</td>
<span style="font-size: 9px">label</span>
</div>`}

	result, err := scorer.Score(context.Background(), domain.FileSet{}, solution, Context{})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Breakdown[CriterionSmartRetention])
}
