package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// Rubric criteria of the structural scorer with their maximum contributions.
const (
	CriterionPatternConsolidation = "pattern_consolidation"
	CriterionIEHackRemoval        = "ie_hack_removal"
	CriterionFontTagModernization = "font_tag_modernization"
	CriterionStyleBlockCleanup    = "style_block_cleanup"
	CriterionSmartRetention       = "smart_retention"

	maxConsolidation  = 40
	maxIEHackRemoval  = 20
	maxFontTag        = 15
	maxStyleBlock     = 15
	maxSmartRetention = 10
)

// StructuralScorer scores a solution against its baseline by style
// consolidation analysis. It is stateless: every Score call builds fresh
// catalogs, so concurrent evaluations never share scratch state.
type StructuralScorer struct{}

// NewStructuralScorer returns the rule-based structural scorer.
func NewStructuralScorer() *StructuralScorer { return &StructuralScorer{} }

// Score analyzes the baseline and solution file sets independently and
// applies the five-criterion weighted rubric. The result is a pure function
// of the two inputs; non-markup files are ignored. Never returns an error.
func (s *StructuralScorer) Score(_ context.Context, baseline, solution domain.FileSet, _ Context) (*domain.ScoreResult, error) {
	baseAnalysis := analyzeFileSet(baseline)
	solAnalysis := analyzeFileSet(solution)

	breakdown := map[string]int{
		CriterionPatternConsolidation: consolidationScore(baseAnalysis, solAnalysis),
		CriterionIEHackRemoval:        binaryCriterion(baseAnalysis.IEHacks, solAnalysis.IEHacks, maxIEHackRemoval),
		CriterionFontTagModernization: binaryCriterion(baseAnalysis.FontTags, solAnalysis.FontTags, maxFontTag),
		CriterionStyleBlockCleanup:    binaryCriterion(baseAnalysis.StyleBlocks, solAnalysis.StyleBlocks, maxStyleBlock),
		CriterionSmartRetention:       retentionScore(solAnalysis),
	}

	total := 0
	for _, v := range breakdown {
		total += v
	}

	return &domain.ScoreResult{
		Kind:         domain.KindRuleBased,
		TotalScore:   domain.ClampScore(total),
		Breakdown:    breakdown,
		Improvements: improvements(baseAnalysis, solAnalysis),
		Details: map[string]any{
			"baseline": baseAnalysis,
			"solution": solAnalysis,
		},
	}, nil
}

// analyzeFileSet runs a fresh catalog over the markup files of a set.
// Files are visited in sorted path order so signature encounter order, and
// therefore pattern tie-breaking, is deterministic.
func analyzeFileSet(files domain.FileSet) Analysis {
	catalog := NewCatalog()

	paths := make([]string, 0, len(files))
	for p := range files {
		if isMarkup(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	for _, p := range paths {
		catalog.AddMarkup(files[p])
	}
	return catalog.Analyze()
}

// isMarkup reports whether the path names a file the catalog can scan.
func isMarkup(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

// consolidationScore rewards reducing repetitive style count relative to the
// baseline. A baseline with nothing to consolidate earns the full score.
func consolidationScore(baseline, solution Analysis) int {
	if baseline.Repetitive == 0 {
		return maxConsolidation
	}
	rate := math.Max(0, float64(baseline.Repetitive-solution.Repetitive)/float64(baseline.Repetitive))
	return int(math.Round(rate * maxConsolidation))
}

// binaryCriterion awards the full weight when the defect class was fully
// eliminated, or was absent from the baseline to begin with. Partial removal
// earns nothing.
func binaryCriterion(baselineCount, solutionCount, weight int) int {
	if baselineCount == 0 || solutionCount == 0 {
		return weight
	}
	return 0
}

// retentionScore rewards keeping only legitimately inline styles: of the
// solution's remaining inline styles, the data-driven and positioning
// fraction scaled to the criterion weight. Zero remaining styles earn the
// full score.
func retentionScore(solution Analysis) int {
	if solution.TotalInlineStyles == 0 {
		return maxSmartRetention
	}
	legitimate := solution.DataDriven + solution.Positioning
	ratio := float64(legitimate) / float64(solution.TotalInlineStyles)
	return int(math.Round(ratio * maxSmartRetention))
}

// improvements derives human-readable suggestions from the baseline/solution
// count comparison.
func improvements(baseline, solution Analysis) []string {
	var out []string

	if float64(solution.Repetitive) > float64(baseline.Repetitive)*0.2 {
		out = append(out, fmt.Sprintf("Consider consolidating %d remaining repetitive styles", solution.Repetitive))
	}
	if solution.IEHacks > 0 {
		out = append(out, fmt.Sprintf("Remove %d remaining IE-specific hacks", solution.IEHacks))
	}
	if solution.FontTags > 0 {
		out = append(out, fmt.Sprintf("Modernize %d remaining <font> tags", solution.FontTags))
	}
	if solution.StyleBlocks > 0 {
		out = append(out, fmt.Sprintf("Move %d <style> blocks to external CSS", solution.StyleBlocks))
	}

	if float64(solution.Repetitive) < float64(baseline.Repetitive)*0.8 {
		out = append(out, "Good job consolidating repetitive patterns!")
	}
	if float64(solution.DataDriven) >= float64(baseline.DataDriven)*0.8 {
		out = append(out, "Excellent retention of data-driven styles!")
	}

	return out
}
