package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

func TestRenderComparisonReport(t *testing.T) {
	ranked := []domain.AgentResult{
		{AgentName: "alpha", Score: 95, Feedback: "Excellent consolidation."},
		{AgentName: "beta", Score: 80},
		{AgentName: "gamma", Score: 60},
		{AgentName: "delta", Score: 10},
	}

	report := RenderComparisonReport("eval-123", ranked)

	assert.Contains(t, report, "# Evaluation Results: eval-123")
	assert.Contains(t, report, "1. 🥇 **alpha**: 95/100")
	assert.Contains(t, report, "   - Excellent consolidation.")
	assert.Contains(t, report, "2. 🥈 **beta**: 80/100")
	assert.Contains(t, report, "3. 🥉 **gamma**: 60/100")
	assert.Contains(t, report, "4. **delta**: 10/100", "only the top three get medals")
}

func TestRenderComparisonReport_Empty(t *testing.T) {
	report := RenderComparisonReport("eval-123", nil)
	assert.Contains(t, report, "## Rankings")
}

func TestFSReportSink_Publish(t *testing.T) {
	dir := t.TempDir()
	sink := NewFSReportSink(dir)

	ranked := []domain.AgentResult{{AgentName: "alpha", Score: 88}}
	require.NoError(t, sink.Publish(context.Background(), "eval-42", ranked))

	data, err := os.ReadFile(filepath.Join(dir, "eval-42", "comparison_report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "🥇 **alpha**: 88/100")
}
