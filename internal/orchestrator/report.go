package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgebench/go-gauntlet/internal/domain"
)

// NoopSink discards reports. Used when no report output is configured.
type NoopSink struct{}

// Publish is a no-op.
func (NoopSink) Publish(context.Context, string, []domain.AgentResult) error { return nil }

// FSReportSink writes a markdown comparison report to
// <Dir>/<evaluation>/comparison_report.md once per completed evaluation.
type FSReportSink struct {
	Dir string
}

// NewFSReportSink creates a filesystem report sink rooted at dir.
func NewFSReportSink(dir string) *FSReportSink { return &FSReportSink{Dir: dir} }

// Publish renders and writes the report.
func (s *FSReportSink) Publish(_ context.Context, evaluationID string, ranked []domain.AgentResult) error {
	dir := filepath.Join(s.Dir, evaluationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	report := RenderComparisonReport(evaluationID, ranked)
	path := filepath.Join(dir, "comparison_report.md")
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// medals decorate the top three ranks of the comparison report.
var medals = []string{"🥇", "🥈", "🥉"}

// RenderComparisonReport renders the ranked leaderboard as markdown.
// Results must already be ranked (score descending, ties in agent order).
func RenderComparisonReport(evaluationID string, ranked []domain.AgentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Evaluation Results: %s\n\n## Rankings\n\n", evaluationID)

	for i, r := range ranked {
		medal := ""
		if i < len(medals) {
			medal = medals[i] + " "
		}
		fmt.Fprintf(&b, "%d. %s**%s**: %d/100\n", i+1, medal, r.AgentName, r.Score)
		if r.Feedback != "" {
			fmt.Fprintf(&b, "   - %s\n", r.Feedback)
		}
		b.WriteString("\n")
	}
	return b.String()
}
