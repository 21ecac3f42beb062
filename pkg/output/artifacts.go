package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/c4r-dev/actilog/pkg/analyzer"
)

// SummaryPath returns the daily summary artifact path for date.
func SummaryPath(dir, date string) string {
	return filepath.Join(dir, fmt.Sprintf("daily-summary-%s.json", date))
}

// ReportPath returns the Markdown report artifact path for date.
func ReportPath(dir, date string) string {
	return filepath.Join(dir, fmt.Sprintf("llm-report-%s.md", date))
}

// WriteSummary writes the summary JSON into dir, creating dir if needed.
func WriteSummary(dir string, summary *analyzer.DailySummary) (string, error) {
	b, err := MarshalSummary(summary)
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}
	path := SummaryPath(dir, summary.Date)
	if err := writeArtifact(path, b); err != nil {
		return "", err
	}
	return path, nil
}

// WriteReport writes the Markdown report into dir, creating dir if needed.
func WriteReport(dir string, summary *analyzer.DailySummary) (string, string, error) {
	if summary == nil {
		return "", "", errNilSummary
	}
	report := RenderMarkdown(summary)
	path := ReportPath(dir, summary.Date)
	if err := writeArtifact(path, []byte(report)); err != nil {
		return "", "", err
	}
	return report, path, nil
}

// writeArtifact replaces path atomically so readers never see a partial file.
func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating analysis directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
