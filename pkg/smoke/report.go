package smoke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// StatusCount is how many results share a status.
type StatusCount struct {
	Status Status
	Count  int
}

// CountByStatus groups results by status in order of first appearance.
func CountByStatus(results []Result) []StatusCount {
	idx := make(map[Status]int)
	var out []StatusCount
	for _, r := range results {
		i, ok := idx[r.Status]
		if !ok {
			i = len(out)
			idx[r.Status] = i
			out = append(out, StatusCount{Status: r.Status})
		}
		out[i].Count++
	}
	return out
}

// InCategory returns the results whose route mentions category.
func InCategory(results []Result, category string) []Result {
	var out []Result
	for _, r := range results {
		if strings.Contains(r.Route, category) {
			out = append(out, r)
		}
	}
	return out
}

// NeedsAttention returns results that are errored, broken or on fallback.
func NeedsAttention(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Status.NeedsAttention() {
			out = append(out, r)
		}
	}
	return out
}

// WriteResults writes the results as an indented JSON array.
func WriteResults(path string, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating results directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

// Render writes the grouped run report.
func Render(w io.Writer, run *Run) error {
	var b bytes.Buffer

	b.WriteString(titleStyle.Render("ACTIVITY SMOKE TEST RESULTS") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s against %s", run.ID, run.BaseURL)) + "\n")

	b.WriteString("\n" + sectionStyle.Render("Summary") + "\n")
	for _, sc := range CountByStatus(run.Results) {
		fmt.Fprintf(&b, "  %s %s: %d activities\n", sc.Status.Emoji(), strings.ToUpper(string(sc.Status)), sc.Count)
	}

	b.WriteString("\n" + sectionStyle.Render("By category") + "\n")
	for _, cat := range Categories {
		group := InCategory(run.Results, cat)
		fmt.Fprintf(&b, "\n  %s (%d activities)\n", strings.ToUpper(cat), len(group))
		for _, r := range group {
			line := fmt.Sprintf("    %s %s - %s", r.Status.Emoji(), r.Route, r.Status)
			if len(r.Warnings) > 0 {
				line += dimStyle.Render(" (" + strings.Join(r.Warnings, ", ") + ")")
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n" + sectionStyle.Render("Needs attention") + "\n")
	problems := NeedsAttention(run.Results)
	if len(problems) == 0 {
		b.WriteString("  " + okStyle.Render("All activities are working properly!") + "\n")
	}
	for _, r := range problems {
		b.WriteString("  " + badStyle.Render(r.Route) + "\n")
		fmt.Fprintf(&b, "    Status: %s (%s)\n", r.Status, r.Mode)
		if len(r.Errors) > 0 {
			fmt.Fprintf(&b, "    Errors: %s\n", strings.Join(r.Errors, ", "))
		}
		if len(r.Warnings) > 0 {
			fmt.Fprintf(&b, "    Warnings: %s\n", strings.Join(r.Warnings, ", "))
		}
		if len(r.FailedRequests) > 0 {
			fmt.Fprintf(&b, "    Failed requests: %d\n", len(r.FailedRequests))
		}
	}

	if n := run.Failed(); n > 0 {
		b.WriteString("\n" + badStyle.Render(fmt.Sprintf("Testing complete: %d activities need fixes", n)) + "\n")
	} else {
		b.WriteString("\n" + okStyle.Render("Testing complete: all activities working") + "\n")
	}

	_, err := w.Write(b.Bytes())
	return err
}
