package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/c4r-dev/actilog/pkg/analyzer"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	highStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mediumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// TextFormatter formats summaries for a terminal.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return FormatText
}

// Format renders the summary as text.
func (f *TextFormatter) Format(ctx context.Context, summary *analyzer.DailySummary, w io.Writer) error {
	if summary == nil {
		return errNilSummary
	}
	if f.opts.Quiet {
		return f.formatQuiet(summary, w)
	}
	return f.formatFull(summary, w)
}

func (f *TextFormatter) formatQuiet(s *analyzer.DailySummary, w io.Writer) error {
	_, err := fmt.Fprintf(w, "actilog %s: %d requests, %d errors, %d sessions, %d recommendations\n",
		s.Date,
		s.Overview.TotalRequests,
		s.Overview.TotalErrors,
		s.Browser.TotalSessions,
		len(s.Recommendations))
	return err
}

func (f *TextFormatter) formatFull(s *analyzer.DailySummary, w io.Writer) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Activity Server Summary " + s.Date))
	b.WriteString("\n\n")

	section(&b, "Overview")
	field(&b, "Requests", s.Overview.TotalRequests)
	field(&b, "Errors", s.Overview.TotalErrors)
	field(&b, "Activities accessed", s.Overview.ActivitiesAccessed)
	field(&b, "Server restarts", s.Overview.ServerRestarts)

	section(&b, "Performance")
	field(&b, "Average response", num(s.Performance.AverageResponseTime)+"ms")
	field(&b, "Fastest / slowest", num(s.Performance.FastestRequest)+"ms / "+num(s.Performance.SlowestRequest)+"ms")
	field(&b, "Slow requests", s.Performance.SlowRequestsCount)
	for _, ep := range s.Performance.SlowEndpoints {
		fmt.Fprintf(&b, "    %s %s\n", countStyle.Render(fmt.Sprintf("%4d", ep.Count)), ep.Endpoint)
	}

	section(&b, "Errors")
	if len(s.Errors.CriticalPatterns) == 0 {
		b.WriteString("  No critical error patterns detected\n")
	}
	for _, p := range s.Errors.CriticalPatterns {
		fmt.Fprintf(&b, "  %s %s (%d)\n", severityStyle(p.Severity).Render(fmt.Sprintf("[%s]", p.Severity)), p.Message, p.Occurrences)
	}
	if f.opts.Verbose {
		for _, e := range s.Errors.RecentErrors {
			fmt.Fprintf(&b, "  %s %s: %s\n", labelStyle.Render(e.Timestamp), orNA(e.Context), orNA(e.Message))
		}
	}

	section(&b, "Framework")
	field(&b, "Framework errors", s.Framework.FrameworkErrors)
	field(&b, "Unknown detections", s.Framework.UnknownDetections)

	section(&b, "Browser")
	field(&b, "Sessions", s.Browser.TotalSessions)
	field(&b, "Unique users", s.Browser.UniqueUsers)
	field(&b, "Average session", num(s.Browser.AverageSessionDuration)+"ms")
	field(&b, "Journeys completed", fmt.Sprintf("%d/%d", s.Journeys.CompletedJourneys, s.Journeys.TotalJourneys))
	field(&b, "Sync rate", percent(s.Correlation.SyncRate))
	if f.opts.Verbose {
		for _, p := range s.Journeys.CommonPatterns {
			fmt.Fprintf(&b, "    %s %s\n", countStyle.Render(fmt.Sprintf("%4d", p.Count)), p.Pattern)
		}
	}

	section(&b, "Recommendations")
	if len(s.Recommendations) == 0 {
		b.WriteString("  None\n")
	}
	for _, rec := range s.Recommendations {
		style := mediumStyle
		if rec.Priority == analyzer.PriorityHigh {
			style = highStyle
		}
		fmt.Fprintf(&b, "  %s %s\n", style.Render(strings.ToUpper(string(rec.Type))), rec.Issue)
		fmt.Fprintf(&b, "    %s\n", labelStyle.Render(rec.Suggestion))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, name string) {
	b.WriteString(sectionStyle.Render(name))
	b.WriteString("\n")
}

func field(b *strings.Builder, label string, value any) {
	fmt.Fprintf(b, "  %s %v\n", labelStyle.Render(fmt.Sprintf("%-20s", label+":")), value)
}

func severityStyle(s analyzer.Severity) lipgloss.Style {
	switch s {
	case analyzer.SeverityHigh:
		return highStyle
	case analyzer.SeverityMedium:
		return mediumStyle
	default:
		return lowStyle
	}
}
