package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// placeholder is rendered for values the summary does not carry.
const placeholder = "N/A"

// MarkdownFormatter renders the daily report handed to people and LLMs.
type MarkdownFormatter struct {
	opts FormatOptions
}

// NewMarkdownFormatter creates a new Markdown formatter with the given options.
func NewMarkdownFormatter(opts FormatOptions) *MarkdownFormatter {
	return &MarkdownFormatter{opts: opts}
}

// Name returns the format name.
func (f *MarkdownFormatter) Name() string {
	return FormatMarkdown
}

// Format renders the summary as a Markdown report.
func (f *MarkdownFormatter) Format(ctx context.Context, summary *analyzer.DailySummary, w io.Writer) error {
	if summary == nil {
		return errNilSummary
	}
	_, err := io.WriteString(w, RenderMarkdown(summary))
	return err
}

// RenderMarkdown returns the report text. Section order is fixed.
func RenderMarkdown(s *analyzer.DailySummary) string {
	var b strings.Builder
	date := orNA(s.Date)

	fmt.Fprintf(&b, "# C4R Activity Server Daily Report - %s\n\n", date)

	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "- **Total Requests**: %d\n", s.Overview.TotalRequests)
	fmt.Fprintf(&b, "- **Error Count**: %d\n", s.Overview.TotalErrors)
	fmt.Fprintf(&b, "- **Activities Accessed**: %d\n", s.Overview.ActivitiesAccessed)
	fmt.Fprintf(&b, "- **Server Restarts**: %d\n\n", s.Overview.ServerRestarts)

	b.WriteString("## Performance Metrics\n")
	fmt.Fprintf(&b, "- **Average Response Time**: %sms\n", num(s.Performance.AverageResponseTime))
	fmt.Fprintf(&b, "- **Slow Requests**: %d\n", s.Performance.SlowRequestsCount)
	fmt.Fprintf(&b, "- **Slowest Request**: %sms\n\n", num(s.Performance.SlowestRequest))

	b.WriteString("## Error Analysis\n")
	if len(s.Errors.CriticalPatterns) > 0 {
		b.WriteString("### Critical Error Patterns:\n")
		for _, p := range s.Errors.CriticalPatterns {
			fmt.Fprintf(&b, "- **%s** (%d occurrences, %s severity)\n", orNA(p.Message), p.Occurrences, orNA(string(p.Severity)))
		}
	} else {
		b.WriteString("No critical error patterns detected.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Framework Health\n")
	fmt.Fprintf(&b, "- **Framework Errors**: %d\n", s.Framework.FrameworkErrors)
	fmt.Fprintf(&b, "- **Detection Failures**: %d\n\n", s.Framework.UnknownDetections)

	b.WriteString("## Activity Statistics\n")
	if s.Activities.ByType.Len() == 0 {
		b.WriteString("No activities registered.\n")
	}
	for _, typ := range s.Activities.ByType.Keys() {
		fmt.Fprintf(&b, "- **%s**: %d activities\n", orNA(typ), s.Activities.ByType.Count(typ))
	}
	b.WriteString("\n")

	b.WriteString("## Recommendations\n")
	if len(s.Recommendations) == 0 {
		b.WriteString("No recommendations.\n")
	}
	for i, rec := range s.Recommendations {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### %s (%s priority)\n", strings.ToUpper(orNA(string(rec.Type))), orNA(string(rec.Priority)))
		fmt.Fprintf(&b, "**Issue**: %s\n", orNA(rec.Issue))
		fmt.Fprintf(&b, "**Suggestion**: %s\n", orNA(rec.Suggestion))
	}
	b.WriteString("\n")

	b.WriteString("## User Activity\n")
	fmt.Fprintf(&b, "- **Browser Sessions**: %d\n", s.Browser.TotalSessions)
	fmt.Fprintf(&b, "- **Unique Users**: %d\n", s.Browser.UniqueUsers)
	fmt.Fprintf(&b, "- **Average Session Duration**: %sms\n", num(s.Browser.AverageSessionDuration))
	fmt.Fprintf(&b, "- **Journeys**: %d (%d completed, %s completion rate)\n",
		s.Journeys.TotalJourneys, s.Journeys.CompletedJourneys, percent(s.Journeys.CompletionRate))
	fmt.Fprintf(&b, "- **Browser/Server Sync Rate**: %s\n\n", percent(s.Correlation.SyncRate))

	b.WriteString("## Log Ingestion\n")
	for _, stream := range eventlog.Streams {
		st, ok := s.LogStats[string(stream)]
		if !ok {
			fmt.Fprintf(&b, "- **%s**: %s\n", stream, placeholder)
			continue
		}
		fmt.Fprintf(&b, "- **%s**: %d records for this day, %d read from %d file(s), %d skipped lines\n",
			stream, st.RecordsForDate, st.RecordsRead, len(st.Files), st.SkippedLines)
	}
	b.WriteString("\n")

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated at: %s*\n", orNA(s.GeneratedAt))
	fmt.Fprintf(&b, "*Analysis covers: %s*\n", date)

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// num prints whole numbers without a fractional part.
func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func percent(r float64) string {
	return strconv.FormatFloat(r*100, 'f', 1, 64) + "%"
}
