package analyzer

import (
	"sort"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// AnalyzeErrors tallies error records by kind and context, keeps the last
// recent records, and grades recurring messages.
func AnalyzeErrors(records []*eventlog.ErrorEvent, recent int) ErrorAnalysis {
	out := ErrorAnalysis{
		TotalErrors:      len(records),
		RecentErrors:     []RecentError{},
		CriticalPatterns: CriticalPatterns(records),
	}

	for _, r := range records {
		out.ErrorsByType.Inc(orUnknown(r.ErrorName(), "Unknown"))
		out.ErrorsByContext.Inc(orUnknown(r.Context, "Unknown"))
	}

	start := len(records) - recent
	if start < 0 {
		start = 0
	}
	for _, r := range records[start:] {
		out.RecentErrors = append(out.RecentErrors, RecentError{
			Timestamp:  r.Timestamp,
			Context:    r.Context,
			Message:    r.ErrorMessage(),
			UserAction: r.UserAction,
		})
	}

	return out
}

// CriticalPatterns returns error messages that occur more than once, most
// frequent first. Ties keep first-seen order.
func CriticalPatterns(records []*eventlog.ErrorEvent) []CriticalPattern {
	var counts Tally
	for _, r := range records {
		if msg := r.ErrorMessage(); msg != "" {
			counts.Inc(msg)
		}
	}

	patterns := []CriticalPattern{}
	for _, msg := range counts.Keys() {
		n := counts.Count(msg)
		if n > 1 {
			patterns = append(patterns, CriticalPattern{
				Message:     msg,
				Occurrences: n,
				Severity:    severityFor(n),
			})
		}
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Occurrences > patterns[j].Occurrences
	})
	return patterns
}

func severityFor(occurrences int) Severity {
	switch {
	case occurrences > 5:
		return SeverityHigh
	case occurrences > 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
