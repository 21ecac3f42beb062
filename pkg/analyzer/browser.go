package analyzer

import "github.com/c4r-dev/actilog/pkg/eventlog"

const (
	eventUserAction        = "user_action"
	eventPageView          = "page_view"
	eventPerformanceMetric = "performance_metric"
	eventSessionEnd        = "session_end"
	levelError             = "error"
)

// AnalyzeBrowser reconstructs sessions and tallies browser activity.
func AnalyzeBrowser(records []*eventlog.BrowserEvent) BrowserAnalysis {
	out := BrowserAnalysis{
		TotalBrowserEvents: len(records),
		BrowserErrors:      []BrowserError{},
		PerformanceMetrics: []PerformanceMetric{},
		SessionStatistics:  []SessionStat{},
	}

	users := make(map[string]struct{})
	for _, ev := range records {
		if ev.UserID != "" {
			users[ev.UserID] = struct{}{}
		}

		switch ev.Event {
		case eventUserAction:
			out.UserActions.Inc(orUnknown(ev.Action, "unknown"))
		case eventPageView:
			out.PageViews.Inc(orUnknown(ev.URL, "unknown"))
		case eventPerformanceMetric:
			out.PerformanceMetrics = append(out.PerformanceMetrics, PerformanceMetric{
				Metric:    ev.Metric,
				Value:     ev.Value,
				Activity:  ev.Activity,
				Timestamp: ev.Timestamp,
			})
		}

		if ev.Level == levelError {
			out.BrowserErrors = append(out.BrowserErrors, BrowserError{
				Timestamp: ev.Timestamp,
				Event:     ev.Event,
				Message:   ev.Message,
				Activity:  ev.Activity,
				SessionID: ev.SessionKey(),
			})
		}
	}
	out.UniqueUsers = len(users)

	sessions := ReconstructSessions(records)
	durations := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		d := s.DurationMS()
		durations = append(durations, float64(d))
		out.SessionStatistics = append(out.SessionStatistics, SessionStat{
			SessionID:  s.ID,
			DurationMS: d,
			EventCount: len(s.Events),
			Activity:   s.Activity,
		})
	}
	out.TotalSessions = len(sessions)
	out.AverageSessionDuration = round(mean(durations))

	return out
}
