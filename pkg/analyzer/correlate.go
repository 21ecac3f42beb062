package analyzer

import (
	"strings"
	"time"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// Correlate pairs every browser event with app events for the same activity
// and any error events at most window away. Browser events with nothing on
// either side produce no correlation.
//
// The scan is browser x (app + errors); inputs are one day of a classroom
// deployment.
func Correlate(browser []*eventlog.BrowserEvent, app []*eventlog.AppEvent, errs []*eventlog.ErrorEvent,
	window time.Duration, patternLimit, detailLimit int) CorrelationAnalysis {

	appActivity := make([]string, len(app))
	for i, a := range app {
		appActivity[i] = ActivityFromURL(a.URL)
	}

	correlations := []Correlation{}
	var patterns Tally
	for _, b := range browser {
		if !b.HasTime() {
			continue
		}

		servers := []CorrelatedServerEvent{}
		names := make([]string, 0)
		if b.Activity != "" {
			for i, a := range app {
				if appActivity[i] != b.Activity || !withinWindow(b.Time, a.Time, window) {
					continue
				}
				servers = append(servers, CorrelatedServerEvent{
					Timestamp:  a.Timestamp,
					Event:      a.Event,
					URL:        a.URL,
					DurationMS: a.DurationMS,
				})
				names = append(names, a.Event)
			}
		}

		nearErrors := []CorrelatedError{}
		for _, e := range errs {
			if !withinWindow(b.Time, e.Time, window) {
				continue
			}
			nearErrors = append(nearErrors, CorrelatedError{
				Timestamp: e.Timestamp,
				Context:   e.Context,
				Message:   e.ErrorMessage(),
			})
		}

		if len(servers) == 0 && len(nearErrors) == 0 {
			continue
		}
		correlations = append(correlations, Correlation{
			BrowserEvent: CorrelatedBrowserEvent{
				Timestamp: b.Timestamp,
				Event:     b.Event,
				SessionID: b.SessionID,
				Activity:  b.Activity,
			},
			ServerEvents: servers,
			Errors:       nearErrors,
		})
		patterns.Inc(b.Event + " → " + strings.Join(names, ","))
	}

	detailed := correlations
	if detailLimit > 0 && len(detailed) > detailLimit {
		detailed = detailed[:detailLimit]
	}

	return CorrelationAnalysis{
		TotalCorrelations:    len(correlations),
		Patterns:             toPatternCounts(patterns.Top(patternLimit)),
		DetailedCorrelations: detailed,
		SyncRate:             ratio(len(correlations), len(browser)),
	}
}

func toPatternCounts(kcs []KeyCount) []PatternCount {
	out := make([]PatternCount, 0, len(kcs))
	for _, kc := range kcs {
		out = append(out, PatternCount{Pattern: kc.Key, Count: kc.Count})
	}
	return out
}
