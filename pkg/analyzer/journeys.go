package analyzer

import (
	"sort"
	"strings"
	"time"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// Journey event sources.
const (
	SourceBrowser = "browser"
	SourceServer  = "server"
)

// JourneyEvent is one step of a journey.
type JourneyEvent struct {
	Time      time.Time
	Timestamp string
	Source    string
	Event     string
}

// Journey is one session's browser events merged with nearby server requests.
type Journey struct {
	SessionID string
	UserID    string
	Activity  string
	Events    []JourneyEvent
}

// Signature joins the event names in order.
func (j *Journey) Signature() string {
	names := make([]string, len(j.Events))
	for i, e := range j.Events {
		names[i] = e.Event
	}
	return strings.Join(names, " → ")
}

// Completed reports whether the journey reached session_end.
func (j *Journey) Completed() bool {
	for _, e := range j.Events {
		if e.Event == eventSessionEnd {
			return true
		}
	}
	return false
}

// hasBrowserEventNear reports whether any browser event of the journey lies
// strictly less than window from t.
func (j *Journey) hasBrowserEventNear(t time.Time, window time.Duration) bool {
	for _, e := range j.Events {
		if e.Source != SourceBrowser || e.Time.IsZero() {
			continue
		}
		d := t.Sub(e.Time)
		if d < 0 {
			d = -d
		}
		if d < window {
			return true
		}
	}
	return false
}

// BuildJourneys creates one journey per session and attaches every
// request_start/request_end app event whose URL activity matches the
// journey's activity and that lies within window of one of the journey's
// browser events. A server event may join several journeys. Each journey is
// then sorted by time; events that did not parse keep their relative order
// at the front.
func BuildJourneys(browser []*eventlog.BrowserEvent, app []*eventlog.AppEvent, window time.Duration) []*Journey {
	var journeys []*Journey
	for _, s := range ReconstructSessions(browser) {
		j := &Journey{SessionID: s.ID, UserID: s.UserID, Activity: s.Activity}
		for _, ev := range s.Events {
			j.Events = append(j.Events, JourneyEvent{
				Time:      ev.Time,
				Timestamp: ev.Timestamp,
				Source:    SourceBrowser,
				Event:     ev.Event,
			})
		}
		journeys = append(journeys, j)
	}

	for _, a := range app {
		if a.Event != eventRequestStart && a.Event != eventRequestEnd {
			continue
		}
		activity := ActivityFromURL(a.URL)
		if activity == "" || !a.HasTime() {
			continue
		}
		for _, j := range journeys {
			if j.Activity != activity || !j.hasBrowserEventNear(a.Time, window) {
				continue
			}
			j.Events = append(j.Events, JourneyEvent{
				Time:      a.Time,
				Timestamp: a.Timestamp,
				Source:    SourceServer,
				Event:     a.Event,
			})
		}
	}

	for _, j := range journeys {
		sort.SliceStable(j.Events, func(x, y int) bool {
			return j.Events[x].Time.Before(j.Events[y].Time)
		})
	}

	return journeys
}

// AnalyzeJourneys builds journeys and tallies their signatures.
func AnalyzeJourneys(browser []*eventlog.BrowserEvent, app []*eventlog.AppEvent, window time.Duration, patternLimit int) JourneyAnalysis {
	journeys := BuildJourneys(browser, app, window)

	var signatures Tally
	completed, events := 0, 0
	for _, j := range journeys {
		signatures.Inc(j.Signature())
		if j.Completed() {
			completed++
		}
		events += len(j.Events)
	}

	return JourneyAnalysis{
		TotalJourneys:           len(journeys),
		CompletedJourneys:       completed,
		AverageEventsPerJourney: ratio(events, len(journeys)),
		CommonPatterns:          toPatternCounts(signatures.Top(patternLimit)),
		CompletionRate:          ratio(completed, len(journeys)),
	}
}
