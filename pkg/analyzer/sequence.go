package analyzer

import (
	"sort"
	"time"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// OpenRequest is a request_start whose request_end never arrived in time.
type OpenRequest struct {
	RequestID string
	Method    string
	URL       string
	Start     time.Time
	Source    string
	LineNum   int
}

// sequenceTracker pairs request_start and request_end records by request id.
type sequenceTracker struct {
	timeout time.Duration
	open    map[string]*OpenRequest
}

func (t *sequenceTracker) process(a *eventlog.AppEvent) {
	if a.RequestID == "" {
		return
	}
	switch a.Event {
	case eventRequestStart:
		t.open[a.RequestID] = &OpenRequest{
			RequestID: a.RequestID,
			Method:    a.Method,
			URL:       a.URL,
			Start:     a.Time,
			Source:    a.Source,
			LineNum:   a.LineNum,
		}
	case eventRequestEnd:
		start, ok := t.open[a.RequestID]
		if !ok {
			return
		}
		// A late end leaves the request open so it is still reported
		if t.timeout > 0 && !start.Start.IsZero() && a.HasTime() && a.Time.Sub(start.Start) > t.timeout {
			return
		}
		delete(t.open, a.RequestID)
	}
}

// UnfinishedRequests returns the requests that started but did not end within
// timeout, ordered by start time. A zero timeout only requires that the end
// exists. A start is reported only once the newest record is more than
// timeout past it, so requests still in flight at the end of a live log are
// not flagged. Records are processed in slice order.
func UnfinishedRequests(app []*eventlog.AppEvent, timeout time.Duration) []OpenRequest {
	t := &sequenceTracker{timeout: timeout, open: make(map[string]*OpenRequest)}
	var newest time.Time
	for _, a := range app {
		t.process(a)
		if a.HasTime() && a.Time.After(newest) {
			newest = a.Time
		}
	}

	out := make([]OpenRequest, 0, len(t.open))
	for _, r := range t.open {
		if timeout > 0 && !r.Start.IsZero() && newest.Sub(r.Start) <= timeout {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].RequestID < out[j].RequestID
	})
	return out
}
