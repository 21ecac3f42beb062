package analyzer

import (
	"time"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// Session is a group of browser events sharing a session or correlation id.
type Session struct {
	ID       string
	UserID   string
	Activity string

	// Start and End are the earliest and latest parsed timestamps seen.
	// Both are zero when no event timestamp parsed.
	Start time.Time
	End   time.Time

	Events []*eventlog.BrowserEvent
}

// DurationMS returns End minus Start in milliseconds; never negative.
func (s *Session) DurationMS() int64 {
	if s.Start.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start).Milliseconds()
}

func (s *Session) add(ev *eventlog.BrowserEvent) {
	s.Events = append(s.Events, ev)
	if !ev.HasTime() {
		return
	}
	if s.Start.IsZero() || ev.Time.Before(s.Start) {
		s.Start = ev.Time
	}
	if s.End.IsZero() || ev.Time.After(s.End) {
		s.End = ev.Time
	}
}

// ReconstructSessions groups browser events by session key in input order.
// The user and activity of a session come from its first event. Events
// without a session key are not part of any session.
func ReconstructSessions(records []*eventlog.BrowserEvent) []*Session {
	index := make(map[string]*Session)
	var sessions []*Session

	for _, ev := range records {
		key := ev.SessionKey()
		if key == "" {
			continue
		}
		s, ok := index[key]
		if !ok {
			s = &Session{ID: key, UserID: ev.UserID, Activity: ev.Activity}
			index[key] = s
			sessions = append(sessions, s)
		}
		s.add(ev)
	}

	return sessions
}
