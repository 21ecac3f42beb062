package eventlog

import "strings"

// ForDate returns the records whose raw timestamp starts with date
// (YYYY-MM-DD). Records without a timestamp are dropped. Stats are shared
// with the receiver since they describe ingestion, not the filtered view.
func (l *Logs) ForDate(date string) *Logs {
	return &Logs{
		App:         filterDate(l.App, date),
		Errors:      filterDate(l.Errors, date),
		Activities:  filterDate(l.Activities, date),
		Performance: filterDate(l.Performance, date),
		Browser:     filterDate(l.Browser, date),
		Stats:       l.Stats,
	}
}

// Count returns the number of records held for a stream.
func (l *Logs) Count(stream Stream) int {
	switch stream {
	case StreamApp:
		return len(l.App)
	case StreamErrors:
		return len(l.Errors)
	case StreamActivities:
		return len(l.Activities)
	case StreamPerformance:
		return len(l.Performance)
	case StreamBrowser:
		return len(l.Browser)
	}
	return 0
}

func filterDate[T Record](records []T, date string) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		ts := rec.Meta().Timestamp
		if ts != "" && strings.HasPrefix(ts, date) {
			out = append(out, rec)
		}
	}
	return out
}
