package eventlog

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. The server writes
// "2006-01-02 15:04:05.000" while the browser logger writes RFC 3339 with a
// trailing Z; the rest cover hand-written and rotated logs.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses a record timestamp. Timestamps without a zone are
// read as UTC. The second result is false when no layout matches.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
