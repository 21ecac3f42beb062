// Package eventlog reads the newline-delimited JSON event streams written by
// the activity server and the browser logger.
package eventlog

import (
	"fmt"
	"time"
)

// Stream names one of the five log files in the log directory.
type Stream string

const (
	StreamApp         Stream = "app"
	StreamErrors      Stream = "errors"
	StreamActivities  Stream = "activities"
	StreamPerformance Stream = "performance"
	StreamBrowser     Stream = "browser"
)

// Streams lists every known stream in a fixed order.
var Streams = []Stream{StreamApp, StreamErrors, StreamActivities, StreamPerformance, StreamBrowser}

// Filename returns the live log file name for the stream.
func (s Stream) Filename() string {
	return string(s) + ".jsonl"
}

// ParseStream resolves a stream by name.
func ParseStream(name string) (Stream, error) {
	for _, s := range Streams {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown log stream %q", name)
}

// Header holds the fields every record carries, plus provenance.
type Header struct {
	// Timestamp is the raw timestamp string as written. Date filtering is a
	// prefix test against it.
	Timestamp string

	// Time is the parsed timestamp; zero when Timestamp is missing or unparsable.
	Time time.Time

	Event   string
	Level   string
	Message string
	Service string

	// Source is the file this record came from.
	Source string

	// LineNum is the 1-based line number in Source.
	LineNum int
}

// Meta returns the shared header of a record.
func (h *Header) Meta() *Header {
	return h
}

// HasTime reports whether the timestamp parsed.
func (h *Header) HasTime() bool {
	return !h.Time.IsZero()
}

// Record is one decoded line of any stream.
type Record interface {
	Meta() *Header
	Stream() Stream
}

// AppEvent is a record from app.jsonl: request lifecycle, framework
// detection and server lifecycle events.
type AppEvent struct {
	Header
	RequestID  string
	Method     string
	URL        string
	Path       string
	Activity   string
	Framework  string
	StatusCode int
	DurationMS float64
}

func (*AppEvent) Stream() Stream { return StreamApp }

// ErrorDetail is the serialized error object attached to error records.
type ErrorDetail struct {
	Name    string
	Message string
	Stack   string
}

// ErrorEvent is a record from errors.jsonl.
type ErrorEvent struct {
	Header
	Context    string
	UserAction string
	Error      *ErrorDetail
}

func (*ErrorEvent) Stream() Stream { return StreamErrors }

// ErrorName returns the error kind, or "" when the record carries no error object.
func (e *ErrorEvent) ErrorName() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Name
}

// ErrorMessage returns the error message, or "" when absent.
func (e *ErrorEvent) ErrorMessage() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Message
}

// ActivityEvent is a record from activities.jsonl.
type ActivityEvent struct {
	Header
	Name       string
	Type       string
	Domain     string
	Route      string
	Path       string
	Activity   string
	DurationMS float64
}

func (*ActivityEvent) Stream() Stream { return StreamActivities }

// PerfEvent is a record from performance.jsonl.
type PerfEvent struct {
	Header
	RequestID  string
	Method     string
	URL        string
	Path       string
	Activity   string
	DurationMS float64
}

func (*PerfEvent) Stream() Stream { return StreamPerformance }

// BrowserEvent is a record from browser.jsonl.
type BrowserEvent struct {
	Header
	SessionID     string
	CorrelationID string
	UserID        string
	Activity      string
	Action        string
	URL           string
	Title         string
	Metric        string
	Value         *float64
}

func (*BrowserEvent) Stream() Stream { return StreamBrowser }

// SessionKey returns the session identifier, falling back to the correlation id.
func (b *BrowserEvent) SessionKey() string {
	if b.SessionID != "" {
		return b.SessionID
	}
	return b.CorrelationID
}

// StreamStats describes what was read from one stream.
type StreamStats struct {
	// Files lists the files read, oldest rotation first.
	Files []string `json:"files"`

	// Records is the number of lines decoded into records.
	Records int `json:"records"`

	// Skipped is the number of non-blank lines that failed to decode.
	Skipped int `json:"skipped_lines"`
}

// Logs holds the decoded records of all five streams.
type Logs struct {
	App         []*AppEvent
	Errors      []*ErrorEvent
	Activities  []*ActivityEvent
	Performance []*PerfEvent
	Browser     []*BrowserEvent

	// Stats is keyed by stream and always has an entry for every stream.
	Stats map[Stream]*StreamStats
}

// NewLogs returns an empty Logs with zeroed stats for every stream.
func NewLogs() *Logs {
	l := &Logs{Stats: make(map[Stream]*StreamStats, len(Streams))}
	for _, s := range Streams {
		l.Stats[s] = &StreamStats{Files: []string{}}
	}
	return l
}

// Add appends a record to the slice for its stream.
func (l *Logs) Add(rec Record) {
	switch r := rec.(type) {
	case *AppEvent:
		l.App = append(l.App, r)
	case *ErrorEvent:
		l.Errors = append(l.Errors, r)
	case *ActivityEvent:
		l.Activities = append(l.Activities, r)
	case *PerfEvent:
		l.Performance = append(l.Performance, r)
	case *BrowserEvent:
		l.Browser = append(l.Browser, r)
	}
}
