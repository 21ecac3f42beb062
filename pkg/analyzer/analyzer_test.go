package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

var fixedClock = func() time.Time {
	return time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)
}

// hdr builds a record header the way the reader would.
func hdr(ts, event string) eventlog.Header {
	h := eventlog.Header{Timestamp: ts, Event: event}
	if t, ok := eventlog.ParseTimestamp(ts); ok {
		h.Time = t
	}
	return h
}

func appEvent(ts, event, url string, durationMS float64) *eventlog.AppEvent {
	return &eventlog.AppEvent{Header: hdr(ts, event), URL: url, DurationMS: durationMS}
}

func errorEvent(ts, errContext, name, message string) *eventlog.ErrorEvent {
	e := &eventlog.ErrorEvent{Header: hdr(ts, "error"), Context: errContext}
	if name != "" || message != "" {
		e.Error = &eventlog.ErrorDetail{Name: name, Message: message}
	}
	return e
}

func browserEvent(ts, event, session, activity string) *eventlog.BrowserEvent {
	return &eventlog.BrowserEvent{Header: hdr(ts, event), SessionID: session, Activity: activity}
}

func writeLog(t *testing.T, dir string, stream eventlog.Stream, lines ...string) {
	t.Helper()
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, stream.Filename()), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func dailyFromDir(t *testing.T, dir, date string) *DailySummary {
	t.Helper()
	reader := eventlog.NewReader(dir, eventlog.WithLogger(log.New(io.Discard)))
	s, err := NewAnalyzer(WithClock(fixedClock)).Daily(context.Background(), reader, date)
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	return s
}

func TestDaily_BasicReport(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, eventlog.StreamApp,
		`{"timestamp":"2024-01-15T10:00:00.000Z","event":"request_end","url":"/causality/a","duration_ms":100}`,
		`{"timestamp":"2024-01-15T10:05:00.000Z","event":"request_end","url":"/causality/a","duration_ms":200}`,
		`{"timestamp":"2024-01-15T11:00:00.000Z","event":"request_end","url":"/causality/b","duration_ms":300}`,
	)

	s := dailyFromDir(t, dir, "2024-01-15")

	if s.Performance.AverageResponseTime != 200 {
		t.Errorf("average_response_time_ms = %v, want 200", s.Performance.AverageResponseTime)
	}
	if s.Performance.SlowestRequest != 300 || s.Performance.FastestRequest != 100 {
		t.Errorf("slowest/fastest = %v/%v, want 300/100", s.Performance.SlowestRequest, s.Performance.FastestRequest)
	}
	if s.Overview.TotalRequests != 3 {
		t.Errorf("total_requests = %d, want 3", s.Overview.TotalRequests)
	}
	if len(s.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want none", s.Recommendations)
	}
	tr, ok := s.Performance.Trends.Get("10")
	if !ok || tr.RequestCount != 2 || tr.AvgResponseTime != 150 {
		t.Errorf("trend for hour 10 = %+v, %v", tr, ok)
	}
}

func TestDaily_RecommendationTrigger(t *testing.T) {
	tests := []struct {
		name   string
		errors int
		want   int
	}{
		{"at threshold", 10, 0},
		{"above threshold", 11, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			var lines []string
			for i := 0; i < tt.errors; i++ {
				lines = append(lines, fmt.Sprintf(
					`{"timestamp":"2024-01-15T10:00:%02d.000Z","context":"request","error":{"name":"Error","message":"failure %d"}}`, i, i))
			}
			writeLog(t, dir, eventlog.StreamErrors, lines...)

			s := dailyFromDir(t, dir, "2024-01-15")
			if len(s.Recommendations) != tt.want {
				t.Fatalf("got %d recommendations, want %d", len(s.Recommendations), tt.want)
			}
			if tt.want == 1 {
				rec := s.Recommendations[0]
				if rec.Type != RecommendReliability || rec.Priority != PriorityHigh {
					t.Errorf("recommendation = %+v, want reliability/high", rec)
				}
				if rec.Issue != "11 errors occurred" {
					t.Errorf("issue = %q", rec.Issue)
				}
			}
		})
	}
}

func TestDaily_MalformedLineTolerance(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, eventlog.StreamApp,
		`{"timestamp":"2024-01-15T10:00:00.000Z","event":"request_end","duration_ms":40}`,
		`this line is garbage`,
	)

	s := dailyFromDir(t, dir, "2024-01-15")
	if s.Overview.TotalRequests != 1 {
		t.Errorf("total_requests = %d, want 1", s.Overview.TotalRequests)
	}
	st := s.LogStats["app"]
	if st.RecordsRead != 1 || st.SkippedLines != 1 || st.RecordsForDate != 1 {
		t.Errorf("log_stats[app] = %+v", st)
	}
}

func TestDaily_InvalidDate(t *testing.T) {
	reader := eventlog.NewReader(t.TempDir())
	for _, date := range []string{"", "2024-1-15", "2024-02-30", "yesterday"} {
		_, err := NewAnalyzer().Daily(context.Background(), reader, date)
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Daily(%q) error = %v, want ErrInvalidDate", date, err)
		}
	}
}

func TestSummarize_EmptyInput(t *testing.T) {
	s, err := NewAnalyzer(WithClock(fixedClock)).Summarize("2024-01-15", eventlog.NewLogs())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(out)

	if strings.Contains(body, "null") || strings.Contains(body, "NaN") {
		t.Errorf("empty summary contains null/NaN: %s", body)
	}
	for _, key := range []string{
		`"errors_by_type":{}`,
		`"errors_by_context":{}`,
		`"performance_trends":{}`,
		`"activities_by_type":{}`,
		`"activities_by_domain":{}`,
		`"nextjs_init_times":{}`,
		`"user_actions":{}`,
		`"page_views":{}`,
		`"average_response_time_ms":0`,
		`"slowest_request":0`,
		`"fastest_request":0`,
		`"average_session_duration_ms":0`,
		`"journey_completion_rate":0`,
		`"browser_server_sync_rate":0`,
		`"recommendations":[]`,
	} {
		if !strings.Contains(body, key) {
			t.Errorf("empty summary missing %s", key)
		}
	}
}

func TestSummarize_Idempotent(t *testing.T) {
	logs := eventlog.NewLogs()
	logs.Add(appEvent("2024-01-15T10:00:00.000Z", "request_end", "/causality/a", 120))
	logs.Add(errorEvent("2024-01-15T10:00:01.000Z", "nextjs_init", "TypeError", "bad config"))
	logs.Add(errorEvent("2024-01-15T10:00:02.000Z", "nextjs_init", "TypeError", "bad config"))
	logs.Add(browserEvent("2024-01-15T10:00:02.000Z", "page_view", "s1", "a"))
	logs.Add(browserEvent("2024-01-15T10:00:03.000Z", "user_action", "s2", "b"))
	logs.Add(&eventlog.ActivityEvent{Header: hdr("2024-01-15T09:00:00Z", "activity_registered"), Name: "a", Type: "nextjs", Domain: "causality"})

	a := NewAnalyzer(WithClock(fixedClock))
	var outputs [][]byte
	for i := 0; i < 2; i++ {
		s, err := a.Summarize("2024-01-15", logs)
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, b)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("two runs over the same input produced different JSON")
	}
	if !strings.Contains(string(outputs[0]), `"generated_at": "2024-01-16T08:00:00.000Z"`) {
		t.Error("generated_at should come from the clock")
	}
}

func TestSummarize_DateFiltering(t *testing.T) {
	logs := eventlog.NewLogs()
	logs.Add(appEvent("2024-01-15 23:59:59.999", "request_end", "", 10))
	logs.Add(appEvent("2024-01-16 00:00:00.000", "request_end", "", 10))
	logs.Add(appEvent("", "request_end", "", 10))
	logs.Add(errorEvent("2024-01-14T12:00:00Z", "x", "", "m"))
	logs.Add(errorEvent("2024-01-15T12:00:00Z", "x", "", "m"))

	s, err := NewAnalyzer(WithClock(fixedClock)).Summarize("2024-01-15", logs)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Overview.TotalRequests != 1 {
		t.Errorf("total_requests = %d, want 1", s.Overview.TotalRequests)
	}
	if s.Overview.TotalErrors != 1 {
		t.Errorf("total_errors = %d, want 1", s.Overview.TotalErrors)
	}
}

func TestSummarize_Overview(t *testing.T) {
	logs := eventlog.NewLogs()
	logs.Add(appEvent("2024-01-15T08:00:00Z", "server_init_complete", "", 0))
	logs.Add(appEvent("2024-01-15T09:00:00Z", "server_init_complete", "", 0))
	logs.Add(appEvent("2024-01-15T09:00:01Z", "request_start", "/causality/a", 0))
	for _, name := range []string{"a", "b", "a"} {
		logs.Add(&eventlog.ActivityEvent{Header: hdr("2024-01-15T08:00:00Z", "activity_registered"), Name: name})
	}

	s, err := NewAnalyzer().Summarize("2024-01-15", logs)
	if err != nil {
		t.Fatal(err)
	}
	want := Overview{TotalRequests: 0, TotalErrors: 0, ActivitiesAccessed: 2, ServerRestarts: 2}
	if s.Overview != want {
		t.Errorf("overview = %+v, want %+v", s.Overview, want)
	}
}

func TestFromConfig_Thresholds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Thresholds.Errors = 0

	logs := eventlog.NewLogs()
	logs.Add(errorEvent("2024-01-15T12:00:00Z", "x", "", "m"))

	s, err := FromConfig(cfg).Summarize("2024-01-15", logs)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Recommendations) != 1 || s.Recommendations[0].Type != RecommendReliability {
		t.Errorf("recommendations = %+v, want one reliability", s.Recommendations)
	}
}
