package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

var fixedNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func setupTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	quiet := log.New(io.Discard)
	reader := eventlog.NewReader(dir, eventlog.WithLogger(quiet))
	a := analyzer.NewAnalyzer(analyzer.WithClock(func() time.Time { return fixedNow }))
	s := New(reader, a, WithLogger(quiet), WithClock(func() time.Time { return fixedNow }))
	return s.Router(), dir
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req, _ := http.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestHealthz(t *testing.T) {
	r, _ := setupTestRouter(t)
	w := do(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("response has no request id")
	}
}

func TestIngestBrowserLog(t *testing.T) {
	r, dir := setupTestRouter(t)

	w := do(r, http.MethodPost, "/api/browser-logs",
		`{"event":"page_view","sessionId":"s1","userId":"u1","timestamp":"2024-01-15T09:29:59.000Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "logged" || resp["requestId"] != w.Header().Get(requestIDHeader) {
		t.Errorf("response = %v", resp)
	}

	lines := readLines(t, filepath.Join(dir, "browser.jsonl"))
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	rec := lines[0]
	want := map[string]any{
		"event":           "page_view",
		"correlationId":   "s1",
		"userAgent":       "test-agent",
		"ingest":          "browser_event",
		"timestamp":       "2024-01-15 09:30:00.000",
		"clientTimestamp": "2024-01-15T09:29:59.000Z",
		"serverRequestId": resp["requestId"],
		"service":         "browser",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestIngestBrowserLog_DefaultEvent(t *testing.T) {
	r, dir := setupTestRouter(t)

	if w := do(r, http.MethodPost, "/api/browser-logs", `{"sessionId":"s1"}`); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	rec := readLines(t, filepath.Join(dir, "browser.jsonl"))[0]
	if rec["event"] != "browser_event" {
		t.Errorf("event = %v", rec["event"])
	}
}

func TestIngestBrowserBatch(t *testing.T) {
	r, dir := setupTestRouter(t)

	w := do(r, http.MethodPost, "/api/browser-logs/batch",
		`{"logs":[{"event":"user_action","sessionId":"s1"},{"event":"session_end","sessionId":"s1"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["count"] != float64(2) {
		t.Errorf("count = %v", resp["count"])
	}

	// Ingested events are readable by the analysis pipeline.
	reader := eventlog.NewReader(dir, eventlog.WithLogger(log.New(io.Discard)))
	recs, stats, err := reader.ReadStream(context.Background(), eventlog.StreamBrowser)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || stats.Skipped != 0 {
		t.Fatalf("records = %d, skipped = %d", len(recs), stats.Skipped)
	}
	b := recs[1].(*eventlog.BrowserEvent)
	if b.Event != "session_end" || b.CorrelationID != "s1" || !b.HasTime() {
		t.Errorf("record = %+v", b)
	}
}

func TestIngestBrowserBatch_BadRequest(t *testing.T) {
	r, _ := setupTestRouter(t)
	for _, body := range []string{`{"nope":1}`, `not json`} {
		if w := do(r, http.MethodPost, "/api/browser-logs/batch", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: Expected status 400, got %d", body, w.Code)
		}
	}
}

func TestTailLogs(t *testing.T) {
	r, dir := setupTestRouter(t)

	var lines []string
	for i := 0; i < 150; i++ {
		lines = append(lines, fmt.Sprintf(`{"n":%d}`, i))
	}
	lines = append(lines, "{broken")
	os.WriteFile(filepath.Join(dir, "app.jsonl"), []byte(strings.Join(lines, "\n")+"\n"), 0644)

	w := do(r, http.MethodGet, "/api/logs/app", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Logs  []map[string]int `json:"logs"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 100 || resp.Logs[0]["n"] != 50 || resp.Logs[99]["n"] != 149 {
		t.Errorf("count = %d, first = %v", resp.Count, resp.Logs[0])
	}
}

func TestTailLogs_NotFound(t *testing.T) {
	r, _ := setupTestRouter(t)
	for _, path := range []string{"/api/logs/errors", "/api/logs/dev"} {
		if w := do(r, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s: Expected status 404, got %d", path, w.Code)
		}
	}
}

func TestSummaryAndReport(t *testing.T) {
	r, dir := setupTestRouter(t)
	os.WriteFile(filepath.Join(dir, "app.jsonl"), []byte(
		`{"timestamp":"2024-01-15T10:00:00.000Z","event":"request_end","url":"/a/b","duration_ms":100}`+"\n"+
			`{"timestamp":"2024-01-15T10:01:00.000Z","event":"request_end","url":"/a/b","duration_ms":300}`+"\n"), 0644)

	w := do(r, http.MethodGet, "/api/summary/2024-01-15", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body)
	}
	var summary analyzer.DailySummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Overview.TotalRequests != 2 || summary.GeneratedAt != "2024-01-15T09:30:00.000Z" {
		t.Errorf("summary = %+v", summary.Overview)
	}

	w = do(r, http.MethodGet, "/api/report/2024-01-15", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "# C4R Activity Server Daily Report - 2024-01-15") {
		t.Errorf("report = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q", ct)
	}

	if w := do(r, http.MethodGet, "/api/summary/2024-13-45", ""); w.Code != http.StatusBadRequest {
		t.Errorf("invalid date: Expected status 400, got %d", w.Code)
	}
}

func TestNoRoute(t *testing.T) {
	r, _ := setupTestRouter(t)
	if w := do(r, http.MethodGet, "/api/nothing", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
