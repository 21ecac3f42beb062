package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

func newTestSummary(t *testing.T, withIssues bool) *analyzer.DailySummary {
	t.Helper()
	logs := eventlog.NewLogs()
	if withIssues {
		h := eventlog.Header{Timestamp: "2024-01-15T10:00:00Z", Event: "framework_unknown"}
		logs.Add(&eventlog.AppEvent{Header: h, Path: "/d/x"})
	}
	s, err := analyzer.NewAnalyzer().Summarize("2024-01-15", logs)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewClient(t *testing.T) {
	client := NewClient()
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestClient_Send_Success(t *testing.T) {
	var received map[string]any
	var headers http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(t, true), SendOptions{
		URL:   server.URL,
		Token: "secret",
	})

	if !resp.Success() {
		t.Fatalf("expected success, got error: %v", resp.Error)
	}
	if resp.Body != `{"status":"ok"}` {
		t.Errorf("Body = %q", resp.Body)
	}
	if headers.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", headers.Get("Content-Type"))
	}
	if headers.Get("Authorization") != "Bearer secret" {
		t.Errorf("Authorization = %q", headers.Get("Authorization"))
	}
	if headers.Get("X-Actilog-Date") != "2024-01-15" {
		t.Errorf("X-Actilog-Date = %q", headers.Get("X-Actilog-Date"))
	}
	if received["date"] != "2024-01-15" {
		t.Errorf("payload date = %v", received["date"])
	}
	if recs, ok := received["recommendations"].([]any); !ok || len(recs) != 1 {
		t.Errorf("payload recommendations = %v", received["recommendations"])
	}
}

func TestClient_Send_NoToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(t, false), SendOptions{URL: server.URL})
	if !resp.Success() {
		t.Fatalf("expected success, got %v", resp.Error)
	}
	if auth != "" {
		t.Errorf("Authorization = %q, want empty", auth)
	}
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(t, false), SendOptions{URL: server.URL})
	if resp.Success() {
		t.Error("expected failure for 500 response")
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
}

func TestClient_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(t, false), SendOptions{
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})
	if resp.Success() || resp.Error == nil {
		t.Error("expected failure due to timeout")
	}
}

func TestClient_Send_InvalidURL(t *testing.T) {
	resp := NewClient().Send(context.Background(), newTestSummary(t, false), SendOptions{URL: "://invalid-url"})
	if resp.Success() || resp.Error == nil {
		t.Error("expected failure for invalid URL")
	}
}

func TestResponse_Success(t *testing.T) {
	tests := []struct {
		name        string
		resp        Response
		wantSuccess bool
	}{
		{"200 OK", Response{StatusCode: 200}, true},
		{"204 No Content", Response{StatusCode: 204}, true},
		{"400 Bad Request", Response{StatusCode: 400}, false},
		{"500 Server Error", Response{StatusCode: 500}, false},
		{"With Error", Response{StatusCode: 200, Error: io.EOF}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Success(); got != tt.wantSuccess {
				t.Errorf("Success() = %v, want %v", got, tt.wantSuccess)
			}
		})
	}
}

func TestShouldFire(t *testing.T) {
	clean := newTestSummary(t, false)
	issues := newTestSummary(t, true)

	tests := []struct {
		trigger config.WebhookTrigger
		summary *analyzer.DailySummary
		want    bool
	}{
		{config.WebhookTriggerAlways, clean, true},
		{config.WebhookTriggerNever, issues, false},
		{config.WebhookTriggerOnIssues, clean, false},
		{config.WebhookTriggerOnIssues, issues, true},
		{"", issues, true},
	}
	for _, tt := range tests {
		if got := ShouldFire(tt.trigger, tt.summary); got != tt.want {
			t.Errorf("ShouldFire(%q, issues=%v) = %v, want %v", tt.trigger, tt.summary.HasRecommendations(), got, tt.want)
		}
	}
}

func TestClient_Notify(t *testing.T) {
	var hits atomic.Int32
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	hooks := []config.WebhookConfig{
		{Name: "always", URL: ok.URL, Trigger: config.WebhookTriggerAlways},
		{Name: "issues", URL: ok.URL, Trigger: config.WebhookTriggerOnIssues},
		{Name: "never", URL: ok.URL, Trigger: config.WebhookTriggerNever},
		{Name: "broken", URL: broken.URL, Trigger: config.WebhookTriggerAlways},
	}

	sent, failed := NewClient().Notify(context.Background(), hooks, newTestSummary(t, false), log.New(io.Discard))
	if sent != 1 || failed != 1 {
		t.Errorf("Notify() = sent %d failed %d, want 1/1", sent, failed)
	}
	if hits.Load() != 1 {
		t.Errorf("ok server hit %d times, want 1", hits.Load())
	}
}
