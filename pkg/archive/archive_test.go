package archive

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

func summaryFor(t *testing.T, date string, requests int, at time.Time) *analyzer.DailySummary {
	t.Helper()
	logs := eventlog.NewLogs()
	for i := 0; i < requests; i++ {
		h := eventlog.Header{Timestamp: date + "T10:00:00Z", Event: "request_end"}
		logs.Add(&eventlog.AppEvent{Header: h, DurationMS: 100})
	}
	s, err := analyzer.NewAnalyzer(analyzer.WithClock(func() time.Time { return at })).Summarize(date, logs)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "archive.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	at := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	for i, date := range []string{"2024-01-14", "2024-01-16", "2024-01-15"} {
		if err := store.Save(ctx, summaryFor(t, date, i+1, at)); err != nil {
			t.Fatalf("Save(%s) error = %v", date, err)
		}
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	if entries[0].Date != "2024-01-16" || entries[2].Date != "2024-01-14" {
		t.Errorf("List() order = %s, %s, %s", entries[0].Date, entries[1].Date, entries[2].Date)
	}
	if entries[0].TotalRequests != 2 || entries[0].AvgResponseMS != 100 {
		t.Errorf("entry = %+v", entries[0])
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d entries", len(limited))
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := summaryFor(t, "2024-01-15", 1, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC))
	second := summaryFor(t, "2024-01-15", 4, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC))
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].TotalRequests != 4 || entries[0].GeneratedAt != "2024-01-17T00:00:00.000Z" {
		t.Errorf("entries = %+v", entries)
	}

	payload, err := store.Get(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	var decoded struct {
		Overview analyzer.Overview `json:"overview"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Overview.TotalRequests != 4 {
		t.Errorf("archived total_requests = %d, want 4", decoded.Overview.TotalRequests)
	}
}

func TestStore_GetMissing(t *testing.T) {
	_, err := openTestStore(t).Get(context.Background(), "1999-01-01")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, summaryFor(t, "2024-01-15", 1, time.Now())); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.List(ctx, 0)
	if err != nil || len(entries) != 1 {
		t.Errorf("List() after reopen = %v, %v", entries, err)
	}
}
