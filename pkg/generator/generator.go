// Package generator writes synthetic activity server logs for demos and
// manual testing of the analysis pipeline.
package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var errorContexts = []string{"nextjs_init", "nextjs_asset_handler", "activity_loader", "framework_detection"}

var errorMessages = []string{
	"Cannot find module 'next/config'",
	"Failed to load static asset",
	"Activity bundle missing",
	"Unexpected token in JSON",
}

var userActions = []string{"click_next", "submit_answer", "open_hint", "drag_node", "reset"}

// Options controls the shape of a generated day.
type Options struct {
	Sessions int
	Seed     uint64
	Routes   []string
	BaseURL  string
}

// Line is one generated record.
type Line struct {
	Time   time.Time
	Fields map[string]any
}

// Day is a generated day of logs keyed by stream.
type Day map[eventlog.Stream][]Line

// Count returns the number of records generated for stream.
func (d Day) Count(stream eventlog.Stream) int {
	return len(d[stream])
}

// Generator produces reproducible synthetic days.
type Generator struct {
	opts  Options
	faker *gofakeit.Faker
	ns    uuid.UUID
	seq   int
}

// New creates a generator. The same options always yield the same day.
func New(opts Options) *Generator {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:3333"
	}
	return &Generator{
		opts:  opts,
		faker: gofakeit.New(opts.Seed),
		ns:    uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("actilog-generator/%d", opts.Seed))),
	}
}

// Day builds every stream for date.
func (g *Generator) Day(date string) (Day, error) {
	if err := analyzer.ValidateDate(date); err != nil {
		return nil, err
	}
	if len(g.opts.Routes) == 0 {
		return nil, fmt.Errorf("no routes to generate traffic for")
	}
	midnight, _ := time.Parse(analyzer.DateLayout, date)

	day := Day{}
	boot := midnight.Add(7 * time.Hour)
	day.add(eventlog.StreamApp, boot, map[string]any{
		"event": "server_init_complete", "level": "info", "message": "Server ready", "service": "app",
	})
	for i, route := range g.opts.Routes {
		g.registerActivity(day, boot.Add(time.Duration(i+1)*100*time.Millisecond), route)
	}

	for i := 0; i < g.opts.Sessions; i++ {
		start := midnight.Add(8*time.Hour + time.Duration(g.faker.IntRange(0, 12*3600))*time.Second)
		g.session(day, start)
	}

	for stream := range day {
		lines := day[stream]
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time.Before(lines[j].Time) })
	}
	return day, nil
}

func (g *Generator) id() string {
	g.seq++
	return uuid.NewSHA1(g.ns, []byte(fmt.Sprint(g.seq))).String()
}

func (g *Generator) registerActivity(day Day, at time.Time, route string) {
	domain, name := splitRoute(route)
	kind := g.faker.RandomString([]string{"nextjs", "nextjs", "static"})
	day.add(eventlog.StreamActivities, at, map[string]any{
		"event": "activity_registered", "level": "info", "message": "Activity registered",
		"name": name, "type": kind, "domain": domain, "route": route,
	})
	if kind == "nextjs" {
		day.add(eventlog.StreamActivities, at.Add(50*time.Millisecond), map[string]any{
			"event": "nextjs_init", "level": "info", "message": "Next.js app initialized",
			"activity": name, "duration_ms": g.faker.IntRange(400, 4000),
		})
	}
	if g.faker.IntRange(0, 9) == 0 {
		day.add(eventlog.StreamApp, at.Add(80*time.Millisecond), map[string]any{
			"event": "framework_unknown", "level": "warn", "message": "Could not detect framework", "path": route,
		})
	}
}

func (g *Generator) session(day Day, start time.Time) {
	sessionID := g.id()
	userID := g.faker.Username()
	route := g.faker.RandomString(g.opts.Routes)
	_, activity := splitRoute(route)
	pageURL := strings.TrimRight(g.opts.BaseURL, "/") + route
	agent := g.faker.UserAgent()

	browser := func(at time.Time, event string, fields map[string]any) {
		rec := map[string]any{
			"event": event, "level": "info", "sessionId": sessionID, "userId": userID,
			"activity": activity, "url": pageURL, "source": "browser", "userAgent": agent,
		}
		for k, v := range fields {
			rec[k] = v
		}
		day.add(eventlog.StreamBrowser, at, rec)
	}

	browser(start, "session_start", nil)
	viewAt := start.Add(time.Second)
	browser(viewAt, "page_view", map[string]any{"title": activity})
	g.request(day, viewAt.Add(time.Duration(g.faker.IntRange(20, 900))*time.Millisecond), route, activity)
	browser(viewAt.Add(2*time.Second), "performance_metric", map[string]any{
		"metric": "page_load", "value": g.faker.IntRange(300, 6000),
	})

	at := viewAt.Add(2 * time.Second)
	for n := g.faker.IntRange(1, 4); n > 0; n-- {
		at = at.Add(time.Duration(g.faker.IntRange(3, 25)) * time.Second)
		action := g.faker.RandomString(userActions)
		browser(at, "user_action", map[string]any{"action": action})
		g.request(day, at.Add(time.Duration(g.faker.IntRange(50, 1500))*time.Millisecond), route+"/state", activity)

		if g.faker.IntRange(0, 9) == 0 {
			g.failure(day, at.Add(2*time.Second), activity, action)
			browser(at.Add(2500*time.Millisecond), "js_error", map[string]any{
				"level": "error", "message": g.faker.RandomString(errorMessages),
			})
		}
	}

	if g.faker.IntRange(0, 4) > 0 {
		browser(at.Add(time.Duration(g.faker.IntRange(5, 25))*time.Second), "session_end", map[string]any{
			"duration_ms": at.Sub(start).Milliseconds(),
		})
	}
}

func (g *Generator) request(day Day, at time.Time, url, activity string) {
	id := g.id()
	duration := g.faker.IntRange(20, 800)
	if g.faker.IntRange(0, 14) == 0 {
		duration = g.faker.IntRange(3000, 12000)
	}
	begin := at.Add(-time.Duration(duration) * time.Millisecond)

	day.add(eventlog.StreamApp, begin, map[string]any{
		"event": "request_start", "level": "info", "message": "Request started",
		"requestId": id, "method": "GET", "url": url, "activity": activity,
	})
	day.add(eventlog.StreamApp, at, map[string]any{
		"event": "request_end", "level": "info", "message": "Request completed",
		"requestId": id, "method": "GET", "url": url, "activity": activity,
		"statusCode": 200, "duration_ms": duration,
	})
	if duration >= 3000 {
		day.add(eventlog.StreamPerformance, at, map[string]any{
			"event": "slow_request", "level": "warn", "message": "Slow request detected",
			"requestId": id, "method": "GET", "url": url, "activity": activity, "duration_ms": duration,
		})
	}
}

func (g *Generator) failure(day Day, at time.Time, activity, action string) {
	msg := g.faker.RandomString(errorMessages)
	day.add(eventlog.StreamErrors, at, map[string]any{
		"event": "error", "level": "error", "message": msg,
		"context":    g.faker.RandomString(errorContexts),
		"userAction": action,
		"activity":   activity,
		"error": map[string]any{
			"name":    g.faker.RandomString([]string{"Error", "TypeError", "ReferenceError"}),
			"message": msg,
			"stack":   "at " + g.faker.HackerPhrase(),
		},
	})
}

func (d Day) add(stream eventlog.Stream, at time.Time, fields map[string]any) {
	fields["timestamp"] = at.UTC().Format(timestampLayout)
	d[stream] = append(d[stream], Line{Time: at, Fields: fields})
}

func splitRoute(route string) (domain, name string) {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	if len(parts) < 2 {
		return "unknown", parts[0]
	}
	return parts[0], parts[len(parts)-1]
}

// Write appends each stream of day to its file in dir.
func Write(dir string, day Day) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	for _, stream := range eventlog.Streams {
		lines := day[stream]
		if len(lines) == 0 {
			continue
		}
		if err := appendLines(filepath.Join(dir, stream.Filename()), lines); err != nil {
			return err
		}
	}
	return nil
}

func appendLines(path string, lines []Line) error {
	var b strings.Builder
	for _, l := range lines {
		data, err := json.Marshal(l.Fields)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
