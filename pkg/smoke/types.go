// Package smoke loads every deployed activity over HTTP and classifies
// whether it rendered.
package smoke

import (
	"fmt"
	"strings"
)

// Status is the verdict for one activity.
type Status string

const (
	StatusWorking   Status = "working"
	StatusFallback  Status = "fallback"
	StatusBootstrap Status = "bootstrap"
	StatusBroken    Status = "broken"
	StatusError     Status = "error"
	StatusUnknown   Status = "unknown"
)

// Emoji is the glyph used in terminal output.
func (s Status) Emoji() string {
	switch s {
	case StatusWorking:
		return "✅"
	case StatusFallback:
		return "⚠️"
	case StatusBootstrap:
		return "🔄"
	case StatusBroken:
		return "❌"
	case StatusError:
		return "💥"
	default:
		return "❓"
	}
}

// Failing reports whether the status should fail a run.
func (s Status) Failing() bool {
	return s == StatusError || s == StatusBroken
}

// NeedsAttention reports whether the activity belongs in the follow-up list.
func (s Status) NeedsAttention() bool {
	return s.Failing() || s == StatusFallback
}

// Mode describes how the page was served.
type Mode string

const (
	ModeNextJS    Mode = "nextjs"
	ModeStatic    Mode = "static"
	ModeFallback  Mode = "fallback"
	ModeBootstrap Mode = "bootstrap"
	ModeError     Mode = "error"
	ModeUnknown   Mode = "unknown"
)

// Categories are the activity groups in catalogue order.
var Categories = []string{"causality", "randomization", "coding-practices", "collaboration", "tools"}

// FailedRequest is a request that failed or answered with status >= 400 while
// a page loaded. Status is 0 when no response arrived.
type FailedRequest struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of loading one route.
type Result struct {
	Route          string          `json:"route"`
	Name           string          `json:"name"`
	Status         Status          `json:"status"`
	Errors         []string        `json:"errors"`
	Warnings       []string        `json:"warnings"`
	LoadTime       int64           `json:"loadTime"`
	HasContent     bool            `json:"hasContent"`
	Mode           Mode            `json:"mode"`
	FailedRequests []FailedRequest `json:"failedRequests"`
	ConsoleErrors  []string        `json:"consoleErrors"`
}

func newResult(route string) Result {
	return Result{
		Route:          route,
		Name:           route[strings.LastIndex(route, "/")+1:],
		Status:         StatusUnknown,
		Mode:           ModeUnknown,
		Errors:         []string{},
		Warnings:       []string{},
		FailedRequests: []FailedRequest{},
		ConsoleErrors:  []string{},
	}
}

// LoadError wraps a navigation failure for one route.
type LoadError struct {
	Route string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Route, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
