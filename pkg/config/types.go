// Package config provides configuration loading and validation for actilog.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogDir holds the five JSONL streams (app, errors, activities, performance, browser).
	LogDir string `yaml:"log_dir"`

	// AnalysisDir receives daily-summary and llm-report artifacts.
	// Defaults to <log_dir>/analysis.
	AnalysisDir string `yaml:"analysis_dir,omitempty"`

	Analysis   AnalysisConfig  `yaml:"analysis"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Smoke      SmokeConfig     `yaml:"smoke"`
	Server     ServerConfig    `yaml:"server"`
	Archive    ArchiveConfig   `yaml:"archive"`
	Webhooks   []WebhookConfig `yaml:"webhooks,omitempty"`
}

// AnalysisConfig tunes the correlation passes and list limits.
type AnalysisConfig struct {
	// CorrelationWindow is the pairwise browser/server matching window.
	CorrelationWindow time.Duration `yaml:"correlation_window"`

	// JourneyWindow is the looser window used when attaching server
	// requests to a whole journey.
	JourneyWindow time.Duration `yaml:"journey_window"`

	// RecentErrors is how many trailing error records are copied verbatim.
	RecentErrors int `yaml:"recent_errors"`

	// FrameworkContexts are the error contexts counted as framework errors.
	FrameworkContexts []string `yaml:"framework_contexts"`

	SlowEndpointLimit int `yaml:"slow_endpoint_limit"`
	PatternLimit      int `yaml:"pattern_limit"`
	DetailedCorrLimit int `yaml:"detailed_correlation_limit"`
}

// ThresholdConfig holds the recommendation trigger levels. A recommendation
// fires when the observed count is strictly greater than the threshold.
type ThresholdConfig struct {
	SlowRequests      int `yaml:"slow_requests"`
	Errors            int `yaml:"errors"`
	UnknownFrameworks int `yaml:"unknown_frameworks"`
}

// SmokeConfig configures the activity smoke tester.
type SmokeConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Routes      []string      `yaml:"routes,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	Settle      time.Duration `yaml:"settle"`
	Delay       time.Duration `yaml:"delay"`
	SlowLoad    time.Duration `yaml:"slow_load"`
	ResultsFile string        `yaml:"results_file"`

	// ChromePath is the Chrome or Chromium binary. Empty searches the usual locations.
	ChromePath string `yaml:"chrome_path,omitempty"`
}

// ServerConfig configures the HTTP API started by `actilog serve`.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// ArchiveConfig configures the sqlite summary archive. An empty path disables it.
type ArchiveConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Enabled reports whether summaries should be archived.
func (a ArchiveConfig) Enabled() bool {
	return a.Path != ""
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when the summary carries recommendations (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every summary.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending daily summaries.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_issues" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ResolvedAnalysisDir returns the artifact directory, falling back to <log_dir>/analysis.
func (c *Config) ResolvedAnalysisDir() string {
	if c.AnalysisDir != "" {
		return c.AnalysisDir
	}
	return filepath.Join(c.LogDir, "analysis")
}
