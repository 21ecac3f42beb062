package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
log_dir: /var/log/c4r
analysis:
  correlation_window: 2s
  recent_errors: 5
thresholds:
  errors: 3
smoke:
  base_url: http://activities.local:8080/
  routes:
    - /causality/jhu-flu-dag-v1
  delay: 0s
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogDir != "/var/log/c4r" {
		t.Errorf("LogDir = %q, want /var/log/c4r", cfg.LogDir)
	}
	if cfg.Analysis.CorrelationWindow != 2*time.Second {
		t.Errorf("CorrelationWindow = %v, want 2s", cfg.Analysis.CorrelationWindow)
	}
	if cfg.Analysis.JourneyWindow != DefaultJourneyWindow {
		t.Errorf("JourneyWindow = %v, want default %v", cfg.Analysis.JourneyWindow, DefaultJourneyWindow)
	}
	if cfg.Analysis.RecentErrors != 5 {
		t.Errorf("RecentErrors = %d, want 5", cfg.Analysis.RecentErrors)
	}
	if cfg.Thresholds.Errors != 3 {
		t.Errorf("Thresholds.Errors = %d, want 3", cfg.Thresholds.Errors)
	}
	if cfg.Thresholds.SlowRequests != DefaultSlowRequestThreshold {
		t.Errorf("Thresholds.SlowRequests = %d, want default", cfg.Thresholds.SlowRequests)
	}
	if cfg.Smoke.BaseURL != "http://activities.local:8080" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Smoke.BaseURL)
	}
	if len(cfg.Smoke.Routes) != 1 {
		t.Errorf("Routes = %d, want 1 (file replaces defaults)", len(cfg.Smoke.Routes))
	}
	if cfg.Smoke.Delay != 0 {
		t.Errorf("Delay = %v, want 0", cfg.Smoke.Delay)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv(EnvLogDir, "")
	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogDir != DefaultLogDir {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, DefaultLogDir)
	}
	if len(cfg.Smoke.Routes) != len(DefaultRoutes) {
		t.Errorf("Routes = %d, want %d", len(cfg.Smoke.Routes), len(DefaultRoutes))
	}
	if got := cfg.ResolvedAnalysisDir(); got != filepath.Join(DefaultLogDir, "analysis") {
		t.Errorf("ResolvedAnalysisDir() = %q", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `invalid: yaml: content: [`
	path := writeTempFile(t, "invalid.yaml", content)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvLogDir, "/tmp/override-logs")
	t.Setenv(EnvAnalysisDir, "/tmp/override-analysis")
	t.Setenv(EnvBaseURL, "https://staging.example.com")
	t.Setenv(EnvArchive, "/tmp/archive.db")
	t.Setenv(EnvListen, "127.0.0.1:9999")
	t.Setenv(EnvChromePath, "/opt/chromium/chrome")

	path := writeTempFile(t, "config.yaml", "log_dir: ./from-file\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogDir != "/tmp/override-logs" {
		t.Errorf("LogDir = %q, want env override", cfg.LogDir)
	}
	if cfg.ResolvedAnalysisDir() != "/tmp/override-analysis" {
		t.Errorf("AnalysisDir = %q, want env override", cfg.ResolvedAnalysisDir())
	}
	if cfg.Smoke.BaseURL != "https://staging.example.com" {
		t.Errorf("BaseURL = %q, want env override", cfg.Smoke.BaseURL)
	}
	if !cfg.Archive.Enabled() || cfg.Archive.Path != "/tmp/archive.db" {
		t.Errorf("Archive = %+v, want env override", cfg.Archive)
	}
	if cfg.Server.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %q, want env override", cfg.Server.Listen)
	}
	if cfg.Smoke.ChromePath != "/opt/chromium/chrome" {
		t.Errorf("ChromePath = %q, want env override", cfg.Smoke.ChromePath)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("LoadDotEnv() error = %v, want nil", err)
		}
	})

	t.Run("values are exported", func(t *testing.T) {
		t.Setenv("ACTILOG_TEST_DOTENV", "")
		os.Unsetenv("ACTILOG_TEST_DOTENV")
		path := writeTempFile(t, ".env", "ACTILOG_TEST_DOTENV=from-dotenv\n")
		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv() error = %v", err)
		}
		if got := os.Getenv("ACTILOG_TEST_DOTENV"); got != "from-dotenv" {
			t.Errorf("ACTILOG_TEST_DOTENV = %q, want from-dotenv", got)
		}
	})
}

func TestValidate_EmptyLogDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogDir = "  "
	if err := Validate(cfg); err == nil {
		t.Error("Validate() expected error for empty log_dir")
	}
}

func TestValidate_FillsAnalysisDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis = AnalysisConfig{}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	a := cfg.Analysis
	if a.CorrelationWindow != DefaultCorrelationWindow {
		t.Errorf("CorrelationWindow = %v", a.CorrelationWindow)
	}
	if a.JourneyWindow != DefaultJourneyWindow {
		t.Errorf("JourneyWindow = %v", a.JourneyWindow)
	}
	if a.RecentErrors != DefaultRecentErrors {
		t.Errorf("RecentErrors = %d", a.RecentErrors)
	}
	if len(a.FrameworkContexts) != 3 {
		t.Errorf("FrameworkContexts = %v", a.FrameworkContexts)
	}
	if a.SlowEndpointLimit != 5 || a.PatternLimit != 10 || a.DetailedCorrLimit != 20 {
		t.Errorf("limits = %d/%d/%d, want 5/10/20", a.SlowEndpointLimit, a.PatternLimit, a.DetailedCorrLimit)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative correlation window", func(c *Config) { c.Analysis.CorrelationWindow = -time.Second }},
		{"negative journey window", func(c *Config) { c.Analysis.JourneyWindow = -time.Second }},
		{"negative error threshold", func(c *Config) { c.Thresholds.Errors = -1 }},
		{"negative slow threshold", func(c *Config) { c.Thresholds.SlowRequests = -1 }},
		{"negative framework threshold", func(c *Config) { c.Thresholds.UnknownFrameworks = -1 }},
		{"base url without scheme", func(c *Config) { c.Smoke.BaseURL = "localhost:3333" }},
		{"base url ftp", func(c *Config) { c.Smoke.BaseURL = "ftp://localhost" }},
		{"relative route", func(c *Config) { c.Smoke.Routes = []string{"tools/c4r-v0"} }},
		{"negative delay", func(c *Config) { c.Smoke.Delay = -time.Second }},
		{"negative settle", func(c *Config) { c.Smoke.Settle = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Smoke.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.Smoke.BaseURL, DefaultBaseURL)
	}
	if cfg.Smoke.ResultsFile != DefaultResultsFile {
		t.Errorf("ResultsFile = %q", cfg.Smoke.ResultsFile)
	}
	if cfg.Archive.Enabled() {
		t.Error("Archive should be disabled by default")
	}

	// Mutating the copy must not leak into the package defaults.
	cfg.Smoke.Routes[0] = "/mutated"
	if DefaultRoutes[0] == "/mutated" {
		t.Error("DefaultConfig() shares the DefaultRoutes backing array")
	}
}

func TestValidate_Webhook_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{
		Name:    "slack",
		URL:     "https://hooks.slack.com/services/xxx",
		Token:   "secret",
		Trigger: WebhookTriggerAlways,
		Timeout: 5 * time.Second,
	}}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Webhook_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
	}{
		{"missing url", WebhookConfig{Name: "x"}},
		{"invalid scheme", WebhookConfig{URL: "ftp://example.com/hook"}},
		{"missing host", WebhookConfig{URL: "https:///hook"}},
		{"invalid trigger", WebhookConfig{URL: "https://example.com/hook", Trigger: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}
			if err := Validate(cfg); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestValidate_Webhook_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/hook"}}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Webhooks[0].Trigger != WebhookTriggerOnIssues {
		t.Errorf("Trigger = %q, want on_issues", cfg.Webhooks[0].Trigger)
	}
	if cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Webhooks[0].Timeout, DefaultWebhookTimeout)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		got := expandEnvVar(tt.input)
		if got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	t.Setenv("ACTILOG_HOOK_TOKEN", "from-env")
	content := `
log_dir: ./logs
webhooks:
  - name: ops
    url: https://ops.example.com/hook
    token: ${ACTILOG_HOOK_TOKEN}
    trigger: always
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Webhooks) != 1 {
		t.Fatalf("Webhooks = %d, want 1", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Token != "from-env" {
		t.Errorf("Token = %q, want from-env", cfg.Webhooks[0].Token)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerAlways {
		t.Errorf("Trigger = %q, want always", cfg.Webhooks[0].Trigger)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
