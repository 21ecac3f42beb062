package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
// An empty path yields the defaults with environment overrides applied.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ApplyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks a configuration for errors and fills unset values with defaults.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.LogDir) == "" {
		return errors.New("log_dir: a log directory is required")
	}

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if err := validateThresholds(&cfg.Thresholds); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	if err := validateSmoke(&cfg.Smoke); err != nil {
		return fmt.Errorf("smoke: %w", err)
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateAnalysis(a *AnalysisConfig) error {
	if a.CorrelationWindow < 0 {
		return errors.New("correlation_window must not be negative")
	}
	if a.CorrelationWindow == 0 {
		a.CorrelationWindow = DefaultCorrelationWindow
	}

	if a.JourneyWindow < 0 {
		return errors.New("journey_window must not be negative")
	}
	if a.JourneyWindow == 0 {
		a.JourneyWindow = DefaultJourneyWindow
	}

	if a.RecentErrors <= 0 {
		a.RecentErrors = DefaultRecentErrors
	}
	if len(a.FrameworkContexts) == 0 {
		a.FrameworkContexts = append([]string(nil), DefaultFrameworkContexts...)
	}
	if a.SlowEndpointLimit <= 0 {
		a.SlowEndpointLimit = DefaultSlowEndpointLimit
	}
	if a.PatternLimit <= 0 {
		a.PatternLimit = DefaultPatternLimit
	}
	if a.DetailedCorrLimit <= 0 {
		a.DetailedCorrLimit = DefaultDetailedCorrLimit
	}

	return nil
}

func validateThresholds(t *ThresholdConfig) error {
	if t.SlowRequests < 0 {
		return errors.New("slow_requests must not be negative")
	}
	if t.Errors < 0 {
		return errors.New("errors must not be negative")
	}
	if t.UnknownFrameworks < 0 {
		return errors.New("unknown_frameworks must not be negative")
	}
	return nil
}

func validateSmoke(s *SmokeConfig) error {
	if err := validateHTTPURL(s.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")

	for i, route := range s.Routes {
		if !strings.HasPrefix(route, "/") {
			return fmt.Errorf("routes[%d]: %q must start with /", i, route)
		}
	}

	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.Settle < 0 {
		return errors.New("settle must not be negative")
	}
	if s.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	if s.SlowLoad <= 0 {
		s.SlowLoad = DefaultSlowLoad
	}
	if s.ResultsFile == "" {
		s.ResultsFile = DefaultResultsFile
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	if err := validateHTTPURL(wh.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnIssues
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
