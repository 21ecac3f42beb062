package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// DateLayout is the calendar day format accepted for analysis.
const DateLayout = "2006-01-02"

// generatedAtLayout matches JavaScript's Date.prototype.toISOString.
const generatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// ValidateDate checks that date is a real YYYY-MM-DD calendar day.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, date)
	}
	return nil
}

// Today returns the UTC calendar day of now, the default analysis date.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// Analyzer produces daily summaries. It holds no per-run state and is safe
// for concurrent use.
type Analyzer struct {
	analysis   config.AnalysisConfig
	thresholds config.ThresholdConfig
	now        func() time.Time
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithClock sets the clock used for generated_at.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithAnalysisConfig overrides windows, limits and framework contexts.
func WithAnalysisConfig(cfg config.AnalysisConfig) AnalyzerOption {
	return func(a *Analyzer) {
		a.analysis = cfg
	}
}

// WithThresholds overrides the recommendation thresholds.
func WithThresholds(th config.ThresholdConfig) AnalyzerOption {
	return func(a *Analyzer) {
		a.thresholds = th
	}
}

// NewAnalyzer creates an analyzer with default settings.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	defaults := config.DefaultConfig()
	a := &Analyzer{
		analysis:   defaults.Analysis,
		thresholds: defaults.Thresholds,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromConfig creates an analyzer using the analysis and threshold sections of cfg.
func FromConfig(cfg *config.Config, opts ...AnalyzerOption) *Analyzer {
	base := []AnalyzerOption{WithAnalysisConfig(cfg.Analysis), WithThresholds(cfg.Thresholds)}
	return NewAnalyzer(append(base, opts...)...)
}

// Daily loads every stream and summarizes the given day.
func (a *Analyzer) Daily(ctx context.Context, loader Loader, date string) (*DailySummary, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	logs, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading logs: %w", err)
	}
	return a.Summarize(date, logs)
}

// Summarize filters logs to date and runs every analysis pass. The result is
// a pure function of the records, the configuration and the clock.
func (a *Analyzer) Summarize(date string, logs *eventlog.Logs) (*DailySummary, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	day := logs.ForDate(date)
	cfg := a.analysis

	s := &DailySummary{
		Date:        date,
		GeneratedAt: a.now().UTC().Format(generatedAtLayout),
		Overview: Overview{
			TotalRequests:      countEvents(day.App, eventRequestEnd),
			TotalErrors:        len(day.Errors),
			ActivitiesAccessed: ActivitiesAccessed(day.Activities),
			ServerRestarts:     countEvents(day.App, "server_init_complete"),
		},
		Errors:      AnalyzeErrors(day.Errors, cfg.RecentErrors),
		Performance: AnalyzePerformance(day.Performance, day.App, cfg.SlowEndpointLimit),
		Activities:  AnalyzeActivities(day.Activities),
		Framework:   AnalyzeFramework(day.App, day.Errors, cfg.FrameworkContexts),
		Browser:     AnalyzeBrowser(day.Browser),
		Journeys:    AnalyzeJourneys(day.Browser, day.App, cfg.JourneyWindow, cfg.PatternLimit),
		Correlation: Correlate(day.Browser, day.App, day.Errors,
			cfg.CorrelationWindow, cfg.PatternLimit, cfg.DetailedCorrLimit),
		LogStats: logStats(logs, day),
	}
	s.Recommendations = Recommend(
		s.Performance.SlowRequestsCount,
		s.Overview.TotalErrors,
		s.Framework.UnknownDetections,
		a.thresholds,
	)

	return s, nil
}

func countEvents(app []*eventlog.AppEvent, name string) int {
	n := 0
	for _, a := range app {
		if a.Event == name {
			n++
		}
	}
	return n
}

func logStats(all, day *eventlog.Logs) map[string]StreamLogStats {
	out := make(map[string]StreamLogStats, len(eventlog.Streams))
	for _, stream := range eventlog.Streams {
		st := StreamLogStats{Files: []string{}, RecordsForDate: day.Count(stream)}
		if s, ok := all.Stats[stream]; ok && s != nil {
			st.Files = append(st.Files, s.Files...)
			st.RecordsRead = s.Records
			st.SkippedLines = s.Skipped
		}
		out[string(stream)] = st
	}
	return out
}
