// Package analyzer reduces a day of activity server logs into a DailySummary.
package analyzer

// DailySummary is the full aggregate for one calendar day across all streams.
// Field order and JSON names follow the summary artifact consumers already read.
type DailySummary struct {
	Date            string                    `json:"date"`
	GeneratedAt     string                    `json:"generated_at"`
	Overview        Overview                  `json:"overview"`
	Errors          ErrorAnalysis             `json:"error_analysis"`
	Performance     PerformanceAnalysis       `json:"performance_analysis"`
	Activities      ActivityAnalysis          `json:"activity_analysis"`
	Framework       FrameworkAnalysis         `json:"framework_issues"`
	Browser         BrowserAnalysis           `json:"browser_analysis"`
	Journeys        JourneyAnalysis           `json:"user_journey_analysis"`
	Correlation     CorrelationAnalysis       `json:"correlation_analysis"`
	Recommendations []Recommendation          `json:"recommendations"`
	LogStats        map[string]StreamLogStats `json:"log_stats"`
}

// HasRecommendations reports whether any threshold rule fired.
func (s *DailySummary) HasRecommendations() bool {
	return len(s.Recommendations) > 0
}

// Overview holds the headline counts.
type Overview struct {
	TotalRequests      int `json:"total_requests"`
	TotalErrors        int `json:"total_errors"`
	ActivitiesAccessed int `json:"activities_accessed"`
	ServerRestarts     int `json:"server_restarts"`
}

// ErrorAnalysis summarizes errors.jsonl.
type ErrorAnalysis struct {
	TotalErrors      int               `json:"total_errors"`
	ErrorsByType     Tally             `json:"errors_by_type"`
	ErrorsByContext  Tally             `json:"errors_by_context"`
	RecentErrors     []RecentError     `json:"recent_errors"`
	CriticalPatterns []CriticalPattern `json:"critical_patterns"`
}

// RecentError is a trimmed copy of one error record.
type RecentError struct {
	Timestamp  string `json:"timestamp"`
	Context    string `json:"context"`
	Message    string `json:"message"`
	UserAction string `json:"user_action"`
}

// Severity grades a recurring error message.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CriticalPattern is an error message seen more than once.
type CriticalPattern struct {
	Message     string   `json:"message"`
	Occurrences int      `json:"occurrences"`
	Severity    Severity `json:"severity"`
}

// PerformanceAnalysis summarizes request timings.
type PerformanceAnalysis struct {
	SlowRequestsCount   int                     `json:"slow_requests_count"`
	AverageResponseTime float64                 `json:"average_response_time_ms"`
	SlowestRequest      float64                 `json:"slowest_request"`
	FastestRequest      float64                 `json:"fastest_request"`
	SlowEndpoints       []EndpointCount         `json:"slow_endpoints"`
	Trends              OrderedMap[HourlyTrend] `json:"performance_trends"`
}

// EndpointCount is how often one URL was reported slow.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
}

// HourlyTrend aggregates request_end durations for one hour of the day.
type HourlyTrend struct {
	AvgResponseTime float64 `json:"avg_response_time"`
	RequestCount    int     `json:"request_count"`
}

// ActivityAnalysis summarizes activity registration and init timings.
type ActivityAnalysis struct {
	ByType          Tally               `json:"activities_by_type"`
	ByDomain        Tally               `json:"activities_by_domain"`
	InitTimes       OrderedMap[float64] `json:"nextjs_init_times"`
	AverageInitTime float64             `json:"average_init_time_ms"`
	SlowestInit     float64             `json:"slowest_init"`
}

// FrameworkAnalysis summarizes framework detection health.
type FrameworkAnalysis struct {
	FrameworkErrors   int                `json:"framework_related_errors"`
	UnknownDetections int                `json:"unknown_framework_detections"`
	CommonIssues      FrameworkIssues    `json:"common_framework_issues"`
	DetectionFailures []DetectionFailure `json:"detection_failures"`
}

// FrameworkIssues buckets framework errors. An error may count both in its
// context bucket and as a configuration issue.
type FrameworkIssues struct {
	NextInitFailures    int `json:"nextjs_init_failures"`
	AssetLoadingIssues  int `json:"asset_loading_issues"`
	DetectionFailures   int `json:"detection_failures"`
	ConfigurationIssues int `json:"configuration_issues"`
}

// DetectionFailure is one framework_unknown event.
type DetectionFailure struct {
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// BrowserAnalysis summarizes browser.jsonl and the sessions it contains.
type BrowserAnalysis struct {
	TotalSessions          int                 `json:"total_sessions"`
	TotalBrowserEvents     int                 `json:"total_browser_events"`
	UniqueUsers            int                 `json:"unique_users"`
	UserActions            Tally               `json:"user_actions"`
	PageViews              Tally               `json:"page_views"`
	BrowserErrors          []BrowserError      `json:"browser_errors"`
	PerformanceMetrics     []PerformanceMetric `json:"performance_metrics"`
	AverageSessionDuration float64             `json:"average_session_duration_ms"`
	SessionStatistics      []SessionStat       `json:"session_statistics"`
}

// BrowserError is a browser record logged at level error.
type BrowserError struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Message   string `json:"message"`
	Activity  string `json:"activity"`
	SessionID string `json:"sessionId"`
}

// PerformanceMetric is one performance_metric browser record.
type PerformanceMetric struct {
	Metric    string   `json:"metric"`
	Value     *float64 `json:"value,omitempty"`
	Activity  string   `json:"activity"`
	Timestamp string   `json:"timestamp"`
}

// SessionStat describes one reconstructed session.
type SessionStat struct {
	SessionID  string `json:"sessionId"`
	DurationMS int64  `json:"duration_ms"`
	EventCount int    `json:"eventCount"`
	Activity   string `json:"activity"`
}

// JourneyAnalysis summarizes merged browser/server journeys.
type JourneyAnalysis struct {
	TotalJourneys           int            `json:"total_journeys"`
	CompletedJourneys       int            `json:"completed_journeys"`
	AverageEventsPerJourney float64        `json:"average_events_per_journey"`
	CommonPatterns          []PatternCount `json:"common_journey_patterns"`
	CompletionRate          float64        `json:"journey_completion_rate"`
}

// PatternCount is a signature and how often it occurred.
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// CorrelationAnalysis summarizes browser-to-server correlation.
type CorrelationAnalysis struct {
	TotalCorrelations    int            `json:"total_correlations"`
	Patterns             []PatternCount `json:"correlation_patterns"`
	DetailedCorrelations []Correlation  `json:"detailed_correlations"`
	SyncRate             float64        `json:"browser_server_sync_rate"`
}

// Correlation pairs one browser event with the server and error events near it.
type Correlation struct {
	BrowserEvent CorrelatedBrowserEvent  `json:"browser_event"`
	ServerEvents []CorrelatedServerEvent `json:"server_events"`
	Errors       []CorrelatedError       `json:"errors"`
}

// CorrelatedBrowserEvent identifies the browser side of a correlation.
type CorrelatedBrowserEvent struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	Activity  string `json:"activity"`
}

// CorrelatedServerEvent is an app event inside the correlation window.
type CorrelatedServerEvent struct {
	Timestamp  string  `json:"timestamp"`
	Event      string  `json:"event"`
	URL        string  `json:"url"`
	DurationMS float64 `json:"duration_ms,omitempty"`
}

// CorrelatedError is an error record inside the correlation window.
type CorrelatedError struct {
	Timestamp string `json:"timestamp"`
	Context   string `json:"context"`
	Message   string `json:"message"`
}

// RecommendationType names the area a recommendation addresses.
type RecommendationType string

const (
	RecommendPerformance RecommendationType = "performance"
	RecommendReliability RecommendationType = "reliability"
	RecommendFramework   RecommendationType = "framework"
)

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Recommendation is the output of one threshold rule.
type Recommendation struct {
	Type       RecommendationType `json:"type"`
	Priority   Priority           `json:"priority"`
	Issue      string             `json:"issue"`
	Suggestion string             `json:"suggestion"`
}

// StreamLogStats reports ingestion for one stream.
type StreamLogStats struct {
	Files          []string `json:"files"`
	RecordsRead    int      `json:"records_read"`
	SkippedLines   int      `json:"skipped_lines"`
	RecordsForDate int      `json:"records_for_date"`
}
