package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultLogDir            = "./logs"
	DefaultCorrelationWindow = 5 * time.Second
	DefaultJourneyWindow     = 30 * time.Second
	DefaultRecentErrors      = 10
	DefaultSlowEndpointLimit = 5
	DefaultPatternLimit      = 10
	DefaultDetailedCorrLimit = 20

	DefaultSlowRequestThreshold      = 5
	DefaultErrorThreshold            = 10
	DefaultUnknownFrameworkThreshold = 0

	DefaultBaseURL     = "http://localhost:3333"
	DefaultTimeout     = 30 * time.Second
	DefaultSettle      = 2 * time.Second
	DefaultDelay       = 1 * time.Second
	DefaultSlowLoad    = 10 * time.Second
	DefaultResultsFile = "activity-test-results.json"

	DefaultListen         = ":3334"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvLogDir      = "ACTILOG_LOG_DIR"
	EnvAnalysisDir = "ACTILOG_ANALYSIS_DIR"
	EnvBaseURL     = "ACTILOG_BASE_URL"
	EnvArchive     = "ACTILOG_ARCHIVE"
	EnvListen      = "ACTILOG_LISTEN"
	EnvChromePath  = "ACTILOG_CHROME_PATH"
)

// DefaultFrameworkContexts are the error contexts attributed to framework
// initialization, asset serving and detection.
var DefaultFrameworkContexts = []string{
	"nextjs_init",
	"nextjs_asset_handler",
	"framework_detection",
}

// DefaultRoutes is the catalogue of deployed activities exercised by `actilog smoke`.
var DefaultRoutes = []string{
	// causality
	"/causality/jhu-flu-dag-v1",
	"/causality/jhu-polio-ice-cream-v1",
	"/causality/jhu-polio-ice-cream-v2",

	// randomization
	"/randomization/smi-ran-all-seqa-v1",
	"/randomization/smi-ran-all-seqb-v1",
	"/randomization/smi-ran-blk-ran-v1",
	"/randomization/smi-ran-blk-ran-v2",
	"/randomization/smi-ran-blk-ran-v3",
	"/randomization/smi-ran-blk-ran-v4",
	"/randomization/smi-ran-ran-flo-v1",
	"/randomization/smi-ran-ran-flo-v2",
	"/randomization/smi-ran-ran-lab-v0",
	"/randomization/smi-ran-ran-lit-v0",
	"/randomization/smi-ran-ran-lit-v1",
	"/randomization/smi-ran-rou-whe-v0",
	"/randomization/smi-ran-simple-ran-v1",
	"/randomization/smi-ran-str-ran-v1",
	"/randomization/smi-ran-why-ran-v0",
	"/randomization/smi-ran-why-ran-v1",
	"/randomization/smi-ran-why-ran-v2",
	"/randomization/smi-ran-why-ran-v3",
	"/randomization/smi-ran-why-ran-v4",

	// coding-practices
	"/coding-practices/hms-aem-rig-fil-v1",
	"/coding-practices/hms-aem-rig-fil-v2",
	"/coding-practices/hms-aem-rig-fil-v3",
	"/coding-practices/hms-bias-map-v0",
	"/coding-practices/hms-cbi-dat-hld-v0",
	"/coding-practices/hms-cbi-dat-hld-v1",
	"/coding-practices/hms-cbi-fav-game-v0",
	"/coding-practices/hms-cbi-fly-gam-v0",
	"/coding-practices/hms-cbi-gar-for-v0",
	"/coding-practices/hms-cbi-hyp-bot-v1",
	"/coding-practices/hms-cbi-pub-bia-v0",
	"/coding-practices/hms-clean-code-comments-v0",
	"/coding-practices/hms-clean-code-org-v0",
	"/coding-practices/hms-cln-cod-cor.v0",
	"/coding-practices/hms-cln-fib-tst-v0",
	"/coding-practices/hms-cln-res-sug-v0",
	"/coding-practices/hms-fun-bld-v0",
	"/coding-practices/hms-int-exe-v0",
	"/coding-practices/hms-wason-246-v1",
	"/coding-practices/hms-wason-246-v2",
	"/coding-practices/hms-wason-246-v2-grid",
	"/coding-practices/hms-wason-246-v2-old",

	// collaboration
	"/collaboration/r2r-audience-prompting-v1",
	"/collaboration/r2r-feed-back-v1",
	"/collaboration/r2r-stats-wizard-v1",
	"/collaboration/r2r-sticky-note-v2",
	"/collaboration/r2r-whiteboard-v1",

	// tools
	"/tools/D3Plots",
	"/tools/DAG-generator",
	"/tools/c4r-component-test",
	"/tools/c4r-email-api",
	"/tools/c4r-team-nextjs-template",
	"/tools/c4r-template-test",
	"/tools/c4r-useqrcode",
	"/tools/c4r-v0",
	"/tools/claude-chat",
	"/tools/clip-repository-v0",
	"/tools/duq-4ws-eva-res-que-v1",
	"/tools/duq-eva-res-que-v1",
	"/tools/duq-finer-v1",
	"/tools/neuroserpin_v0",
	"/tools/observable_plot",
	"/tools/open-ai-testing",
	"/tools/p-hack-v0",
	"/tools/phackingdemo",
	"/tools/wason-2-4-6-next-test",
	"/tools/wason-2-4-6-v0",
	"/tools/activity-template-v0",
	"/tools/activity-template-v1",
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogDir: DefaultLogDir,
		Analysis: AnalysisConfig{
			CorrelationWindow: DefaultCorrelationWindow,
			JourneyWindow:     DefaultJourneyWindow,
			RecentErrors:      DefaultRecentErrors,
			FrameworkContexts: append([]string(nil), DefaultFrameworkContexts...),
			SlowEndpointLimit: DefaultSlowEndpointLimit,
			PatternLimit:      DefaultPatternLimit,
			DetailedCorrLimit: DefaultDetailedCorrLimit,
		},
		Thresholds: ThresholdConfig{
			SlowRequests:      DefaultSlowRequestThreshold,
			Errors:            DefaultErrorThreshold,
			UnknownFrameworks: DefaultUnknownFrameworkThreshold,
		},
		Smoke: SmokeConfig{
			BaseURL:     DefaultBaseURL,
			Routes:      append([]string(nil), DefaultRoutes...),
			Timeout:     DefaultTimeout,
			Settle:      DefaultSettle,
			Delay:       DefaultDelay,
			SlowLoad:    DefaultSlowLoad,
			ResultsFile: DefaultResultsFile,
		},
		Server: ServerConfig{
			Listen: DefaultListen,
		},
	}
}

// ApplyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvironmentOverrides() {
	if dir := os.Getenv(EnvLogDir); dir != "" {
		c.LogDir = dir
	}
	if dir := os.Getenv(EnvAnalysisDir); dir != "" {
		c.AnalysisDir = dir
	}
	if base := os.Getenv(EnvBaseURL); base != "" {
		c.Smoke.BaseURL = base
	}
	if path := os.Getenv(EnvArchive); path != "" {
		c.Archive.Path = path
	}
	if listen := os.Getenv(EnvListen); listen != "" {
		c.Server.Listen = listen
	}
	if chrome := os.Getenv(EnvChromePath); chrome != "" {
		c.Smoke.ChromePath = chrome
	}
}
