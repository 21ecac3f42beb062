package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/internal/logging"
	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/archive"
	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true).Underline(true)
)

// Diagnostic statuses.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check the log directory and configuration for problems",
		Long: `Check that the configuration loads, the log directory exists, and each of
the five streams can be read. Reports files, records, skipped lines and the
date range found in every stream.

Example:
  actilog diagnose
  actilog diagnose --log-dir ./logs -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &DiagnoseOptions{Verbose: g.Verbose}
			results := runDiagnose(commandContext(cmd), g, opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	return cmd
}

func runDiagnose(ctx context.Context, g *GlobalOptions, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	// 1. Configuration
	if g.ConfigPath != "" {
		result := checkConfigExists(g.ConfigPath)
		results = append(results, result)
		if result.Status == statusError {
			return results
		}
	}
	cfg, result := checkConfigParseable(ctx, g)
	results = append(results, result)
	if result.Status == statusError {
		return results
	}

	// 2. Log directory
	result = checkLogDir(cfg.LogDir)
	results = append(results, result)
	if result.Status == statusError {
		return results
	}

	// 3. Streams
	reader := eventlog.NewReader(cfg.LogDir, eventlog.WithLogger(logging.Discard()))
	for _, s := range eventlog.Streams {
		results = append(results, checkStream(ctx, reader, s, opts))
	}
	results = append(results, checkUnfinishedRequests(ctx, reader))

	// 4. Outputs
	results = append(results, checkAnalysisDir(cfg.ResolvedAnalysisDir()))
	if cfg.Archive.Enabled() {
		results = append(results, checkArchive(ctx, cfg.Archive.Path))
	}

	// 5. Webhooks
	results = append(results, checkWebhooks(cfg, opts)...)

	return results
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = statusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Omit --config to run with the built-in defaults",
		}
		return result
	}
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = statusError
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, g *GlobalOptions) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Configuration",
	}

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = statusOK
	if g.ConfigPath == "" {
		result.Message = "Using built-in defaults"
	} else {
		result.Message = "Config file parsed successfully"
	}
	result.Details = []string{
		fmt.Sprintf("Log directory: %s", cfg.LogDir),
		fmt.Sprintf("Analysis directory: %s", cfg.ResolvedAnalysisDir()),
		fmt.Sprintf("Smoke routes: %d", len(cfg.Smoke.Routes)),
	}
	return cfg, result
}

func checkLogDir(dir string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log Directory",
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		result.Status = statusError
		result.Message = fmt.Sprintf("Directory does not exist: %s", dir)
		result.Suggests = []string{
			"Pass --log-dir or set log_dir / ACTILOG_LOG_DIR",
			"Run 'actilog generate' to create sample logs",
		}
	case err != nil:
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot access directory: %v", err)
		result.Suggests = []string{"Check directory permissions"}
	case !info.IsDir():
		result.Status = statusError
		result.Message = "Path is a file, not a directory"
	default:
		result.Status = statusOK
		result.Message = fmt.Sprintf("Found: %s", dir)
	}
	return result
}

func checkStream(ctx context.Context, reader *eventlog.Reader, stream eventlog.Stream, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Stream: %s", stream.Filename()),
	}

	records, stats, err := reader.ReadStream(ctx, stream)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Read interrupted: %v", err)
		return result
	}

	if len(stats.Files) == 0 {
		result.Status = statusWarning
		result.Message = "No files found (treated as an empty stream)"
		return result
	}

	days := map[string]int{}
	unparsed := 0
	for _, rec := range records {
		h := rec.Meta()
		if !h.HasTime() {
			unparsed++
			continue
		}
		days[h.Time.Format("2006-01-02")]++
	}

	total := stats.Records + stats.Skipped
	result.Details = append(result.Details, fmt.Sprintf("Files: %s", strings.Join(stats.Files, ", ")))
	if len(days) > 0 {
		keys := make([]string, 0, len(days))
		for d := range days {
			keys = append(keys, d)
		}
		sort.Strings(keys)
		result.Details = append(result.Details, fmt.Sprintf("Date range: %s to %s (%d days)", keys[0], keys[len(keys)-1], len(keys)))
		if opts.Verbose {
			for _, d := range keys {
				result.Details = append(result.Details, fmt.Sprintf("%s: %d records", d, days[d]))
			}
		}
	}

	switch {
	case stats.Records == 0 && stats.Skipped > 0:
		result.Status = statusError
		result.Message = fmt.Sprintf("All %d lines are malformed", stats.Skipped)
		result.Suggests = []string{"Each line must be one JSON object"}
	case stats.Skipped > 0:
		result.Status = statusWarning
		result.Message = fmt.Sprintf("%d records, %d of %d lines skipped (%.1f%%)",
			stats.Records, stats.Skipped, total, float64(stats.Skipped)/float64(total)*100)
		result.Suggests = []string{"Malformed or truncated lines are dropped from analysis"}
	case unparsed > 0:
		result.Status = statusWarning
		result.Message = fmt.Sprintf("%d records, %d without a parseable timestamp", stats.Records, unparsed)
		result.Details = append(result.Details, "Records without a timestamp are excluded from correlation and journeys")
	default:
		result.Status = statusOK
		result.Message = fmt.Sprintf("%d records", stats.Records)
	}
	return result
}

// unfinishedRequestTimeout is how long a request_start waits for its request_end.
const unfinishedRequestTimeout = 30 * time.Second

func checkUnfinishedRequests(ctx context.Context, reader *eventlog.Reader) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Request Completion",
	}

	records, _, err := reader.ReadStream(ctx, eventlog.StreamApp)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Read interrupted: %v", err)
		return result
	}
	app := make([]*eventlog.AppEvent, 0, len(records))
	for _, rec := range records {
		if a, ok := rec.(*eventlog.AppEvent); ok {
			app = append(app, a)
		}
	}

	open := analyzer.UnfinishedRequests(app, unfinishedRequestTimeout)
	if len(open) == 0 {
		result.Status = statusOK
		result.Message = "Every request_start has a request_end"
		return result
	}

	result.Status = statusWarning
	result.Message = fmt.Sprintf("%d requests started but did not finish within %s", len(open), unfinishedRequestTimeout)
	for i, r := range open {
		if i == 5 {
			result.Details = append(result.Details, fmt.Sprintf("... and %d more", len(open)-i))
			break
		}
		result.Details = append(result.Details, fmt.Sprintf("%s %s %s (%s:%d)",
			r.RequestID, r.Method, truncate(r.URL, 60), r.Source, r.LineNum))
	}
	result.Suggests = []string{"Requests cut off by a crash or restart never log request_end"}
	return result
}

func checkAnalysisDir(dir string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Analysis Directory",
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		result.Status = statusOK
		result.Message = fmt.Sprintf("%s will be created on first summary", dir)
	case err != nil:
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot access %s: %v", dir, err)
	case !info.IsDir():
		result.Status = statusError
		result.Message = fmt.Sprintf("%s is a file, summaries cannot be written", dir)
	default:
		result.Status = statusOK
		result.Message = fmt.Sprintf("Found: %s", dir)
	}
	return result
}

func checkArchive(ctx context.Context, path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Archive",
	}

	store, err := archive.Open(ctx, path)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot open archive: %v", err)
		result.Suggests = []string{"Check archive.path points to a writable location"}
		return result
	}
	defer store.Close()

	entries, err := store.List(ctx, 0)
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot read archive: %v", err)
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("%s (%d archived days)", path, len(entries))
	return result
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  statusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		issues := []string{}
		warnings := []string{}

		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		switch wh.Trigger {
		case "", config.WebhookTriggerOnIssues, config.WebhookTriggerAlways, config.WebhookTriggerNever:
		default:
			issues = append(issues, fmt.Sprintf("Invalid trigger %q (use on_issues, always, or never)", wh.Trigger))
		}

		// Check if token looks like an unexpanded env var
		if strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", truncate(wh.Token, 24)))
		}

		if len(issues) > 0 {
			result.Status = statusError
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = statusWarning
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = statusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			if wh.URL == "" {
				continue
			}
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// HEAD only: reachability, not a delivery
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}
	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = statusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, sectionStyle.Render("actilog diagnostics"))
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case statusOK:
			icon = successStyle.Render("✅ PASS")
			okCount++
		case statusWarning:
			icon = warningStyle.Render("⚠️  WARN")
			warnCount++
		case statusError:
			icon = errorStyle.Render("❌ FAIL")
			errCount++
		}

		fmt.Fprintf(w, "%s %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != statusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      %s\n", infoStyle.Render("Hint: "+s))
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nLogs are usable but have warnings.")
	} else {
		fmt.Fprintln(w, "\nEverything looks good!")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
