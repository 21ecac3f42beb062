package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/archive"
	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/output"
	"github.com/c4r-dev/actilog/pkg/webhook"
)

// DailyOptions holds command-line options for the summary and report commands.
type DailyOptions struct {
	Format                string
	Quiet                 bool
	FailOnRecommendations bool
	NoWrite               bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(g *GlobalOptions) *cobra.Command {
	opts := &DailyOptions{}

	cmd := &cobra.Command{
		Use:   "summary [YYYY-MM-DD]",
		Short: "Generate the daily JSON summary",
		Long: `Analyze one day of activity server logs and write the JSON summary to
<analysis_dir>/daily-summary-<date>.json. The date defaults to today (UTC).

Exit codes:
  0 - Summary generated
  1 - Recommendations present (with --fail-on-recommendations)
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaily(cmd, args, g, opts, false)
		},
	}

	addDailyFlags(cmd, opts, output.FormatJSON)
	return cmd
}

// NewReportCommand creates the report command.
func NewReportCommand(g *GlobalOptions) *cobra.Command {
	opts := &DailyOptions{}

	cmd := &cobra.Command{
		Use:   "report [YYYY-MM-DD]",
		Short: "Generate the daily summary and Markdown report",
		Long: `Analyze one day of activity server logs, write the JSON summary and render
the Markdown report to <analysis_dir>/llm-report-<date>.md.

Exit codes:
  0 - Report generated
  1 - Recommendations present (with --fail-on-recommendations)
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaily(cmd, args, g, opts, true)
		},
	}

	addDailyFlags(cmd, opts, output.FormatMarkdown)
	return cmd
}

func addDailyFlags(cmd *cobra.Command, opts *DailyOptions, format string) {
	cmd.Flags().StringVarP(&opts.Format, "format", "f", format, "Output format (json|markdown|text)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Headline counts only")
	cmd.Flags().BoolVar(&opts.FailOnRecommendations, "fail-on-recommendations", false, "Exit 1 when recommendations are present")
	cmd.Flags().BoolVar(&opts.NoWrite, "no-write", false, "Print only, do not write analysis artifacts")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")
}

func runDaily(cmd *cobra.Command, args []string, g *GlobalOptions, opts *DailyOptions, withReport bool) error {
	ctx := commandContext(cmd)
	now := clock()

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	logger := g.logger(cmd)

	date, err := resolveDate(args, now)
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(opts.Format, output.FormatOptions{Verbose: g.Verbose, Quiet: opts.Quiet})
	if err != nil {
		return err
	}

	a := analyzer.FromConfig(cfg, analyzer.WithClock(now))
	summary, err := a.Daily(ctx, g.reader(cmd, cfg), date)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if !opts.NoWrite {
		if err := writeArtifacts(cfg, summary, withReport, logger); err != nil {
			return err
		}
	}

	if err := formatter.Format(ctx, summary, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	archiveSummary(ctx, cfg, summary, logger)

	// Send webhooks (errors logged but don't fail analysis)
	webhook.NewClient().Notify(ctx, collectWebhooks(cfg, opts), summary, logger)

	if opts.FailOnRecommendations && summary.HasRecommendations() {
		ExitCode = ExitProblems
	}

	return nil
}

func writeArtifacts(cfg *config.Config, summary *analyzer.DailySummary, withReport bool, logger *log.Logger) error {
	dir := cfg.ResolvedAnalysisDir()

	path, err := output.WriteSummary(dir, summary)
	if err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	logger.Info("daily summary generated", "date", summary.Date, "path", path)

	if withReport {
		_, reportPath, err := output.WriteReport(dir, summary)
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info("LLM report generated", "path", reportPath)
	}
	return nil
}

// archiveSummary upserts the summary when an archive is configured. Failures
// are logged and do not fail the command.
func archiveSummary(ctx context.Context, cfg *config.Config, summary *analyzer.DailySummary, logger *log.Logger) {
	if !cfg.Archive.Enabled() {
		return
	}
	store, err := archive.Open(ctx, cfg.Archive.Path)
	if err != nil {
		logger.Warn("archive unavailable", "err", err)
		return
	}
	defer store.Close()

	if err := store.Save(ctx, summary); err != nil {
		logger.Warn("archiving failed", "err", err)
		return
	}
	logger.Debug("summary archived", "date", summary.Date, "path", cfg.Archive.Path)
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *DailyOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnIssues
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
