package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/smoke"
)

// openBrowser starts the browser the smoke run drives.
var openBrowser = func(ctx context.Context, cfg config.SmokeConfig, logger *log.Logger) (smoke.Browser, error) {
	return smoke.NewChromeBrowser(ctx, smoke.WithExecPath(cfg.ChromePath), smoke.WithBrowserLogger(logger))
}

// SmokeOptions holds command-line options for the smoke command.
type SmokeOptions struct {
	BaseURL     string
	Routes      []string
	Sample      int
	ResultsFile string
}

// NewSmokeCommand creates the smoke command.
func NewSmokeCommand(g *GlobalOptions) *cobra.Command {
	opts := &SmokeOptions{}

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Load every deployed activity and classify whether it renders",
		Long: `Load each activity route one at a time in headless Chrome, collect console
errors and failed requests, and classify the rendered page as working, fallback,
bootstrap, broken or error. Results are written as a JSON array and a grouped
summary is printed.

Exit codes:
  0 - No activity is broken or errored
  1 - At least one activity is broken or errored
  2 - Configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmoke(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Activity server base URL (overrides smoke.base_url)")
	cmd.Flags().StringSliceVar(&opts.Routes, "route", nil, "Test only these routes (can be repeated)")
	cmd.Flags().IntVar(&opts.Sample, "sample", 0, "Test N randomly chosen routes")
	cmd.Flags().StringVar(&opts.ResultsFile, "results", "", "Results file (overrides smoke.results_file)")

	return cmd
}

func runSmoke(cmd *cobra.Command, g *GlobalOptions, opts *SmokeOptions) error {
	ctx := commandContext(cmd)

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	if opts.Sample < 0 {
		return fmt.Errorf("--sample must not be negative")
	}
	if opts.BaseURL != "" {
		cfg.Smoke.BaseURL = opts.BaseURL
	}
	if opts.ResultsFile != "" {
		cfg.Smoke.ResultsFile = opts.ResultsFile
	}

	routes := cfg.Smoke.Routes
	if len(opts.Routes) > 0 {
		routes = opts.Routes
	}
	if opts.Sample > 0 {
		routes = smoke.Sample(routes, opts.Sample, nil)
	}
	if len(routes) == 0 {
		return fmt.Errorf("no routes to test")
	}

	logger := g.logger(cmd)
	browser, err := openBrowser(ctx, cfg.Smoke, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("closing browser", "err", err)
		}
	}()

	runner := smoke.NewRunner(cfg.Smoke, browser, smoke.WithLogger(logger))
	run, runErr := runner.Run(ctx, routes)

	if err := smoke.WriteResults(cfg.Smoke.ResultsFile, run.Results); err != nil {
		return err
	}
	logger.Info("detailed results saved", "path", cfg.Smoke.ResultsFile)

	if err := smoke.Render(cmd.OutOrStdout(), run); err != nil {
		return fmt.Errorf("rendering results: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("smoke run interrupted: %w", runErr)
	}

	if run.Failed() > 0 {
		ExitCode = ExitProblems
	}
	return nil
}
