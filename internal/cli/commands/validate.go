package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate an actilog configuration file without running analysis.

Checks:
  - YAML syntax
  - Analysis windows and thresholds
  - Smoke test base URL and routes
  - Webhook URLs and triggers
  - Log directory existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Log directory:      %s\n", cfg.LogDir)
	fmt.Fprintf(out, "  Analysis directory: %s\n", cfg.ResolvedAnalysisDir())
	fmt.Fprintf(out, "  Correlation window: %s\n", cfg.Analysis.CorrelationWindow)
	fmt.Fprintf(out, "  Journey window:     %s\n", cfg.Analysis.JourneyWindow)
	fmt.Fprintf(out, "  Thresholds:         slow>%d errors>%d unknown>%d\n",
		cfg.Thresholds.SlowRequests, cfg.Thresholds.Errors, cfg.Thresholds.UnknownFrameworks)
	fmt.Fprintf(out, "  Smoke:              %d routes against %s\n", len(cfg.Smoke.Routes), cfg.Smoke.BaseURL)
	fmt.Fprintf(out, "  Webhooks:           %d\n", len(cfg.Webhooks))
	if cfg.Archive.Enabled() {
		fmt.Fprintf(out, "  Archive:            %s\n", cfg.Archive.Path)
	}

	// Log directory is checked but only warned about
	found := 0
	for _, s := range eventlog.Streams {
		files, err := eventlog.StreamFiles(cfg.LogDir, s)
		if err != nil {
			fmt.Fprintf(out, "\nWarning: cannot list %s: %v\n", s.Filename(), err)
			continue
		}
		found += len(files)
	}
	if found == 0 {
		fmt.Fprintf(out, "\nWarning: no log files found in %s\n", cfg.LogDir)
	} else {
		fmt.Fprintf(out, "\nLog files found: %d\n", found)
	}

	return nil
}
