package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/pkg/eventlog"
	"github.com/c4r-dev/actilog/pkg/generator"
)

// GenerateOptions holds command-line options for the generate command.
type GenerateOptions struct {
	Sessions int
	Seed     uint64
	Routes   []string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(g *GlobalOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [YYYY-MM-DD]",
		Short: "Append a synthetic day of logs to the log directory",
		Long: `Write synthetic records for all five streams so the analysis commands have
something to chew on. Output is reproducible for a given --seed. Records are
appended, so running twice doubles the day.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, g, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Sessions, "sessions", 25, "Number of browser sessions")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "Random seed")
	cmd.Flags().StringSliceVar(&opts.Routes, "route", nil, "Activity routes to use (defaults to smoke.routes)")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, g *GlobalOptions, opts *GenerateOptions) error {
	ctx := commandContext(cmd)

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	date, err := resolveDate(args, clock())
	if err != nil {
		return err
	}
	if opts.Sessions < 0 {
		return fmt.Errorf("--sessions must not be negative")
	}

	routes := cfg.Smoke.Routes
	if len(opts.Routes) > 0 {
		routes = opts.Routes
	}

	day, err := generator.New(generator.Options{
		Sessions: opts.Sessions,
		Seed:     opts.Seed,
		Routes:   routes,
		BaseURL:  cfg.Smoke.BaseURL,
	}).Day(date)
	if err != nil {
		return err
	}
	if err := generator.Write(cfg.LogDir, day); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %s into %s\n", date, cfg.LogDir)
	for _, s := range eventlog.Streams {
		fmt.Fprintf(out, "  %-12s %d records\n", s.Filename(), day.Count(s))
	}
	return nil
}
