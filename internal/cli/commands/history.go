package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/pkg/archive"
	"github.com/c4r-dev/actilog/pkg/config"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(g *GlobalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [YYYY-MM-DD]",
		Short: "List archived daily summaries",
		Long: `List the days archived in the sqlite database configured by archive.path,
newest first. With a date, print that day's archived summary JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			cfg, err := g.loadConfig(ctx)
			if err != nil {
				return err
			}
			if !cfg.Archive.Enabled() {
				return fmt.Errorf("archive.path is not configured (set it in the config file or %s)", config.EnvArchive)
			}

			store, err := archive.Open(ctx, cfg.Archive.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				payload, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(payload))
				return nil
			}

			entries, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No archived summaries.")
				return nil
			}

			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-12s %9s %7s %9s %8s %9s", "DATE", "REQUESTS", "ERRORS", "SESSIONS", "AVG MS", "RECS")))
			for _, e := range entries {
				fmt.Fprintf(out, "%s %9d %7s %9d %8.0f %9d\n",
					dateStyle.Render(fmt.Sprintf("%-12s", e.Date)),
					e.TotalRequests,
					countStyle.Render(fmt.Sprintf("%7d", e.TotalErrors)),
					e.TotalSessions,
					e.AvgResponseMS,
					e.Recommendations,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 30, "Number of days to list (0 for all)")
	return cmd
}
