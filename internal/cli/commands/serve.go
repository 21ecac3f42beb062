package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(g *GlobalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve browser log ingestion and the analysis API",
		Long: `Start an HTTP server that appends browser events to browser.jsonl and
serves summaries and reports on demand.

Routes:
  POST /api/browser-logs         single browser event
  POST /api/browser-logs/batch   {"logs": [...]}
  GET  /api/logs/:type           last 100 records of a stream
  GET  /api/summary/:date        daily summary JSON
  GET  /api/report/:date         daily Markdown report
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := g.loadConfig(ctx)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			logger := g.logger(cmd)
			s := server.New(
				g.reader(cmd, cfg),
				analyzer.FromConfig(cfg, analyzer.WithClock(clock())),
				server.WithLogger(logger),
			)
			return s.ListenAndServe(ctx, cfg.Server.Listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides server.listen)")
	return cmd
}
