// Package cli provides the command-line interface for actilog.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/internal/cli/commands"
	"github.com/c4r-dev/actilog/internal/cli/plugins"
	"github.com/c4r-dev/actilog/pkg/config"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(NewRootCommand(), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	commands.ExitCode = commands.ExitOK

	// Unknown subcommands are handed to an actilog-<name> plugin when one exists
	name := pluginCandidate(rootCmd, args)
	if name != "" {
		if path, err := plugins.Find(name); err == nil {
			return plugins.Run(context.Background(), path, args[1:], os.Stdin, rootCmd.OutOrStdout(), rootCmd.ErrOrStderr())
		}
	}

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		if name != "" {
			_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), plugins.NotFoundMessage(name))
			return commands.ExitError
		}
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return commands.ExitError
	}
	return commands.ExitCode
}

// pluginCandidate returns the first argument when it names no built-in command.
func pluginCandidate(rootCmd *cobra.Command, args []string) string {
	if len(args) == 0 || args[0] == "" || strings.HasPrefix(args[0], "-") {
		return ""
	}
	if isBuiltinCommand(rootCmd, args[0]) {
		return ""
	}
	return args[0]
}

func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "actilog",
		Short: "Analyze activity server logs and smoke test deployed activities",
		Long: `actilog reads the JSONL logs written by the activity server (app, errors,
activities, performance, browser), reduces one day into a JSON summary and a
Markdown report, and load-tests every deployed activity.

Configuration is optional. Without --config the built-in defaults are used;
a .env file in the working directory and ACTILOG_* variables override them.

Exit codes:
  0 - Success
  1 - Problems detected (broken activities, or recommendations with
      --fail-on-recommendations)
  2 - Configuration or runtime error

Plugins:
  An unknown command foo runs the binary actilog-foo found next to actilog,
  in ~/.actilog/plugins/, or anywhere in PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(".env")
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&g.LogDir, "log-dir", "", "Log directory (overrides log_dir)")
	rootCmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "Verbose output and debug logging")

	// Add subcommands
	rootCmd.AddCommand(commands.NewSummaryCommand(g))
	rootCmd.AddCommand(commands.NewReportCommand(g))
	rootCmd.AddCommand(commands.NewTimelineCommand(g))
	rootCmd.AddCommand(commands.NewSmokeCommand(g))
	rootCmd.AddCommand(commands.NewServeCommand(g))
	rootCmd.AddCommand(commands.NewGenerateCommand(g))
	rootCmd.AddCommand(commands.NewHistoryCommand(g))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
