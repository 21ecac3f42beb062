package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/internal/logging"
	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Exit codes.
const (
	ExitOK       = 0
	ExitProblems = 1
	ExitError    = 2
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogDir     string
	Verbose    bool
}

// loadConfig reads the optional config file and applies flag overrides.
func (g *GlobalOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.LogDir != "" {
		cfg.LogDir = g.LogDir
	}
	return cfg, nil
}

func (g *GlobalOptions) logger(cmd *cobra.Command) *log.Logger {
	return logging.New(cmd.ErrOrStderr(), g.Verbose)
}

func (g *GlobalOptions) reader(cmd *cobra.Command, cfg *config.Config) *eventlog.Reader {
	return eventlog.NewReader(cfg.LogDir, eventlog.WithLogger(g.logger(cmd)))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// clock returns the wall clock, or a fixed instant when SOURCE_DATE_EPOCH
// is set so that generated_at is reproducible.
func clock() func() time.Time {
	if v := os.Getenv("SOURCE_DATE_EPOCH"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			fixed := time.Unix(secs, 0).UTC()
			return func() time.Time { return fixed }
		}
	}
	return time.Now
}

// resolveDate returns the date argument, or today when none is given.
func resolveDate(args []string, now func() time.Time) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return analyzer.Today(now()), nil
	}
	if err := analyzer.ValidateDate(args[0]); err != nil {
		return "", err
	}
	return args[0], nil
}
