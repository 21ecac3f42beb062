package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// TimelineOptions holds command-line options for the timeline command.
type TimelineOptions struct {
	Session string
	Streams []string
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(g *GlobalOptions) *cobra.Command {
	opts := &TimelineOptions{}

	cmd := &cobra.Command{
		Use:   "timeline [YYYY-MM-DD]",
		Short: "Print one day of events from every stream in time order",
		Long: `Merge all five log streams by timestamp and print one line per event.

With --session only browser events of that session (or correlation id) and
server records carrying it as their request id are printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Session, "session", "s", "", "Only events for this session, correlation or request id")
	cmd.Flags().StringSliceVar(&opts.Streams, "stream", nil, "Limit to these streams (can be repeated)")

	return cmd
}

func runTimeline(cmd *cobra.Command, args []string, g *GlobalOptions, opts *TimelineOptions) error {
	ctx := commandContext(cmd)

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	date, err := resolveDate(args, clock())
	if err != nil {
		return err
	}

	streams := eventlog.Streams
	if len(opts.Streams) > 0 {
		streams = nil
		for _, name := range opts.Streams {
			s, err := eventlog.ParseStream(name)
			if err != nil {
				return err
			}
			streams = append(streams, s)
		}
	}

	reader := g.reader(cmd, cfg)
	sources := make([]eventlog.Source, 0, len(streams))
	for _, s := range streams {
		src, err := reader.Source(s)
		if err != nil {
			return fmt.Errorf("opening %s stream: %w", s, err)
		}
		sources = append(sources, src)
	}
	merged := eventlog.NewMergedSource(sources...)
	defer merged.Close()

	out := cmd.OutOrStdout()
	printed := 0
	for {
		rec, err := merged.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !strings.HasPrefix(rec.Meta().Timestamp, date) || !matchesSession(rec, opts.Session) {
			continue
		}
		fmt.Fprintln(out, timelineLine(rec))
		printed++
	}

	g.logger(cmd).Debug("timeline printed", "date", date, "events", printed)
	if printed == 0 {
		fmt.Fprintf(out, "No events for %s.\n", date)
	}
	return nil
}

func matchesSession(rec eventlog.Record, id string) bool {
	if id == "" {
		return true
	}
	switch r := rec.(type) {
	case *eventlog.BrowserEvent:
		return r.SessionKey() == id || r.CorrelationID == id
	case *eventlog.AppEvent:
		return r.RequestID == id
	case *eventlog.PerfEvent:
		return r.RequestID == id
	default:
		return false
	}
}

func timelineLine(rec eventlog.Record) string {
	h := rec.Meta()
	ts := h.Timestamp
	if ts == "" {
		ts = "-"
	}
	event := h.Event
	if event == "" {
		event = "-"
	}
	return fmt.Sprintf("%-24s %-11s %-22s %s", ts, rec.Stream(), event, timelineDetail(rec))
}

func timelineDetail(rec eventlog.Record) string {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+"="+value)
		}
	}

	switch r := rec.(type) {
	case *eventlog.AppEvent:
		add("method", r.Method)
		add("url", r.URL)
		if r.StatusCode != 0 {
			add("status", fmt.Sprint(r.StatusCode))
		}
		if r.DurationMS != 0 {
			add("duration_ms", fmt.Sprint(r.DurationMS))
		}
	case *eventlog.ErrorEvent:
		add("context", r.Context)
		add("error", r.ErrorMessage())
	case *eventlog.ActivityEvent:
		add("name", r.Name)
		add("activity", r.Activity)
		add("domain", r.Domain)
	case *eventlog.PerfEvent:
		add("url", r.URL)
		if r.DurationMS != 0 {
			add("duration_ms", fmt.Sprint(r.DurationMS))
		}
	case *eventlog.BrowserEvent:
		add("session", r.SessionKey())
		add("activity", r.Activity)
		add("action", r.Action)
		add("metric", r.Metric)
		if r.Value != nil {
			add("value", fmt.Sprint(*r.Value))
		}
	}
	if len(parts) == 0 {
		return rec.Meta().Message
	}
	return strings.Join(parts, " ")
}
