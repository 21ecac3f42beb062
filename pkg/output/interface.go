// Package output renders daily summaries and writes analysis artifacts.
package output

import (
	"context"
	"fmt"
	"io"

	"github.com/c4r-dev/actilog/pkg/analyzer"
)

// Formatter renders a daily summary in a specific format.
type Formatter interface {
	// Format renders the summary to the given writer.
	Format(ctx context.Context, summary *analyzer.DailySummary, w io.Writer) error

	// Name returns the format name (json, markdown, text).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds detail such as recent errors and journey patterns.
	Verbose bool

	// Quiet reduces output to the headline counts.
	Quiet bool
}

// Format names accepted by NewFormatter.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(opts), nil
	case FormatText:
		return NewTextFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (valid: json, markdown, text)", name)
	}
}
