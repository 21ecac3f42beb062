package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/c4r-dev/actilog/pkg/analyzer"
)

var errNilSummary = errors.New("nil summary")

// JSONFormatter formats summaries as indented JSON, the same bytes written
// to the daily-summary artifact.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return FormatJSON
}

// Format renders the summary as JSON.
func (f *JSONFormatter) Format(ctx context.Context, summary *analyzer.DailySummary, w io.Writer) error {
	if summary == nil {
		return errNilSummary
	}

	var v any = summary
	if f.opts.Quiet {
		v = summary.Overview
	}
	b, err := marshalIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// MarshalSummary returns the canonical JSON encoding of a summary: two-space
// indent, no HTML escaping, no trailing newline.
func MarshalSummary(summary *analyzer.DailySummary) ([]byte, error) {
	if summary == nil {
		return nil, errNilSummary
	}
	return marshalIndent(summary)
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
