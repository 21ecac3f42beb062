package eventlog

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Reader loads streams from a log directory.
type Reader struct {
	dir    string
	logger *log.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for per-file warnings.
func WithLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = l
	}
}

// NewReader creates a Reader over dir.
func NewReader(dir string, opts ...ReaderOption) *Reader {
	r := &Reader{dir: dir, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the log directory.
func (r *Reader) Dir() string {
	return r.dir
}

// Source opens an iterator over every file of a stream.
func (r *Reader) Source(stream Stream) (*FileSource, error) {
	files, err := StreamFiles(r.dir, stream)
	if err != nil {
		return nil, err
	}
	return NewFileSource(stream, files), nil
}

// ReadStream returns every record of a stream in file order. A missing stream
// yields an empty list. Only context cancellation is returned as an error;
// unreadable files are logged and skipped.
func (r *Reader) ReadStream(ctx context.Context, stream Stream) ([]Record, *StreamStats, error) {
	src, err := r.Source(stream)
	if err != nil {
		r.logger.Warn("cannot list log files", "stream", stream, "err", err)
		return []Record{}, &StreamStats{Files: []string{}}, nil
	}
	defer func() { _ = src.Close() }()

	records := []Record{}
	for {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}

	for _, ferr := range src.FileErrors() {
		r.logger.Warn("skipping unreadable log file", "stream", stream, "err", ferr)
	}
	stats := src.Stats()
	if stats.Skipped > 0 {
		r.logger.Debug("skipped malformed lines", "stream", stream, "count", stats.Skipped)
	}
	return records, stats, nil
}

// Load reads all five streams.
func (r *Reader) Load(ctx context.Context) (*Logs, error) {
	logs := NewLogs()
	for _, stream := range Streams {
		records, stats, err := r.ReadStream(ctx, stream)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			logs.Add(rec)
		}
		logs.Stats[stream] = stats
	}
	return logs, nil
}
