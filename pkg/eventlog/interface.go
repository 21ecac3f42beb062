package eventlog

import "context"

// Source provides an iterator over decoded records.
// Implementations must be safe for sequential access (not concurrent).
type Source interface {
	// Next returns the next decoded record.
	// Returns io.EOF when no more records are available.
	// Lines that are not valid JSON objects are skipped.
	Next(ctx context.Context) (Record, error)

	// Close releases any resources held by the source.
	Close() error
}
