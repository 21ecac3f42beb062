package analyzer

import (
	"context"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

// Loader supplies decoded log streams for one analysis run.
// *eventlog.Reader is the production implementation.
type Loader interface {
	Load(ctx context.Context) (*eventlog.Logs, error)
}
