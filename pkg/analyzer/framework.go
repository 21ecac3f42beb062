package analyzer

import (
	"slices"
	"strings"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

const (
	contextNextInit       = "nextjs_init"
	contextAssetHandler   = "nextjs_asset_handler"
	contextDetection      = "framework_detection"
	eventFrameworkUnknown = "framework_unknown"
)

// AnalyzeFramework counts errors raised by framework handling and app
// events where no framework could be detected.
func AnalyzeFramework(app []*eventlog.AppEvent, errs []*eventlog.ErrorEvent, contexts []string) FrameworkAnalysis {
	out := FrameworkAnalysis{DetectionFailures: []DetectionFailure{}}

	for _, e := range errs {
		if e.Context == "" || !slices.Contains(contexts, e.Context) {
			continue
		}
		out.FrameworkErrors++

		switch e.Context {
		case contextNextInit:
			out.CommonIssues.NextInitFailures++
		case contextAssetHandler:
			out.CommonIssues.AssetLoadingIssues++
		case contextDetection:
			out.CommonIssues.DetectionFailures++
		}
		if strings.Contains(e.ErrorMessage(), "config") {
			out.CommonIssues.ConfigurationIssues++
		}
	}

	for _, a := range app {
		if a.Event == eventFrameworkUnknown {
			out.UnknownDetections++
			out.DetectionFailures = append(out.DetectionFailures, DetectionFailure{
				Path:      a.Path,
				Timestamp: a.Timestamp,
			})
		}
	}

	return out
}
