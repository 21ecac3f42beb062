package analyzer

import "github.com/c4r-dev/actilog/pkg/eventlog"

const (
	eventActivityRegistered = "activity_registered"
	eventNextInit           = "nextjs_init"
)

// AnalyzeActivities tallies registrations by type and domain and collects
// the last reported Next.js init time per activity.
func AnalyzeActivities(records []*eventlog.ActivityEvent) ActivityAnalysis {
	var out ActivityAnalysis
	for _, r := range records {
		if r.Event == eventActivityRegistered {
			out.ByType.Inc(orUnknown(r.Type, "unknown"))
			out.ByDomain.Inc(orUnknown(r.Domain, "unknown"))
		}
		if r.Event == eventNextInit && r.DurationMS != 0 {
			out.InitTimes.Set(orUnknown(r.Activity, "unknown"), r.DurationMS)
		}
	}

	times := out.InitTimes.Values()
	out.AverageInitTime = round(mean(times))
	out.SlowestInit = maxOrZero(times)
	return out
}

// ActivitiesAccessed counts distinct registered activity names.
func ActivitiesAccessed(records []*eventlog.ActivityEvent) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.Event == eventActivityRegistered {
			seen[r.Name] = struct{}{}
		}
	}
	return len(seen)
}
