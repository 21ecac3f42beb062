package analyzer

import (
	"fmt"

	"github.com/c4r-dev/actilog/pkg/config"
)

// Recommend applies the threshold rules in fixed order: performance,
// reliability, framework. A rule fires when its count exceeds its threshold.
func Recommend(slowRequests, errors, unknownFrameworks int, th config.ThresholdConfig) []Recommendation {
	recs := []Recommendation{}

	if slowRequests > th.SlowRequests {
		recs = append(recs, Recommendation{
			Type:       RecommendPerformance,
			Priority:   PriorityHigh,
			Issue:      fmt.Sprintf("%d slow requests detected", slowRequests),
			Suggestion: "Consider caching strategies or optimize slow endpoints",
		})
	}

	if errors > th.Errors {
		recs = append(recs, Recommendation{
			Type:       RecommendReliability,
			Priority:   PriorityHigh,
			Issue:      fmt.Sprintf("%d errors occurred", errors),
			Suggestion: "Review error patterns and implement better error handling",
		})
	}

	if unknownFrameworks > th.UnknownFrameworks {
		recs = append(recs, Recommendation{
			Type:       RecommendFramework,
			Priority:   PriorityMedium,
			Issue:      fmt.Sprintf("%d activities with unknown framework", unknownFrameworks),
			Suggestion: "Review framework detection logic or add activity.config.json files",
		})
	}

	return recs
}
