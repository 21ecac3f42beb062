package analyzer

import (
	"sort"
	"strconv"

	"github.com/c4r-dev/actilog/pkg/eventlog"
)

const (
	eventRequestStart = "request_start"
	eventRequestEnd   = "request_end"
	eventSlowRequest  = "slow_request"
)

// AnalyzePerformance combines slow-request reports from the performance
// stream with request_end timings from the app stream.
func AnalyzePerformance(perf []*eventlog.PerfEvent, app []*eventlog.AppEvent, endpointLimit int) PerformanceAnalysis {
	var slowByURL Tally
	slow := 0
	for _, p := range perf {
		if p.Event == eventSlowRequest {
			slow++
			slowByURL.Inc(orUnknown(p.URL, "unknown"))
		}
	}

	var times []float64
	for _, a := range app {
		if a.Event == eventRequestEnd && a.DurationMS != 0 {
			times = append(times, a.DurationMS)
		}
	}

	endpoints := []EndpointCount{}
	for _, kc := range slowByURL.Top(endpointLimit) {
		endpoints = append(endpoints, EndpointCount{Endpoint: kc.Key, Count: kc.Count})
	}

	return PerformanceAnalysis{
		SlowRequestsCount:   slow,
		AverageResponseTime: round(mean(times)),
		SlowestRequest:      maxOrZero(times),
		FastestRequest:      minOrZero(times),
		SlowEndpoints:       endpoints,
		Trends:              PerformanceTrends(app),
	}
}

// PerformanceTrends groups request_end durations by hour of day, in the
// timestamp's own zone. Hours are emitted in ascending order.
func PerformanceTrends(app []*eventlog.AppEvent) OrderedMap[HourlyTrend] {
	byHour := make(map[int][]float64)
	for _, a := range app {
		if a.Event != eventRequestEnd || a.DurationMS == 0 || !a.HasTime() {
			continue
		}
		h := a.Time.Hour()
		byHour[h] = append(byHour[h], a.DurationMS)
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	var trends OrderedMap[HourlyTrend]
	for _, h := range hours {
		times := byHour[h]
		trends.Set(strconv.Itoa(h), HourlyTrend{
			AvgResponseTime: round(mean(times)),
			RequestCount:    len(times),
		})
	}
	return trends
}
