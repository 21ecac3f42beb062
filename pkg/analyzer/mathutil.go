package analyzer

import (
	"math"
	"regexp"
	"time"
)

// round halves up, so -2.5 rounds to -2 and 2.5 to 3.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// maxOrZero returns the largest value, never less than zero.
func maxOrZero(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

// minOrZero returns the smallest value, or zero for an empty list.
func minOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var activityURL = regexp.MustCompile(`^/([^/]+)/([^/]+)`)

// ActivityFromURL returns the activity name encoded in a request path such as
// /causality/my-activity/page, or "" when the path has fewer than two segments.
func ActivityFromURL(url string) string {
	m := activityURL.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[2]
}

// withinWindow reports whether two parsed times are at most window apart.
// Unparsed (zero) times never match.
func withinWindow(a, b time.Time, window time.Duration) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}
