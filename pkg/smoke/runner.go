package smoke

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/c4r-dev/actilog/pkg/config"
)

// Run is one pass over a set of routes.
type Run struct {
	ID        string    `json:"id"`
	BaseURL   string    `json:"base_url"`
	StartedAt time.Time `json:"started_at"`
	Results   []Result  `json:"results"`
}

// Failed counts results that should fail the run.
func (r *Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status.Failing() {
			n++
		}
	}
	return n
}

// Runner loads routes one at a time against a base URL.
type Runner struct {
	cfg     config.SmokeConfig
	browser Browser
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner that loads pages in browser.
func NewRunner(cfg config.SmokeConfig, browser Browser, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:     cfg,
		browser: browser,
		logger:  log.Default(),
		sleep:   sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run tests each route in order. A failing route is recorded in its result
// and the run continues; only context cancellation stops it early.
func (r *Runner) Run(ctx context.Context, routes []string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		BaseURL:   r.cfg.BaseURL,
		StartedAt: r.now(),
		Results:   make([]Result, 0, len(routes)),
	}
	r.logger.Info("starting smoke run", "id", run.ID, "routes", len(routes), "base_url", r.cfg.BaseURL)

	for i, route := range routes {
		if i > 0 {
			if err := r.sleep(ctx, r.cfg.Delay); err != nil {
				return run, err
			}
		}
		res := r.TestRoute(ctx, route)
		run.Results = append(run.Results, res)
		if err := ctx.Err(); err != nil {
			return run, err
		}
	}

	return run, nil
}

// TestRoute loads one route in a fresh page, waits for it to settle and
// classifies what rendered.
func (r *Runner) TestRoute(ctx context.Context, route string) Result {
	res := newResult(route)
	r.logger.Info("testing", "route", route)

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	pageURL, err := r.routeURL(route)
	if err != nil {
		return r.fail(res, &LoadError{Route: route, Err: err})
	}

	tab, err := r.browser.Open(ctx)
	if err != nil {
		return r.fail(res, &LoadError{Route: route, Err: err})
	}
	defer func() {
		if err := tab.Close(); err != nil {
			r.logger.Debug("closing page", "route", route, "err", err)
		}
	}()

	start := time.Now()
	status, err := tab.Navigate(ctx, pageURL.String())
	res.LoadTime = time.Since(start).Milliseconds()
	if err != nil {
		return r.fail(res, &LoadError{Route: route, Err: err})
	}
	r.logger.Debug("navigated", "route", route, "status", status)

	if err := r.sleep(ctx, r.cfg.Settle); err != nil {
		return r.fail(res, &LoadError{Route: route, Err: err})
	}

	snap, err := tab.Snapshot(ctx)
	if err != nil {
		return r.fail(res, &LoadError{Route: route, Err: err})
	}
	res.ConsoleErrors = append(res.ConsoleErrors, snap.ConsoleErrors...)
	res.FailedRequests = append(res.FailedRequests, snap.FailedRequests...)

	renderErrs, err := RenderErrors(snap.HTML)
	if err != nil {
		r.logger.Debug("parsing document", "route", route, "err", err)
	}
	for _, msg := range renderErrs {
		if !slices.ContainsFunc(res.ConsoleErrors, func(e string) bool { return strings.Contains(e, msg) }) {
			res.ConsoleErrors = append(res.ConsoleErrors, msg)
		}
	}

	page := AnalyzeBody(snap.BodyHTML)
	page.Title = snap.Title
	res.HasContent = page.HasContent
	res.Status, res.Mode = Classify(page)
	res.Warnings = r.warnings(res)

	r.logger.Info("tested", "route", route, "title", page.Title, "status", res.Status, "mode", res.Mode, "load_ms", res.LoadTime)
	if len(res.Warnings) > 0 {
		r.logger.Warn("route warnings", "route", route, "warnings", strings.Join(res.Warnings, ", "))
	}
	return res
}

func (r *Runner) warnings(res Result) []string {
	w := []string{}
	if n := len(res.FailedRequests); n > 0 {
		w = append(w, fmt.Sprintf("%d failed requests", n))
	}
	if n := len(res.ConsoleErrors); n > 0 {
		w = append(w, fmt.Sprintf("%d console errors", n))
	}
	if r.cfg.SlowLoad > 0 && res.LoadTime > r.cfg.SlowLoad.Milliseconds() {
		w = append(w, fmt.Sprintf("Slow loading (>%s)", r.cfg.SlowLoad))
	}
	return w
}

func (r *Runner) fail(res Result, err *LoadError) Result {
	res.Status = StatusError
	res.Errors = append(res.Errors, err.Err.Error())
	r.logger.Error("route failed", "route", res.Route, "err", err)
	return res
}

func (r *Runner) routeURL(route string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimRight(r.cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	ref, err := url.Parse(route)
	if err != nil {
		return nil, fmt.Errorf("invalid route: %w", err)
	}
	u := *base
	u.Path = base.Path + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return &u, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sample picks n distinct routes at random, keeping catalogue order. When n
// is not smaller than len(routes) a copy of all routes is returned.
func Sample(routes []string, n int, rng *rand.Rand) []string {
	if n <= 0 || n >= len(routes) {
		return append([]string(nil), routes...)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	picked := make([]bool, len(routes))
	for _, i := range rng.Perm(len(routes))[:n] {
		picked[i] = true
	}
	out := make([]string, 0, n)
	for i, route := range routes {
		if picked[i] {
			out = append(out, route)
		}
	}
	return out
}
