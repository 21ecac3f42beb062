package smoke

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/valyala/fastjson"
)

// Browser opens pages for the runner.
type Browser interface {
	// Open returns a new page in its own browser context.
	Open(ctx context.Context) (Tab, error)
	Close() error
}

// Tab is one page. Console errors and failed requests are collected from the
// moment it opens until it is closed.
type Tab interface {
	// Navigate loads url and returns the main document's status code.
	Navigate(ctx context.Context, url string) (int, error)
	// Snapshot reads the rendered page and everything collected so far.
	Snapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Snapshot is the rendered state of a page.
type Snapshot struct {
	Title string

	// HTML is the serialized document, BodyHTML the body's innerHTML.
	HTML     string
	BodyHTML string

	ConsoleErrors  []string
	FailedRequests []FailedRequest
}

// ChromeBrowser drives headless Chrome over the DevTools protocol.
type ChromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// ChromeOption configures a ChromeBrowser.
type ChromeOption func(*chromeOptions)

type chromeOptions struct {
	execPath string
	logger   *log.Logger
}

// WithExecPath sets the browser binary. An empty path is ignored.
func WithExecPath(path string) ChromeOption {
	return func(o *chromeOptions) {
		o.execPath = path
	}
}

// WithBrowserLogger sets the logger for protocol diagnostics.
func WithBrowserLogger(l *log.Logger) ChromeOption {
	return func(o *chromeOptions) {
		o.logger = l
	}
}

// NewChromeBrowser starts a headless browser that lives until Close or until
// ctx is done.
func NewChromeBrowser(ctx context.Context, opts ...ChromeOption) (*ChromeBrowser, error) {
	o := chromeOptions{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("actilog-smoke"),
	)
	if o.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(o.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(o.logger.Debugf),
		chromedp.WithErrorf(o.logger.Debugf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &ChromeBrowser{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// Open creates a page in a fresh browser context so no cookies, storage or
// cache carry over between routes.
func (b *ChromeBrowser) Open(ctx context.Context) (Tab, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())
	t := &chromeTab{
		ctx:      tabCtx,
		cancel:   cancel,
		requests: make(map[network.RequestID]string),
	}
	chromedp.ListenTarget(tabCtx, t.handle)

	// The first Run creates the target, so it must use tabCtx itself.
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx, network.Enable(), cdpruntime.Enable())
	stop()
	if err != nil {
		cancel()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("opening page: %w", err)
	}
	return t, nil
}

// Close shuts the browser down.
func (b *ChromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type chromeTab struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	requests       map[network.RequestID]string
	consoleErrors  []string
	failedRequests []FailedRequest
}

// bind derives a context for one chromedp call that also ends when ctx does.
func (t *chromeTab) bind(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(t.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (t *chromeTab) Navigate(ctx context.Context, url string) (int, error) {
	runCtx, done := t.bind(ctx)
	defer done()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

func (t *chromeTab) Snapshot(ctx context.Context) (*Snapshot, error) {
	runCtx, done := t.bind(ctx)
	defer done()

	snap := &Snapshot{}
	err := chromedp.Run(runCtx,
		chromedp.Title(&snap.Title),
		chromedp.Evaluate(`document.documentElement ? document.documentElement.outerHTML : ""`, &snap.HTML),
		chromedp.Evaluate(`document.body ? document.body.innerHTML : ""`, &snap.BodyHTML),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("reading page: %w", err)
	}

	t.mu.Lock()
	snap.ConsoleErrors = append([]string(nil), t.consoleErrors...)
	snap.FailedRequests = append([]FailedRequest(nil), t.failedRequests...)
	t.mu.Unlock()
	return snap, nil
}

// Close closes the page and disposes of its browser context.
func (t *chromeTab) Close() error {
	t.cancel()
	return nil
}

func (t *chromeTab) handle(ev any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev := ev.(type) {
	case *cdpruntime.EventConsoleAPICalled:
		if ev.Type == cdpruntime.APITypeError {
			t.consoleErrors = append(t.consoleErrors, consoleText(ev.Args))
		}
	case *cdpruntime.EventExceptionThrown:
		t.consoleErrors = append(t.consoleErrors, exceptionText(ev.ExceptionDetails))
	case *network.EventRequestWillBeSent:
		if ev.Request != nil {
			t.requests[ev.RequestID] = ev.Request.URL
		}
	case *network.EventResponseReceived:
		if ev.Response != nil && ev.Response.Status >= 400 {
			t.failedRequests = append(t.failedRequests, FailedRequest{
				URL:    ev.Response.URL,
				Status: int(ev.Response.Status),
			})
		}
	case *network.EventLoadingFailed:
		t.failedRequests = append(t.failedRequests, FailedRequest{
			URL:   t.requests[ev.RequestID],
			Error: ev.ErrorText,
		})
	}
}

// consoleText joins console.error arguments the way DevTools prints them.
func consoleText(args []*cdpruntime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if arg.Description != "" {
			parts = append(parts, arg.Description)
			continue
		}
		if len(arg.Value) == 0 {
			parts = append(parts, string(arg.Type))
			continue
		}
		v, err := fastjson.ParseBytes([]byte(arg.Value))
		if err == nil && v.Type() == fastjson.TypeString {
			parts = append(parts, string(v.GetStringBytes()))
		} else {
			parts = append(parts, string(arg.Value))
		}
	}
	return strings.Join(parts, " ")
}

func exceptionText(d *cdpruntime.ExceptionDetails) string {
	if d == nil {
		return "uncaught exception"
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}
