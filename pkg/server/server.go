// Package server exposes browser log ingestion and on-demand analysis over HTTP.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/eventlog"
	"github.com/c4r-dev/actilog/pkg/output"
)

const (
	tailLimit       = 100
	shutdownTimeout = 5 * time.Second

	// loggerTimestampLayout matches the timestamps the activity server writes.
	loggerTimestampLayout = "2006-01-02 15:04:05.000"

	requestIDHeader = "X-Request-Id"
	requestIDKey    = "requestID"
)

// Server serves the ingestion and analysis API for one log directory.
type Server struct {
	reader   *eventlog.Reader
	analyzer *analyzer.Analyzer
	logger   *log.Logger
	now      func() time.Time

	// mu serializes appends to browser.jsonl.
	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock sets the clock used to stamp ingested events.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a Server that reads and appends logs through reader and
// analyzes them with a.
func New(reader *eventlog.Reader, a *analyzer.Analyzer, opts ...Option) *Server {
	s := &Server{
		reader:   reader,
		analyzer: a,
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), cors())

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	{
		api.POST("/browser-logs", s.ingestBrowserLog)
		api.POST("/browser-logs/batch", s.ingestBrowserBatch)
		api.GET("/logs/:type", s.tailLogs)
		api.GET("/summary/:date", s.getSummary)
		api.GET("/report/:date", s.getReport)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "log_dir", s.reader.Dir())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, X-Request-Id")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log_dir": s.reader.Dir()})
}

func (s *Server) ingestBrowserLog(c *gin.Context) {
	var event map[string]any
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.GetString(requestIDKey)
	rec := s.enrich(c, event, id, "browser_event", "Browser event")
	if err := s.appendBrowser([]map[string]any{rec}); err != nil {
		s.logger.Error("failed to append browser log", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged", "requestId": id})
}

func (s *Server) ingestBrowserBatch(c *gin.Context) {
	var body struct {
		Logs []map[string]any `json:"logs" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.GetString(requestIDKey)
	recs := make([]map[string]any, 0, len(body.Logs))
	for _, event := range body.Logs {
		if event == nil {
			continue
		}
		recs = append(recs, s.enrich(c, event, id, "browser_event_batch", "Browser event (batch)"))
	}
	if err := s.appendBrowser(recs); err != nil {
		s.logger.Error("failed to append browser logs", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged", "count": len(recs), "requestId": id})
}

// enrich stamps an ingested browser event with server-side context. The
// client's own event name is kept so the analyzers can still classify it;
// the ingestion channel is recorded separately.
func (s *Server) enrich(c *gin.Context, event map[string]any, requestID, channel, message string) map[string]any {
	rec := make(map[string]any, len(event)+8)
	for k, v := range event {
		rec[k] = v
	}
	if ts, ok := rec["timestamp"]; ok {
		rec["clientTimestamp"] = ts
	}
	rec["timestamp"] = s.now().Format(loggerTimestampLayout)
	if name, _ := rec["event"].(string); name == "" {
		rec["event"] = channel
	}
	if _, ok := rec["level"]; !ok {
		rec["level"] = "info"
	}
	rec["ingest"] = channel
	rec["message"] = message
	rec["service"] = string(eventlog.StreamBrowser)
	rec["serverRequestId"] = requestID
	rec["userAgent"] = c.Request.UserAgent()
	rec["ip"] = c.ClientIP()
	if sid, ok := rec["sessionId"]; ok {
		rec["correlationId"] = sid
	}
	return rec
}

func (s *Server) appendBrowser(recs []map[string]any) error {
	if len(recs) == 0 {
		return nil
	}

	var buf strings.Builder
	for _, rec := range recs {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding browser event: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.reader.Dir(), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	path := filepath.Join(s.reader.Dir(), eventlog.StreamBrowser.Filename())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.WriteString(buf.String()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func (s *Server) tailLogs(c *gin.Context) {
	stream, err := eventlog.ParseStream(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	logs, err := tail(filepath.Join(s.reader.Dir(), stream.Filename()), tailLimit)
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "log file not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// tail returns the last n well-formed JSON lines of path.
func tail(path string, n int) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]json.RawMessage, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !json.Valid([]byte(line)) {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, json.RawMessage(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ring, nil
}

func (s *Server) daily(c *gin.Context) (*analyzer.DailySummary, bool) {
	date := c.Param("date")
	summary, err := s.analyzer.Daily(c.Request.Context(), s.reader, date)
	if errors.Is(err, analyzer.ErrInvalidDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		s.logger.Error("analysis failed", "date", date, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return summary, true
}

func (s *Server) getSummary(c *gin.Context) {
	summary, ok := s.daily(c)
	if !ok {
		return
	}
	data, err := output.MarshalSummary(summary)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) getReport(c *gin.Context) {
	summary, ok := s.daily(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(output.RenderMarkdown(summary)))
}
