package demoserver

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// liveSpan is how far back samples count as "live" rather than replayed
// from the synthetic backlog.
const liveSpan = 15 * time.Minute

// toolTimeout bounds one approved command execution.
const toolTimeout = 30 * time.Second

// Server is the embedded demo backend.
type Server struct {
	store     *Store
	collector *Collector
	assistant *assistant
	engine    *gin.Engine
	log       logger.Logger
	hostname  string
	token     string
	startedAt time.Time
}

// Option configures the server.
type Option func(*Server)

// WithToken requires X-API-Token on every request.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithSampleInterval overrides the live collector cadence.
func WithSampleInterval(d time.Duration) Option {
	return func(s *Server) { s.collector.interval = d }
}

// New creates a demo server with a backfilled store.
func New(log logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.Noop()
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "local"
	}

	store := NewStore()
	store.Backfill(time.Now())

	s := &Server{
		store:     store,
		collector: NewCollector(store, 5*time.Second, log),
		assistant: &assistant{store: store},
		log:       log,
		hostname:  hostname,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if s.token != "" {
		engine.Use(s.authMiddleware())
	}

	engine.GET("/api/resources", s.handleResources)
	engine.GET("/api/metrics/history", s.handleHistory)
	engine.POST("/api/ai/execute", s.handleExecute)
	engine.POST("/api/ai/tools/execute", s.handleToolExecute)
	s.engine = engine

	return s
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until the context is cancelled. The live collector runs
// alongside and stops with it.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.collector.Run(ctx)

	srv := &http.Server{Addr: addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("demo server listening on %s", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-Token") != s.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleResources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"resources": []gin.H{
			{"id": s.hostname, "type": "node", "name": s.hostname},
		},
	})
}

// handleHistory serves one metric's points for a relative range,
// downsampled to maxPoints when asked.
func (s *Server) handleHistory(c *gin.Context) {
	metric := c.Query("metric")
	rangeName := c.Query("range")
	if !timeseries.ValidRange(rangeName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown range: " + rangeName})
		return
	}
	if !validMetric(metric) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown metric: " + metric})
		return
	}

	window := timeseries.WindowFor(rangeName, time.Now())
	points := s.store.Range(metric, window.StartMs, window.EndMs)

	if raw := c.Query("maxPoints"); raw != "" {
		if maxPoints, err := strconv.Atoi(raw); err == nil && maxPoints > 0 {
			points = timeseries.Downsample(points, maxPoints)
		}
	}

	source := "memory"
	if window.RangeMs <= liveSpan.Milliseconds() {
		source = "live"
	}

	out := make([]gin.H, 0, len(points))
	for _, p := range points {
		out = append(out, gin.H{"timestamp": p.TimestampMs, "value": p.Value})
	}
	c.JSON(http.StatusOK, gin.H{"points": out, "source": source})
}

func validMetric(metric string) bool {
	switch metric {
	case "cpu", "memory", "disk", "net":
		return true
	}
	return false
}

// handleExecute streams the scripted assistant response as SSE.
func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	emit := func(eventType string, data interface{}) {
		if err := writeFrame(c.Writer, eventType, data); err != nil {
			s.log.Debug("sse write failed: %v", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	s.assistant.respond(req, emit)
}

// toolRequest mirrors the chat client's tool execution shape.
type toolRequest struct {
	Command   string `json:"command"`
	RunOnHost bool   `json:"run_on_host"`
}

// handleToolExecute runs one approved command locally. A failing
// command is a normal response; only transport-level problems are
// errors.
func (s *Server) handleToolExecute(c *gin.Context) {
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Command == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), toolTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "sh", "-c", req.Command).CombinedOutput()
	resp := gin.H{
		"output":  string(out),
		"success": err == nil,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
