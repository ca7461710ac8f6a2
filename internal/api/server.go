// Package api serves the reliability service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gorelia/app"
	"gorelia/internal"
	"gorelia/internal/metrics"
)

// Server wires the HTTP routes onto a gin engine
type Server struct {
	router   *gin.Engine
	handlers *Handlers
	gatherer prometheus.Gatherer
	metrics  *metrics.HTTPMetrics
	logger   *internal.Logger
	records  bool
}

// Option customises a Server
type Option func(*Server)

// WithMetrics exposes gatherer on /metrics and records request metrics
func WithMetrics(gatherer prometheus.Gatherer, m *metrics.HTTPMetrics) Option {
	return func(s *Server) {
		s.gatherer = gatherer
		s.metrics = m
	}
}

// WithRecordRoutes enables the database-backed lifetime routes
func WithRecordRoutes() Option {
	return func(s *Server) { s.records = true }
}

// WithLogger sets the request logger
func WithLogger(l *internal.Logger) Option {
	return func(s *Server) { s.logger = l.With("API") }
}

// NewServer builds the router over service
func NewServer(service *app.ReliabilityService, opts ...Option) *Server {
	s := &Server{
		router: gin.New(),
		logger: internal.DefaultLogger.With("API"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handlers = NewHandlers(service)

	s.router.Use(gin.Recovery(), s.observe())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	model := s.router.Group("/distribution-model")
	model.POST("/fit", s.handlers.FitDistributions)
	model.POST("/fit/weibull", s.handlers.FitWeibull)
	model.POST("/fit/exponential", s.handlers.FitExponential)
	model.POST("/non-parametric", s.handlers.EstimateNonParametric)
	model.POST("/test-statistics", s.handlers.TestStatistic)
	model.POST("/goodness-of-fit", s.handlers.GoodnessOfFit)
	model.POST("/parameters/bootstrap", s.handlers.BootstrapParameters)

	s.router.POST("/lifetimes/calculate", s.handlers.CalculateLifetimes)
	if s.records {
		s.router.GET("/failure-types/:code/lifetimes", s.handlers.FailureTypeLifetimes)
	}
}

// observe logs and measures every request
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		s.metrics.Observe(c.FullPath(), c.Request.Method, c.Writer.Status(), elapsed)
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), elapsed)
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on addr
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.router.Run(addr)
}
