// Package opsserver serves the operator endpoints: liveness, readiness
// checks, a runtime status snapshot and Prometheus metrics.
package opsserver

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	checkTimeout    = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Status returns a snapshot rendered under /status.
type Status func() map[string]any

type Options struct {
	Addr     string
	Gatherer prometheus.Gatherer
	Checks   map[string]Check
	Status   Status
	Logger   *zap.Logger
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	checks map[string]Check
	status Status
	log    *zap.Logger
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "opsserver"))

	s := &Server{
		engine: gin.New(),
		checks: opts.Checks,
		status: opts.Status,
		log:    log,
	}
	s.engine.Use(gin.Recovery(), s.accessLog())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/readyz", s.ready)
	s.engine.GET("/status", s.snapshot)
	if opts.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.http.Addr))
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(sctx); err != nil {
		return err
	}
	<-errc
	return nil
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	slices.Sort(names)

	code := http.StatusOK
	results := gin.H{}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			code = http.StatusServiceUnavailable
			results[name] = err.Error()
			s.log.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}
	c.JSON(code, gin.H{"checks": results})
}

func (s *Server) snapshot(c *gin.Context) {
	if s.status == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.status())
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
