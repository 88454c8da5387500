// Package api exposes the engine over HTTP.
package api

import (
	"context"
	"edgegraph/internal/core/app"
	"edgegraph/internal/core/config"
	"edgegraph/internal/shared/util"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const limiterTTL = 10 * time.Minute

type Server struct {
	app      *app.App
	health   *app.HealthService
	cfg      config.Server
	limiters *util.LimiterRegistry
	router   *gin.Engine
	server   *http.Server
}

func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		health: app.NewHealthService(a),
		cfg:    a.Config.Server,
	}
	if s.cfg.RateLimit > 0 {
		s.limiters = util.NewLimiterRegistry(s.cfg.RateLimit, s.cfg.Burst, limiterTTL)
	}
	s.router = s.routes()
	return s
}

// Handler is the full router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), requestMetrics())

	r.GET("/health", s.handleHealth)
	if s.app.Config.Observability.EnableMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/api/v1")
	if s.limiters != nil {
		v1.Use(rateLimit(s.limiters))
	}
	v1.GET("/stats", s.handleStats)
	v1.GET("/max-degree", s.handleMaxDegree)
	v1.GET("/traverse", s.handleTraverse)
	v1.GET("/neighbors/:id", s.handleNeighbors)
	v1.GET("/history", s.handleHistory)
	v1.POST("/load", s.handleLoad)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("api server starting", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.closeLimiters()
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.closeLimiters()
	slog.Info("api server stopped")
	return err
}

func (s *Server) closeLimiters() {
	if s.limiters != nil {
		s.limiters.Close()
	}
}
