// Package server hosts the runner behind an HTTP API: on-demand execution,
// run history, metrics and a live outcome stream. The server renders
// reports; it never interprets them.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RunFleet/RunFleet/internal/config"
	"github.com/RunFleet/RunFleet/internal/history"
	"github.com/RunFleet/RunFleet/internal/logger"
	"github.com/RunFleet/RunFleet/internal/metrics"
	"github.com/RunFleet/RunFleet/pkg/runner"
)

// Options configures the server.
type Options struct {
	Config        *config.Config
	Runner        *runner.Runner
	Metrics       *metrics.Collector
	History       *history.Store // nil disables the /runs routes
	Logger        *logger.Logger
	Hub           *Hub   // nil creates a private hub
	EndpointsFile string // optional file-based descriptor source
}

// Server is the HTTP host for the runner.
type Server struct {
	cfg           *config.Config
	runner        *runner.Runner
	metrics       *metrics.Collector
	store         *history.Store
	logger        *logger.Logger
	hub           *Hub
	endpointsFile string
	engine        *gin.Engine
}

// New creates a server and registers its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault().WithComponent("server")
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(opts.Logger)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:           opts.Config,
		runner:        opts.Runner,
		metrics:       opts.Metrics,
		store:         opts.History,
		logger:        opts.Logger,
		hub:           opts.Hub,
		endpointsFile: opts.EndpointsFile,
		engine:        engine,
	}
	s.registerRoutes()

	return s
}

// Hub returns the outcome stream hub, so the host can wire it into the
// runner's outcome callback.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router returns the underlying gin engine. Exposed for tests.
func (s *Server) Router() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/execute", s.handleExecute)
	s.engine.GET("/execute", s.handleExecuteGet)
	s.engine.GET("/metrics", s.handleMetrics)
	s.engine.GET("/ws", s.hub.HandleWS)

	if s.store != nil {
		s.engine.GET("/runs", s.handleRuns)
		s.engine.GET("/runs/:id", s.handleRunByID)
		s.engine.GET("/runs/:id/email", s.handleRunEmail)
	}
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on :%d", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
