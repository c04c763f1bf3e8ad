// Package api exposes the thin HTTP transport collaborator named in
// spec.md §6: /api/nyan-ai/audit, /api/playground, /api/playground/stream,
// /api/playground/nuke, /api/playground/usage, plus /health and /metrics.
// Per SPEC_FULL.md §8, this layer only marshals requests into
// orchestrator.Input and streams orchestrator.Output back — no business
// logic lives here.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeready-toolchain/tarsy/pkg/config"
	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/extraction"
	"github.com/codeready-toolchain/tarsy/pkg/memory"
	"github.com/codeready-toolchain/tarsy/pkg/orchestrator"
	"github.com/codeready-toolchain/tarsy/pkg/swarm"
	"github.com/codeready-toolchain/tarsy/pkg/watchtower"
)

// Server is the HTTP API server fronting the pipeline orchestrator.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg        *config.Config
	pipeline   *orchestrator.Pipeline
	store      *datapkg.TenantPackageStore
	extraction *extraction.Cache
	memory     *memory.Table
	watchtower *watchtower.Watchtower
	swarm      *swarm.Runner

	tenantSalt string
}

// NewServer creates a new API server with Echo v5. tenantSalt is mixed into
// every derived tenant id (pkg/tenant.DeriveTenantID) per spec.md §3.
func NewServer(
	cfg *config.Config,
	pipeline *orchestrator.Pipeline,
	store *datapkg.TenantPackageStore,
	extractionCache *extraction.Cache,
	memoryTable *memory.Table,
	wt *watchtower.Watchtower,
	sw *swarm.Runner,
	tenantSalt string,
) *Server {
	e := echo.New()

	s := &Server{
		echo:       e,
		cfg:        cfg,
		pipeline:   pipeline,
		store:      store,
		extraction: extractionCache,
		memory:     memoryTable,
		watchtower: wt,
		swarm:      sw,
		tenantSalt: tenantSalt,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	// Server-wide body size limit (2 MB) — generous enough for a handful of
	// base64 attachments/photos without admitting multi-MB abuse.
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/api/nyan-ai/audit", s.auditHandler)

	pg := s.echo.Group("/api/playground")
	pg.POST("", s.playgroundHandler)
	pg.GET("/stream", s.playgroundStreamHandler)
	pg.POST("/nuke", s.playgroundNukeHandler)
	pg.GET("/usage", s.playgroundUsageHandler)
}

// Start starts the HTTP server on the given address (non-blocking from the
// caller's perspective — ListenAndServe blocks, so callers run this in a
// goroutine).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
