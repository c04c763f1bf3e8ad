package api

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/tarsy/pkg/version"
)

// healthHandler handles GET /health. Reports provider-chain composition,
// watchtower/swarm occupancy, and cache sizes, per SPEC_FULL.md §6.2.
func (s *Server) healthHandler(c *echo.Context) error {
	stats := s.cfg.Stats()
	order := make([]string, len(stats.ChainOrder))
	for i, tag := range stats.ChainOrder {
		order[i] = string(tag)
	}

	resp := &HealthResponse{
		Status:       "healthy",
		Version:      version.Full(),
		ChainOrder:   order,
		LLMProviders: stats.LLMProviders,
		Timestamp:    time.Now(),
	}

	if s.extraction != nil {
		resp.ExtractionSz = s.extraction.Stats().Size
	}
	if s.memory != nil {
		resp.MemorySize = s.memory.Len()
	}
	if s.watchtower != nil {
		resp.WatchtowerOcc = len(s.watchtower.ListProcesses())
	}
	if s.swarm != nil {
		resp.SwarmOcc = s.swarm.ActiveCount()
	}

	return c.JSON(http.StatusOK, resp)
}
