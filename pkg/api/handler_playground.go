package api

import (
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

// playgroundHandler handles POST /api/playground: a direct Pipeline.Run
// returning the full answer envelope, per spec.md §6.
func (s *Server) playgroundHandler(c *echo.Context) error {
	playgroundRequestsTotal.Inc()

	var req RunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	in := buildInput(c, s.tenantSalt, req)

	out, err := s.pipeline.Run(c.Request().Context(), in)
	if err != nil {
		return mapPipelineError(err)
	}

	return c.JSON(http.StatusOK, &RunResponse{
		Success:            out.Success,
		Answer:             out.Answer,
		Mode:               out.Mode,
		AuditVerdict:       out.AuditVerdict,
		Confidence:         out.Confidence,
		Badge:              out.Badge,
		DidSearch:          out.DidSearch,
		RetryCount:         out.RetryCount,
		PassCount:          out.PassCount,
		DataPackageID:      out.DataPackageID,
		DataPackageSummary: out.DataPackageSummary,
		TokensIn:           out.TokensIn,
		TokensOut:          out.TokensOut,
	})
}

const (
	streamChunkSize     = 50
	streamChunkInterval = 10 * time.Millisecond
)

// playgroundStreamHandler handles GET /api/playground/stream: runs the
// pipeline to completion, then replays the answer as an SSE token stream.
// The orchestrator itself has no incremental-token interface (the teacher's
// LLM adapters return a complete string per call), so this transport layer
// simulates the streaming contract of spec.md §6 by chunking the final
// answer — event order (status, audit, token*, done) is what callers
// observe and rely on, not the underlying LLM call shape.
func (s *Server) playgroundStreamHandler(c *echo.Context) error {
	playgroundStreamRequestsTotal.Inc()

	req := RunRequest{
		Query:     c.QueryParam("query"),
		SessionID: c.QueryParam("session_id"),
		CallerID:  c.QueryParam("caller_id"),
		Provider:  c.QueryParam("provider"),
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	w := c.Response()
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sendEvent(w, "status", `{"state":"running"}`)

	in := buildInput(c, s.tenantSalt, req)
	out, err := s.pipeline.Run(c.Request().Context(), in)
	if err != nil {
		sendEvent(w, "error", fmt.Sprintf(`{"message":%q}`, err.Error()))
		sendEvent(w, "done", "{}")
		return nil
	}

	sendEvent(w, "audit", fmt.Sprintf(`{"verdict":%q,"confidence":%d,"badge":%q}`,
		out.AuditVerdict, out.Confidence, out.Badge))

	ctx := c.Request().Context()
	for i := 0; i < len(out.Answer); i += streamChunkSize {
		end := i + streamChunkSize
		if end > len(out.Answer) {
			end = len(out.Answer)
		}
		sendEvent(w, "token", fmt.Sprintf(`{"text":%q}`, out.Answer[i:end]))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(streamChunkInterval):
		}
	}

	sendEvent(w, "done", fmt.Sprintf(`{"mode":%q,"badge":%q}`, out.Mode, out.Badge))
	return nil
}

// sendEvent writes one SSE frame and flushes it immediately so the client
// sees it without buffering delay.
func sendEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// playgroundNukeHandler handles POST /api/playground/nuke: deletes every
// DataPackage retained for the caller's (derived) tenant. A tenant_id in
// the body must equal the derived one, else the request is refused.
func (s *Server) playgroundNukeHandler(c *echo.Context) error {
	playgroundNukeRequestsTotal.Inc()

	var req NukeRequest
	_ = c.Bind(&req)

	tenantID := deriveTenantID(c, s.tenantSalt)
	if req.TenantID != "" && req.TenantID != tenantID {
		return echo.NewHTTPError(http.StatusForbidden, "tenant_id does not match the requesting client")
	}

	s.store.NukeTenant(tenantID)

	return c.JSON(http.StatusOK, &NukeResponse{
		TenantID: tenantID,
		Status:   "nuked",
	})
}

// playgroundUsageHandler handles GET /api/playground/usage: a JSON
// snapshot of the Prometheus counters registered by this package and
// pkg/llmchain, per spec.md §6.
func (s *Server) playgroundUsageHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &UsageResponse{
		ProviderCallsTotal: gatherProviderCallTotals(),
		PlaygroundRequests: gatherCounterValue(playgroundRequestsTotal),
		StreamRequests:     gatherCounterValue(playgroundStreamRequestsTotal),
		NukeRequests:       gatherCounterValue(playgroundNukeRequestsTotal),
	})
}
