package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/codeready-toolchain/tarsy/pkg/orchestrator"
)

// auditHandler handles POST /api/nyan-ai/audit: a direct Pipeline.Run
// returning the audit-only view (no answer text), per spec.md §6.
func (s *Server) auditHandler(c *echo.Context) error {
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

	return c.JSON(http.StatusOK, &AuditResponse{
		Mode:         out.Mode,
		AuditVerdict: out.AuditVerdict,
		Confidence:   out.Confidence,
		Badge:        out.Badge,
		RetryCount:   out.RetryCount,
		DidSearch:    out.DidSearch,
	})
}

// buildInput translates an HTTP request into an orchestrator.Input,
// deriving the tenant id from request metadata (never from the caller).
func buildInput(c *echo.Context, salt string, req RunRequest) orchestrator.Input {
	photos := make([]orchestrator.RawPhoto, 0, len(req.Photos))
	for _, p := range req.Photos {
		photos = append(photos, orchestrator.RawPhoto{Data: p.Data})
	}

	docs := make([]orchestrator.RawAttachment, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, orchestrator.RawAttachment{
			FileName: d.FileName,
			FileType: d.FileType,
			Data:     d.Data,
		})
	}

	callerID := req.CallerID
	if callerID == "" {
		callerID = extractCallerID(c)
	}

	return orchestrator.Input{
		Query:       req.Query,
		SessionID:   req.SessionID,
		TenantID:    deriveTenantID(c, salt),
		ClientID:    clientIP(c.Request()),
		CallerID:    callerID,
		Provider:    llmchain.ProviderTag(req.Provider),
		Temperature: req.Temperature,
		Photos:      photos,
		Documents:   docs,
	}
}
