package api

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/tarsy/pkg/orchestrator"
)

// mapPipelineError maps orchestrator.Pipeline errors to HTTP error
// responses. Per spec.md §7, stage failures inside S2/S3 never reach
// here — they surface as a badge="unavailable" success response instead.
// Run only returns a non-nil error for caller mistakes (missing tenant id).
func mapPipelineError(err error) *echo.HTTPError {
	if errors.Is(err, orchestrator.ErrTenantRequired) {
		return echo.NewHTTPError(http.StatusBadRequest, "tenant could not be derived from the request")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
