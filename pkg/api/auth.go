package api

import (
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/tarsy/pkg/tenant"
)

// extractCallerID returns the privileged caller identifier, if the request
// supplied one, falling back to "anonymous". Per spec.md §6, the caller id
// is an environment-level convention (header name informative, not
// normative) — X-Caller-Id is this transport's choice.
func extractCallerID(c *echo.Context) string {
	if id := c.Request().Header.Get("X-Caller-Id"); id != "" {
		return id
	}
	return "anonymous"
}

// deriveTenantID computes the per-request tenant key from the client's
// remote address and User-Agent, per spec.md §3 / SPEC_FULL.md §6.1.
func deriveTenantID(c *echo.Context, salt string) string {
	ip := clientIP(c.Request())
	ua := c.Request().Header.Get("User-Agent")
	return tenant.DeriveTenantID(ip, ua, salt)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
