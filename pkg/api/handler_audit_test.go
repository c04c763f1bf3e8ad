package api

import (
	"net/http"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditHandlerReturnsVerdictWithoutAnswer(t *testing.T) {
	srv := newTestServer(t)
	c, rec := newTestContext(srv, http.MethodPost, "/api/nyan-ai/audit",
		`{"query":"hello there","session_id":"s1"}`)

	err := srv.auditHandler(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"audit_verdict"`)
	assert.NotContains(t, rec.Body.String(), `"answer"`)
}

func TestAuditHandlerRejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t)
	c, _ := newTestContext(srv, http.MethodPost, "/api/nyan-ai/audit", `{"session_id":"s1"}`)

	err := srv.auditHandler(c)
	require.Error(t, err)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
