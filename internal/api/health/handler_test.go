package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok() Checker { return CheckerFunc(func(context.Context) error { return nil }) }

func failing() Checker {
	return CheckerFunc(func(context.Context) error { return fmt.Errorf("connection refused") })
}

func serve(t *testing.T, fn http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandleHealth(t *testing.T) {
	h := New(nil, "sentimenttracker", "test", map[string]Checker{"redis": ok(), "kafka": failing(), "skipped": nil})

	code, status := serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", status.Status)
	require.Len(t, status.Checks, 2)
	assert.Equal(t, "connection refused", status.Checks["kafka"].Error)

	code, status = serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", status.Status)
}

func TestHandleHealth_NoDependencies(t *testing.T) {
	h := New(nil, "sentimenttracker", "test", nil)

	code, status := serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Empty(t, status.Checks)

	code, _ = serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusOK, code)
}

func TestHandleLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	New(nil, "svc", "v", nil).HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
