package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRuntimeMetrics(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "ecl-test",
		ServiceVersion: "test",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
	}, testLogger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, providers.Shutdown(context.Background())) }()

	rm, err := RegisterRuntimeMetrics(providers.Meter, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "runtime_goroutines")
	assert.Contains(t, string(body), "process_uptime_seconds")

	assert.NoError(t, rm.Unregister())
}

func TestRuntimeMetrics_UnregisterNil(t *testing.T) {
	var rm *RuntimeMetrics
	assert.NoError(t, rm.Unregister())
}
