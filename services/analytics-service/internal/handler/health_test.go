package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"colorfest/services/analytics-service/internal/service"
)

func feedStatus(t *testing.T, h *HealthReporter) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: FeedHealthService})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthReporter(t *testing.T) {
	h := NewHealthReporter()

	resp, err := h.Server().Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, feedStatus(t, h))

	h.RefreshCompleted(nil)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, feedStatus(t, h))

	h.RefreshCompleted(service.ErrRefreshInProgress)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, feedStatus(t, h))

	h.RefreshCompleted(errors.New("upstream returned 503"))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, feedStatus(t, h))

	h.RefreshCompleted(nil)
	h.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, feedStatus(t, h))
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(map[string]func(ctx context.Context) error{
		"mysql": func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].([]interface{})
	require.Len(t, deps, 2)
	assert.Equal(t, "mysql", deps[0].(map[string]interface{})["name"])
	assert.Equal(t, "unhealthy", deps[1].(map[string]interface{})["status"])
}

func TestFormatRetryAfter(t *testing.T) {
	assert.Equal(t, "1", formatRetryAfter(200*time.Millisecond))
	assert.Equal(t, "10", formatRetryAfter(9500*time.Millisecond))
}
