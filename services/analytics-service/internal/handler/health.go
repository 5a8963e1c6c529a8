package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"colorfest/services/analytics-service/internal/service"
)

// FeedHealthService is the gRPC health name tracking the upstream feed
const FeedHealthService = "analytics.dice-feed"

// HealthReporter mirrors refresh outcomes into the gRPC health service
type HealthReporter struct {
	server *health.Server
}

// NewHealthReporter starts with the process serving and the feed unknown
// until the first refresh completes
func NewHealthReporter() *HealthReporter {
	s := health.NewServer()
	s.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.SetServingStatus(FeedHealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{server: s}
}

// Server is registered on the gRPC server
func (h *HealthReporter) Server() *health.Server {
	return h.server
}

// RefreshCompleted records the outcome of one refresh
func (h *HealthReporter) RefreshCompleted(err error) {
	switch {
	case err == nil:
		h.server.SetServingStatus(FeedHealthService, healthpb.HealthCheckResponse_SERVING)
	case errors.Is(err, service.ErrRefreshInProgress):
	default:
		h.server.SetServingStatus(FeedHealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Shutdown flips every service to NOT_SERVING
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}

// DependencyStatus is one dependency line of GET /health
type DependencyStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// HealthHandler serves GET /health by probing each dependency
type HealthHandler struct {
	checks  map[string]func(ctx context.Context) error
	timeout time.Duration
}

func NewHealthHandler(checks map[string]func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := "healthy"
	deps := make([]DependencyStatus, 0, len(names))
	for _, name := range names {
		start := time.Now()
		err := h.checks[name](ctx)
		dep := DependencyStatus{Name: name, Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			dep.Status = "unhealthy"
			dep.Error = err.Error()
			overall = "degraded"
		}
		deps = append(deps, dep)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"dependencies": deps,
	})
}
