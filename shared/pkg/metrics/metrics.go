package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "colorfest"

// Metrics holds Prometheus metrics for a service
type Metrics struct {
	registry prometheus.Gatherer

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight *prometheus.GaugeVec
	DBConnPoolStats  *prometheus.GaugeVec

	RefreshTotal      *prometheus.CounterVec
	RefreshDuration   prometheus.Histogram
	BaselineFailures  *prometheus.CounterVec
	ImportRows        *prometheus.CounterVec
	EventsInFeed      prometheus.Gauge
	LastRefreshUnixTS prometheus.Gauge
}

// NewMetrics creates a new metrics instance registered on reg
func NewMetrics(serviceName string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		RequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
			[]string{"method"},
		),
		DBConnPoolStats: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"},
		),
		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "feed_refresh_total",
				Help:      "Upstream feed refreshes by outcome",
			},
			[]string{"outcome"},
		),
		RefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "feed_refresh_duration_seconds",
				Help:      "Duration of upstream feed refreshes",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
			},
		),
		BaselineFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "baseline_failures_total",
				Help:      "Snapshot baseline capture or read failures",
			},
			[]string{"op"},
		),
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "historical_import_rows_total",
				Help:      "Historical CSV rows by outcome",
			},
			[]string{"outcome"},
		),
		EventsInFeed: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "feed_events",
				Help:      "Active events in the last fetched feed",
			},
		),
		LastRefreshUnixTS: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "feed_last_refresh_timestamp_seconds",
				Help:      "Unix time of the last successful refresh",
			},
		),
	}
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// UnaryServerInterceptor returns a new unary server interceptor for metrics
func UnaryServerInterceptor(metrics *Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		method := info.FullMethod

		metrics.RequestsInFlight.WithLabelValues(method).Inc()
		defer metrics.RequestsInFlight.WithLabelValues(method).Dec()

		start := time.Now()
		defer func() {
			metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		}()

		resp, err := handler(ctx, req)

		statusCode := "ok"
		if err != nil {
			st, _ := status.FromError(err)
			statusCode = st.Code().String()
		}
		metrics.RequestCounter.WithLabelValues(method, statusCode).Inc()

		return resp, err
	}
}

type codeRecorder struct {
	http.ResponseWriter
	code int
}

func (r *codeRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request count and duration labelled by route pattern
func HTTPMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &codeRecorder{ResponseWriter: w, code: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			// Pattern is filled in by ServeMux during routing.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			metrics.RequestCounter.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		})
	}
}

// RecordDBPoolStats records database connection pool statistics
func (m *Metrics) RecordDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(open))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(waitCount))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(waitDuration.Milliseconds()))
}
