package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// RequestIDHeader is echoed back on every HTTP response
const RequestIDHeader = "X-Request-ID"

// Logger wraps logrus logger
type Logger struct {
	*logrus.Logger
	service string
}

// NewLogger creates a new logger instance writing JSON to stdout
func NewLogger(serviceName string) *Logger {
	return NewLoggerWithOutput(serviceName, os.Stdout)
}

// NewLoggerWithOutput creates a logger writing to out
func NewLoggerWithOutput(serviceName string, out io.Writer) *Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(out)
	log.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL")))

	return &Logger{Logger: log, service: serviceName}
}

func levelFromEnv(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Entry returns an entry carrying the service field
func (l *Logger) Entry() *logrus.Entry {
	return l.WithField("service", l.service)
}

// WithRequestID adds request ID to logger
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.Entry().WithField("request_id", requestID)
}

// WithEdition adds the edition key to logger
func (l *Logger) WithEdition(editionKey string) *logrus.Entry {
	return l.Entry().WithField("edition", editionKey)
}

// UnaryServerInterceptor returns a new unary server interceptor for logging
func UnaryServerInterceptor(logger *Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		logger.Entry().WithFields(logrus.Fields{
			"method": info.FullMethod,
			"type":   "unary",
		}).Debug("gRPC request")

		resp, err := handler(ctx, req)

		if err != nil {
			logger.Entry().WithFields(logrus.Fields{
				"method": info.FullMethod,
				"error":  err.Error(),
			}).Error("gRPC request failed")
		} else {
			logger.Entry().WithField("method", info.FullMethod).Debug("gRPC request completed")
		}

		return resp, err
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware logs every request with a request ID, generating one when the
// caller did not send it
func HTTPMiddleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			entry := logger.WithRequestID(requestID).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("HTTP request failed")
				return
			}
			entry.Info("HTTP request")
		})
	}
}
