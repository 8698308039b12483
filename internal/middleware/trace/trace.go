package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "defter/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
)

// Middleware assigns every request an ID, puts a request-scoped logger in
// its context and logs start and completion.
type Middleware struct {
	logger    *applog.Logger
	extractIP func(*http.Request) string
	metrics   *Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests     int64
	LastResponseMicro int64
}

func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = applog.Default(applog.ComponentHTTP)
	} else if logger.Component() != applog.ComponentHTTP {
		logger = logger.WithComponent(applog.ComponentHTTP)
	}
	return &Middleware{
		logger:    logger,
		extractIP: extractIP,
		metrics:   &Metrics{},
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	logged := applog.Middleware(m.logger)(
		applog.RequestIDMiddleware(func(r *http.Request) string {
			return GetRequestID(r.Context())
		})(m.observe(next)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := requestIDFrom(r)
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		logged.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe logs start and completion with the request-scoped logger and
// updates the metrics.
func (m *Middleware) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		ctx := r.Context()
		structured := applog.NewStructuredLogger(applog.FromContext(ctx))
		structured.LogHTTPStart(ctx, r, clientIP)
		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.StoreInt64(&m.metrics.LastResponseMicro, duration.Microseconds())
		structured.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds())
	})
}

// requestIDFrom keeps a caller-supplied ID when it is a UUID and mints a
// new one otherwise.
func requestIDFrom(r *http.Request) string {
	if v := r.Header.Get(RequestIDHeader); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:     atomic.LoadInt64(&m.metrics.TotalRequests),
		LastResponseMicro: atomic.LoadInt64(&m.metrics.LastResponseMicro),
	}
}
