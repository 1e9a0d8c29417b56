package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// unmatchedEndpoint labels requests that matched no route
const unmatchedEndpoint = "unmatched"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with an id, then logs and counts it once it completes.
// Metrics are labelled by route template so /api/v1.0/{start} is one series.
// Requests that matched no route share the "unmatched" label.
func RequestLogger(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), logging.RequestIDKey, requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			endpoint := unmatchedEndpoint
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					endpoint = tpl
				}
			}
			latency := time.Since(start)

			metricsCollector.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(rec.status))
			metricsCollector.APIRequestDuration.WithLabelValues(endpoint).Observe(latency.Seconds())

			fields := logging.Fields{
				"method":     r.Method,
				"uri":        r.URL.RequestURI(),
				"endpoint":   endpoint,
				"status":     rec.status,
				"latency_ms": latency.Milliseconds(),
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Warn(ctx, "[API_REQUEST_FAILED] Request completed with server error", fields)
				return
			}
			logger.Info(ctx, "[API_REQUEST] Request completed", fields)
		})
	}
}
