package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// NewRouter wires the climate routes, request middleware and the metrics endpoint
func NewRouter(h *ClimateHandler, gatherer prometheus.Gatherer, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *mux.Router {
	requestLogger := RequestLogger(logger, metricsCollector)

	router := mux.NewRouter()
	router.Use(requestLogger)
	// Middleware only wraps matched routes; unmatched requests are logged here
	router.NotFoundHandler = requestLogger(http.NotFoundHandler())
	router.MethodNotAllowedHandler = requestLogger(http.HandlerFunc(methodNotAllowed))

	h.RegisterRoutes(router)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Handle(RouteMetrics, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
