package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"climate-api/internal/services"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// Route templates of the public API
const (
	RouteIndex         = "/"
	RoutePrecipitation = "/api/v1.0/precipitation"
	RouteStations      = "/api/v1.0/stations"
	RouteTobs          = "/api/v1.0/tobs"
	RouteStart         = "/api/v1.0/{start}"
	RouteStartEnd      = "/api/v1.0/{start}/{end}"
	RouteHealth        = "/health"
	RouteMetrics       = "/metrics"
	RouteDocs          = "/api/docs"
	RouteOpenAPI       = "/api/docs/openapi.json"
)

type routeDoc struct {
	Display string
	Summary string
}

// publicRoutes feeds both the index page and the OpenAPI document
var publicRoutes = []routeDoc{
	{RoutePrecipitation, "Precipitation values for last year"},
	{RouteStations, "List of stations"},
	{RouteTobs, "List of temperature observations for previous year"},
	{"/api/v1.0/<start>", "List of minimum, average and maximum temperatures for a given <start> date in yyyy-mm-dd format to now"},
	{"/api/v1.0/<start>/<end>", "List of minimum, average and maximum temperatures for a given <start> date in yyyy-mm-dd format to a given <end> date in yyyy-mm-dd format"},
}

var indexTemplate = template.Must(template.New("index").Parse(
	`Available Routes:<br/>{{range .}}{{.Display}} - {{.Summary}}<br/>{{end}}`))

// ClimateHandler handles climate API endpoints
type ClimateHandler struct {
	climateService *services.ClimateService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewClimateHandler creates a new climate handler
func NewClimateHandler(
	climateService *services.ClimateService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ClimateHandler {
	return &ClimateHandler{
		climateService: climateService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// Index handles GET / with an HTML list of the available routes
func (h *ClimateHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, publicRoutes); err != nil {
		h.logger.Error(r.Context(), "[API_INDEX_ERROR] Failed to render index", logging.Fields{}, err)
	}
}

// GetPrecipitation handles GET /api/v1.0/precipitation
func (h *ClimateHandler) GetPrecipitation(w http.ResponseWriter, r *http.Request) {
	byDate, err := h.climateService.Precipitation(r.Context())
	if err != nil {
		h.serverError(w, r, RoutePrecipitation, err)
		return
	}

	h.sendJSON(w, byDate, http.StatusOK)
}

// GetStations handles GET /api/v1.0/stations
func (h *ClimateHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.climateService.Stations(r.Context())
	if err != nil {
		h.serverError(w, r, RouteStations, err)
		return
	}

	h.sendJSON(w, stations, http.StatusOK)
}

// GetTemperatureObservations handles GET /api/v1.0/tobs
func (h *ClimateHandler) GetTemperatureObservations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.climateService.TemperatureObservations(r.Context())
	if err != nil {
		h.serverError(w, r, RouteTobs, err)
		return
	}

	h.sendJSON(w, rows, http.StatusOK)
}

// GetSummaryFrom handles GET /api/v1.0/{start}
func (h *ClimateHandler) GetSummaryFrom(w http.ResponseWriter, r *http.Request) {
	start := mux.Vars(r)["start"]

	summary, err := h.climateService.TemperatureSummaryFrom(r.Context(), start)
	if err != nil {
		h.serverError(w, r, RouteStart, err)
		return
	}

	h.sendJSON(w, summary, http.StatusOK)
}

// GetSummaryBetween handles GET /api/v1.0/{start}/{end}
func (h *ClimateHandler) GetSummaryBetween(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	summary, err := h.climateService.TemperatureSummaryBetween(r.Context(), vars["start"], vars["end"])
	if err != nil {
		h.serverError(w, r, RouteStartEnd, err)
		return
	}

	h.sendJSON(w, summary, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ClimateHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.climateService.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Data store unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	h.sendJSON(w, status, code)
}

// sendJSON sends a JSON response
func (h *ClimateHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(context.Background(), "[API_ENCODE_ERROR] Failed to write response", logging.Fields{}, err)
	}
}

// serverError logs err and answers with a bare 500
func (h *ClimateHandler) serverError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	h.logger.Error(r.Context(), "[API_QUERY_ERROR] Query failed", logging.Fields{
		"endpoint": endpoint,
		"path":     r.URL.Path,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)

	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// RegisterRoutes registers all climate API routes.
// Fixed /api/v1.0 routes go first so they are not captured as {start}.
func (h *ClimateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(RouteIndex, h.Index).Methods(http.MethodGet)
	router.HandleFunc(RoutePrecipitation, h.GetPrecipitation).Methods(http.MethodGet)
	router.HandleFunc(RouteStations, h.GetStations).Methods(http.MethodGet)
	router.HandleFunc(RouteTobs, h.GetTemperatureObservations).Methods(http.MethodGet)
	router.HandleFunc(RouteStart, h.GetSummaryFrom).Methods(http.MethodGet)
	router.HandleFunc(RouteStartEnd, h.GetSummaryBetween).Methods(http.MethodGet)

	router.HandleFunc(RouteHealth, h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc(RouteDocs, h.SwaggerUI).Methods(http.MethodGet)
	router.HandleFunc(RouteOpenAPI, OpenAPISpec).Methods(http.MethodGet)
}
