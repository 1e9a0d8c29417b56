package services

import (
	"context"

	"climate-api/internal/models"
	"climate-api/internal/repository"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// ClimateService shapes repository results into the API response forms
type ClimateService struct {
	repo       repository.ClimateRepository
	cutoffDate string
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClimateService creates a new climate service.
// cutoffDate is the fixed "last year" boundary used by the precipitation and tobs routes.
func NewClimateService(repo repository.ClimateRepository, cutoffDate string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ClimateService {
	return &ClimateService{
		repo:       repo,
		cutoffDate: cutoffDate,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// CutoffDate returns the configured "last year" boundary
func (s *ClimateService) CutoffDate() string {
	return s.cutoffDate
}

// Precipitation maps each date after the cutoff to a value.
// When several rows share a date the last one read wins.
func (s *ClimateService) Precipitation(ctx context.Context) (map[string]*float64, error) {
	rows, err := s.repo.PrecipitationSince(ctx, s.cutoffDate)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*float64, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row.Value
	}

	if collapsed := len(rows) - len(byDate); collapsed > 0 {
		s.metrics.PrecipitationDatesCollapsed.Add(float64(collapsed))
		s.logger.Debug(ctx, "[SVC_PRECIPITATION] Duplicate dates collapsed", logging.Fields{
			"rows":  len(rows),
			"dates": len(byDate),
		})
	}

	return byDate, nil
}

// Stations lists the stations that have measurements.
// A NULL station is kept as a nil entry.
func (s *ClimateService) Stations(ctx context.Context) ([]*string, error) {
	stations, err := s.repo.MeasuredStations(ctx)
	if err != nil {
		return nil, err
	}
	if stations == nil {
		stations = []*string{}
	}
	return stations, nil
}

// TemperatureObservations returns each observation after the cutoff as a one-element row
func (s *ClimateService) TemperatureObservations(ctx context.Context) ([][]float64, error) {
	tobs, err := s.repo.TemperatureObservationsSince(ctx, s.cutoffDate)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(tobs))
	for i, v := range tobs {
		rows[i] = []float64{v}
	}
	return rows, nil
}

// TemperatureSummaryFrom aggregates from start through the latest data
func (s *ClimateService) TemperatureSummaryFrom(ctx context.Context, start string) (*models.TemperatureSummary, error) {
	return s.repo.TemperatureSummary(ctx, start, nil)
}

// TemperatureSummaryBetween aggregates start through end, both inclusive
func (s *ClimateService) TemperatureSummaryBetween(ctx context.Context, start, end string) (*models.TemperatureSummary, error) {
	return s.repo.TemperatureSummary(ctx, start, &end)
}

// HealthCheck reports whether the data store answers
func (s *ClimateService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
