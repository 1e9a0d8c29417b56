package repository

import (
	"context"
	"fmt"

	"climate-api/internal/models"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// ClimateRepository provides read access to the climate measurements.
// Every method runs exactly one query.
type ClimateRepository interface {
	// PrecipitationSince returns (date, value) rows dated strictly after cutoff
	PrecipitationSince(ctx context.Context, cutoff string) ([]models.DateValue, error)

	// MeasuredStations returns each station that has at least one measurement, once.
	// A NULL station comes back as a nil entry.
	MeasuredStations(ctx context.Context) ([]*string, error)

	// TemperatureObservationsSince returns every tobs value dated strictly after cutoff
	TemperatureObservationsSince(ctx context.Context, cutoff string) ([]float64, error)

	// TemperatureSummary aggregates tobs over date >= start, and date <= *end when end is set
	TemperatureSummary(ctx context.Context, start string, end *string) (*models.TemperatureSummary, error)

	HealthCheck(ctx context.Context) error
}

// Options selects the tables and columns the queries read.
// Values are interpolated into SQL and must be validated identifiers.
type Options struct {
	MeasurementTable    string
	PrecipitationColumn string
}

// climateRepository implements ClimateRepository
type climateRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	precipitationQuery string
	stationsQuery      string
	tobsQuery          string
	summaryFromQuery   string
	summaryRangeQuery  string
}

// NewClimateRepository creates a new climate repository
func NewClimateRepository(db *database.DB, opts Options, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ClimateRepository {
	if opts.MeasurementTable == "" {
		opts.MeasurementTable = "measurement"
	}
	if opts.PrecipitationColumn == "" {
		opts.PrecipitationColumn = "tobs"
	}

	// Dates are compared as text. PostgreSQL may hold them in a DATE column, so cast there.
	date := "date"
	if db.Driver() == database.DriverPostgres {
		date = "CAST(date AS TEXT)"
	}
	// Selected dates are always cast: go-sqlite3 turns a column declared DATE into time.Time.
	selectDate := "CAST(date AS TEXT)"
	table := opts.MeasurementTable

	return &climateRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,

		precipitationQuery: db.Rebind(fmt.Sprintf(`
		SELECT %[4]s AS date, %[2]s AS value
		FROM %[3]s
		WHERE %[1]s > ?
		ORDER BY id
	`, date, opts.PrecipitationColumn, table, selectDate)),

		stationsQuery: fmt.Sprintf(`
		SELECT station
		FROM %s
		GROUP BY station
		ORDER BY station
	`, table),

		tobsQuery: db.Rebind(fmt.Sprintf(`
		SELECT tobs
		FROM %[2]s
		WHERE %[1]s > ?
		ORDER BY id
	`, date, table)),

		summaryFromQuery: db.Rebind(fmt.Sprintf(`
		SELECT MIN(tobs) AS tmin, AVG(tobs) AS tavg, MAX(tobs) AS tmax
		FROM %[2]s
		WHERE %[1]s >= ?
	`, date, table)),

		summaryRangeQuery: db.Rebind(fmt.Sprintf(`
		SELECT MIN(tobs) AS tmin, AVG(tobs) AS tavg, MAX(tobs) AS tmax
		FROM %[2]s
		WHERE %[1]s >= ? AND %[1]s <= ?
	`, date, table)),
	}
}

// PrecipitationSince returns (date, value) rows dated strictly after cutoff
func (r *climateRepository) PrecipitationSince(ctx context.Context, cutoff string) ([]models.DateValue, error) {
	var rows []models.DateValue
	if err := r.db.SelectContext(ctx, "precipitation_since", &rows, r.precipitationQuery, cutoff); err != nil {
		return nil, fmt.Errorf("failed to query precipitation since %s: %w", cutoff, err)
	}

	r.logger.Debug(ctx, "[REPO_PRECIPITATION] Precipitation rows loaded", logging.Fields{
		"cutoff": cutoff,
		"rows":   len(rows),
	})

	return rows, nil
}

// MeasuredStations returns each station that has at least one measurement, once
func (r *climateRepository) MeasuredStations(ctx context.Context) ([]*string, error) {
	var stations []*string
	if err := r.db.SelectContext(ctx, "measured_stations", &stations, r.stationsQuery); err != nil {
		return nil, fmt.Errorf("failed to list measured stations: %w", err)
	}

	return stations, nil
}

// TemperatureObservationsSince returns every tobs value dated strictly after cutoff
func (r *climateRepository) TemperatureObservationsSince(ctx context.Context, cutoff string) ([]float64, error) {
	var tobs []float64
	if err := r.db.SelectContext(ctx, "tobs_since", &tobs, r.tobsQuery, cutoff); err != nil {
		return nil, fmt.Errorf("failed to query temperature observations since %s: %w", cutoff, err)
	}

	return tobs, nil
}

// TemperatureSummary aggregates tobs over date >= start, and date <= *end when end is set
func (r *climateRepository) TemperatureSummary(ctx context.Context, start string, end *string) (*models.TemperatureSummary, error) {
	timer := r.metrics.NewTimer(nil)

	queryType := "temperature_summary_from"
	query := r.summaryFromQuery
	args := []interface{}{start}
	if end != nil {
		queryType = "temperature_summary_range"
		query = r.summaryRangeQuery
		args = append(args, *end)
	}

	var summary models.TemperatureSummary
	if err := r.db.GetContext(ctx, queryType, &summary, query, args...); err != nil {
		return nil, fmt.Errorf("failed to calculate temperature summary: %w", err)
	}

	fields := logging.Fields{
		"start":       start,
		"empty":       summary.IsEmpty(),
		"duration_ms": timer.ObserveDuration().Milliseconds(),
	}
	if end != nil {
		fields["end"] = *end
	}
	r.logger.Debug(ctx, "[REPO_CALC_SUMMARY] Temperature summary calculated", fields)

	return &summary, nil
}

// HealthCheck performs a repository health check
func (r *climateRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
