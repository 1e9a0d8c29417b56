// Package climatetest builds throwaway SQLite climate databases for tests.
package climatetest

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"

	"climate-api/internal/models"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// Schema mirrors the table layout of hawaii.sqlite
const Schema = `
CREATE TABLE measurement (
  id      INTEGER NOT NULL PRIMARY KEY,
  station TEXT,
  date    TEXT,
  prcp    FLOAT,
  tobs    FLOAT
);
CREATE TABLE station (
  id        INTEGER NOT NULL PRIMARY KEY,
  station   TEXT,
  name      TEXT,
  latitude  FLOAT,
  longitude FLOAT,
  elevation FLOAT
);
`

// Float returns a pointer to f, for nullable columns
func Float(f float64) *float64 { return &f }

// M is shorthand for a measurement row without an id
func M(station, date string, tobs float64) models.Measurement {
	return models.Measurement{Station: station, Date: date, Tobs: tobs}
}

// WriteSQLite creates a database file under t.TempDir() with the given schema
// and rows, and returns its path.
func WriteSQLite(t testing.TB, schema string, measurements []models.Measurement, stations []models.Station) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "climate.sqlite")
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close fixture db: %v", closeErr)
		}
	}()

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("exec fixture schema: %v", err)
	}

	for i, m := range measurements {
		if m.ID == 0 {
			m.ID = int64(i + 1)
		}
		if _, err := db.NamedExec(
			`INSERT INTO measurement (id, station, date, prcp, tobs) VALUES (:id, :station, :date, :prcp, :tobs)`, m); err != nil {
			t.Fatalf("insert measurement %+v: %v", m, err)
		}
	}

	for i, s := range stations {
		if s.ID == 0 {
			s.ID = int64(i + 1)
		}
		if _, err := db.NamedExec(
			`INSERT INTO station (id, station, name, latitude, longitude, elevation)
			 VALUES (:id, :station, :name, :latitude, :longitude, :elevation)`, s); err != nil {
			t.Fatalf("insert station %+v: %v", s, err)
		}
	}

	return path
}

// Logger returns a logger that discards output
func Logger() *logging.StructuredLogger {
	return logging.NewStructuredLoggerTo("climate-api-test", "test", logging.DebugLevel, io.Discard)
}

// Metrics returns a collector on a private registry
func Metrics() *metrics.Collector {
	return metrics.NewCollector("climate_test", prometheus.NewRegistry())
}

// OpenSQLite opens path through the production database wrapper and closes it on cleanup
func OpenSQLite(t testing.TB, path string) *database.DB {
	t.Helper()

	db, err := database.Open(&database.Config{
		Driver:       database.DriverSQLite,
		Path:         path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, Logger(), Metrics())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Stations used across tests, taken from the Hawaii dataset
var Stations = []models.Station{
	{Station: "USC00519397", Name: "WAIKIKI 717.2, HI US", Latitude: 21.2716, Longitude: -157.8168, Elevation: 3},
	{Station: "USC00513117", Name: "KANEOHE 838.1, HI US", Latitude: 21.4234, Longitude: -157.8015, Elevation: 14.6},
	{Station: "USC00519281", Name: "WAIHEE 837.5, HI US", Latitude: 21.45167, Longitude: -157.84889, Elevation: 32.9},
}
