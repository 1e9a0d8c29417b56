package schema

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"climate-api/internal/climatetest"
	"climate-api/internal/models"
)

func TestRequiredColumns(t *testing.T) {
	tests := []struct {
		name   string
		entity interface{}
		want   []string
	}{
		{"measurement", models.Measurement{}, []string{"date", "id", "prcp", "station", "tobs"}},
		{"station", models.Station{}, []string{"elevation", "id", "latitude", "longitude", "name", "station"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequiredColumns(tt.entity)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RequiredColumns = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBind_HawaiiLayout(t *testing.T) {
	path := climatetest.WriteSQLite(t, climatetest.Schema, nil, nil)
	db := climatetest.OpenSQLite(t, path)

	binding, err := Bind(context.Background(), db, Tables{Measurement: "measurement", Station: "station"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	wantMeasurement := []string{"id", "station", "date", "prcp", "tobs"}
	if !reflect.DeepEqual(binding.Measurement.Columns, wantMeasurement) {
		t.Errorf("measurement columns = %v, want %v", binding.Measurement.Columns, wantMeasurement)
	}
	if binding.Station.Table != "station" || len(binding.Station.Columns) != 6 {
		t.Errorf("station binding = %+v", binding.Station)
	}
}

func TestBind_MissingTable(t *testing.T) {
	schema := `CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp FLOAT, tobs FLOAT);`
	path := climatetest.WriteSQLite(t, schema, nil, nil)
	db := climatetest.OpenSQLite(t, path)

	_, err := Bind(context.Background(), db, Tables{Measurement: "measurement", Station: "station"})

	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Bind error = %v, want *BindError", err)
	}
	if bindErr.Table != "station" || len(bindErr.Missing) != 0 {
		t.Errorf("BindError = %+v", bindErr)
	}
	if bindErr.Error() != `table "station" not found` {
		t.Errorf("Error() = %q", bindErr.Error())
	}
	if bindErr.IsTransient() {
		t.Error("BindError should not be transient")
	}
}

func TestBind_MissingColumns(t *testing.T) {
	schema := `
CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT);
CREATE TABLE station (id INTEGER PRIMARY KEY, station TEXT, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT);
`
	path := climatetest.WriteSQLite(t, schema, nil, nil)
	db := climatetest.OpenSQLite(t, path)

	_, err := Bind(context.Background(), db, Tables{Measurement: "measurement", Station: "station"})

	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Bind error = %v, want *BindError", err)
	}
	if !reflect.DeepEqual(bindErr.Missing, []string{"prcp", "tobs"}) {
		t.Errorf("Missing = %v, want [prcp tobs]", bindErr.Missing)
	}
}

func TestBind_CustomTableNamesAndCase(t *testing.T) {
	schema := `
CREATE TABLE hi_measurements (ID INTEGER PRIMARY KEY, Station TEXT, Date TEXT, PRCP FLOAT, TOBS FLOAT, extra TEXT);
CREATE TABLE hi_stations (id INTEGER PRIMARY KEY, station TEXT, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT);
`
	path := climatetest.WriteSQLite(t, schema, nil, nil)
	db := climatetest.OpenSQLite(t, path)

	binding, err := Bind(context.Background(), db, Tables{Measurement: "hi_measurements", Station: "hi_stations"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if binding.Measurement.Table != "hi_measurements" || len(binding.Measurement.Columns) != 6 {
		t.Errorf("measurement binding = %+v", binding.Measurement)
	}
}
