package models

import (
	"encoding/json"
	"fmt"
)

// Measurement is one weather reading row.
// Dates stay text so range filters compare lexicographically, the same way the store does.
type Measurement struct {
	ID      int64    `json:"id" db:"id"`
	Station string   `json:"station" db:"station"`
	Date    string   `json:"date" db:"date"`
	Prcp    *float64 `json:"prcp" db:"prcp"`
	Tobs    float64  `json:"tobs" db:"tobs"`
}

// Station is the metadata row of a single weather station
type Station struct {
	ID        int64   `json:"id" db:"id"`
	Station   string  `json:"station" db:"station"`
	Name      string  `json:"name" db:"name"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Elevation float64 `json:"elevation" db:"elevation"`
}

// DateValue is a (date, value) pair read for the precipitation route
type DateValue struct {
	Date  string   `db:"date"`
	Value *float64 `db:"value"`
}

// TemperatureSummary holds min/avg/max of the temperature observations in a date range.
// All three are nil when the range matched no rows.
type TemperatureSummary struct {
	Min *float64 `db:"tmin"`
	Avg *float64 `db:"tavg"`
	Max *float64 `db:"tmax"`
}

// IsEmpty reports whether the aggregate ran over zero rows
func (s TemperatureSummary) IsEmpty() bool {
	return s.Min == nil && s.Avg == nil && s.Max == nil
}

// MarshalJSON encodes the summary as the array [min, avg, max]
func (s TemperatureSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]*float64{s.Min, s.Avg, s.Max})
}

// UnmarshalJSON decodes the array form written by MarshalJSON
func (s *TemperatureSummary) UnmarshalJSON(data []byte) error {
	var values []*float64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if len(values) != 3 {
		return fmt.Errorf("temperature summary: want 3 values, got %d", len(values))
	}
	s.Min, s.Avg, s.Max = values[0], values[1], values[2]
	return nil
}
