// Package schema checks at startup that the climate tables in the data store
// can carry the statically declared entity types in internal/models.
package schema

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"

	"climate-api/internal/models"
	"climate-api/pkg/database"
)

// Tables names the store tables each entity is read from
type Tables struct {
	Measurement string
	Station     string
}

// TableBinding is one entity bound to a live table
type TableBinding struct {
	Table   string
	Columns []string
}

// Binding is the result of a successful Bind
type Binding struct {
	Measurement TableBinding
	Station     TableBinding
}

// BindError reports a table that is absent or lacks entity columns
type BindError struct {
	Table   string
	Missing []string
}

func (e *BindError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("table %q not found", e.Table)
	}
	return fmt.Sprintf("table %q is missing columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// IsTransient returns false, a schema mismatch does not fix itself
func (e *BindError) IsTransient() bool {
	return false
}

var mapper = reflectx.NewMapperFunc("db", strings.ToLower)

// RequiredColumns lists the db-tagged columns of an entity struct, sorted
func RequiredColumns(entity interface{}) []string {
	sm := mapper.TypeMap(reflect.TypeOf(entity))

	cols := make([]string, 0, len(sm.Index))
	for _, fi := range sm.Index {
		if len(fi.Index) != 1 || fi.Embedded {
			continue
		}
		cols = append(cols, fi.Path)
	}
	sort.Strings(cols)
	return cols
}

// Bind introspects the live tables and checks them against models.Measurement and models.Station
func Bind(ctx context.Context, db *database.DB, tables Tables) (*Binding, error) {
	measurement, err := bindTable(ctx, db, tables.Measurement, models.Measurement{})
	if err != nil {
		return nil, err
	}

	station, err := bindTable(ctx, db, tables.Station, models.Station{})
	if err != nil {
		return nil, err
	}

	return &Binding{Measurement: measurement, Station: station}, nil
}

func bindTable(ctx context.Context, db *database.DB, table string, entity interface{}) (TableBinding, error) {
	live, err := LiveColumns(ctx, db, table)
	if err != nil {
		return TableBinding{}, fmt.Errorf("failed to introspect table %s: %w", table, err)
	}
	if len(live) == 0 {
		return TableBinding{}, &BindError{Table: table}
	}

	have := make(map[string]struct{}, len(live))
	for _, c := range live {
		have[strings.ToLower(c)] = struct{}{}
	}

	var missing []string
	for _, c := range RequiredColumns(entity) {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return TableBinding{}, &BindError{Table: table, Missing: missing}
	}

	return TableBinding{Table: table, Columns: live}, nil
}

// LiveColumns returns the column names of table in declaration order.
// A table that does not exist yields an empty list.
func LiveColumns(ctx context.Context, db *database.DB, table string) ([]string, error) {
	var query string
	switch db.Driver() {
	case database.DriverSQLite:
		query = `SELECT name FROM pragma_table_info(?) ORDER BY cid`
	case database.DriverPostgres:
		query = `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position
		`
	default:
		return nil, fmt.Errorf("no catalog query for driver %q", db.Driver())
	}

	var cols []string
	if err := db.SelectContext(ctx, "table_columns", &cols, db.Rebind(query), table); err != nil {
		return nil, err
	}
	return cols, nil
}
