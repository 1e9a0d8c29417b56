package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFile_Defaults(t *testing.T) {
	cfg, err := LoadConfigFile("")
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	if got := cfg.Server.Addr(); got != "127.0.0.1:5000" {
		t.Errorf("Server.Addr() = %q, want 127.0.0.1:5000", got)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
	if cfg.Database.Path != "hawaii.sqlite" {
		t.Errorf("Database.Path = %q, want hawaii.sqlite", cfg.Database.Path)
	}
	if cfg.Database.MaxOpenConns != 1 {
		t.Errorf("Database.MaxOpenConns = %d, want 1", cfg.Database.MaxOpenConns)
	}
	if cfg.Query.CutoffDate != "2017-01-01" {
		t.Errorf("Query.CutoffDate = %q, want 2017-01-01", cfg.Query.CutoffDate)
	}
	if cfg.Query.PrecipitationColumn != PrecipitationFromTobs {
		t.Errorf("Query.PrecipitationColumn = %q, want %q", cfg.Query.PrecipitationColumn, PrecipitationFromTobs)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFile_EnvOverrides(t *testing.T) {
	t.Setenv("CLIMATE_SERVER_PORT", "8081")
	t.Setenv("CLIMATE_DATABASE_PATH", "/data/other.sqlite")
	t.Setenv("CLIMATE_QUERY_PRECIPITATION_COLUMN", "prcp")
	t.Setenv("CLIMATE_SERVER_WRITE_TIMEOUT", "5s")

	cfg, err := LoadConfigFile("")
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Database.Path != "/data/other.sqlite" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Query.PrecipitationColumn != PrecipitationFromPrcp {
		t.Errorf("Query.PrecipitationColumn = %q, want prcp", cfg.Query.PrecipitationColumn)
	}
	if cfg.Server.WriteTimeout != 5*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 5s", cfg.Server.WriteTimeout)
	}
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "climate.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9000
database:
  driver: postgres
  host: db.internal
  database: hawaii
  max_open_conns: 10
query:
  cutoff_date: "2016-08-23"
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:9000" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Database.Driver != DriverPostgres || cfg.Database.Host != "db.internal" || cfg.Database.Database != "hawaii" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Errorf("Database.MaxOpenConns = %d, want 10", cfg.Database.MaxOpenConns)
	}
	if cfg.Query.CutoffDate != "2016-08-23" {
		t.Errorf("Query.CutoffDate = %q", cfg.Query.CutoffDate)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	// untouched keys keep their defaults
	if cfg.Database.MeasurementTable != "measurement" {
		t.Errorf("Database.MeasurementTable = %q", cfg.Database.MeasurementTable)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"sqlite without path", func(c *Config) { c.Database.Path = " " }, "database.path"},
		{"postgres without host", func(c *Config) {
			c.Database.Driver = DriverPostgres
			c.Database.Host = ""
		}, "database.host"},
		{"injected table name", func(c *Config) { c.Database.MeasurementTable = "measurement; DROP TABLE station" }, "measurement_table"},
		{"table starting with digit", func(c *Config) { c.Database.StationTable = "1station" }, "station_table"},
		{"unknown precipitation column", func(c *Config) { c.Query.PrecipitationColumn = "station" }, "precipitation_column"},
		{"empty cutoff", func(c *Config) { c.Query.CutoffDate = "" }, "cutoff_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfigFile("")
			if err != nil {
				t.Fatalf("LoadConfigFile: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
