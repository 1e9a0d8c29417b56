package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable holding an optional YAML config path
const ConfigFileEnv = "CLIMATE_CONFIG_FILE"

const envPrefix = "CLIMATE"

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Columns the precipitation route may read its values from
const (
	PrecipitationFromTobs = "tobs"
	PrecipitationFromPrcp = "prcp"
)

// Config is the full runtime configuration of the climate API
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Query    QueryConfig    `mapstructure:"query"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Addr returns the host:port listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`

	// SQLite
	Path string `mapstructure:"path"`

	// PostgreSQL
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	MeasurementTable string `mapstructure:"measurement_table"`
	StationTable     string `mapstructure:"station_table"`
}

// QueryConfig holds the fixed query parameters of the "last year" routes
type QueryConfig struct {
	CutoffDate          string `mapstructure:"cutoff_date"`
	PrecipitationColumn string `mapstructure:"precipitation_column"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// LoadConfig loads defaults, the optional file named by CLIMATE_CONFIG_FILE
// and CLIMATE_* environment overrides, in that order.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv(ConfigFileEnv))
}

// LoadConfigFile is LoadConfig with an explicit file path; an empty path skips the file.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "hawaii.sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "climate")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", time.Duration(0))
	v.SetDefault("database.conn_max_idle_time", time.Duration(0))
	v.SetDefault("database.measurement_table", "measurement")
	v.SetDefault("database.station_table", "station")

	v.SetDefault("query.cutoff_date", "2017-01-01")
	v.SetDefault("query.precipitation_column", PrecipitationFromTobs)

	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.namespace", "climate_api")
}

// Validate checks the configuration for values the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("database.path is required for driver %s", DriverSQLite)
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("database.host and database.database are required for driver %s", DriverPostgres)
		}
	default:
		return fmt.Errorf("invalid database.driver %q (allowed: %s, %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}

	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("invalid database.max_open_conns %d", c.Database.MaxOpenConns)
	}

	if !isIdentifier(c.Database.MeasurementTable) {
		return fmt.Errorf("invalid database.measurement_table %q", c.Database.MeasurementTable)
	}
	if !isIdentifier(c.Database.StationTable) {
		return fmt.Errorf("invalid database.station_table %q", c.Database.StationTable)
	}

	switch c.Query.PrecipitationColumn {
	case PrecipitationFromTobs, PrecipitationFromPrcp:
	default:
		return fmt.Errorf("invalid query.precipitation_column %q (allowed: %s, %s)",
			c.Query.PrecipitationColumn, PrecipitationFromTobs, PrecipitationFromPrcp)
	}

	if c.Query.CutoffDate == "" {
		return fmt.Errorf("query.cutoff_date is required")
	}

	return nil
}

// isIdentifier reports whether s is a bare SQL identifier. Table names are
// interpolated into statements, so nothing else is accepted.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
