package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// Driver names accepted by Open
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds database connection configuration
type Config struct {
	Driver string

	// Path is the SQLite database file (or a "file:" URI)
	Path string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// PoolMonitorInterval defaults to 10s when zero
	PoolMonitorInterval time.Duration
}

// DB wraps sqlx.DB with monitoring and metrics
type DB struct {
	db      *sqlx.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	config  *Config

	done      chan struct{}
	closeOnce sync.Once
}

// Open opens the climate data store and verifies it is reachable.
// SQLite files are opened read-only; a missing file fails here rather than being created.
func Open(cfg *Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info(context.Background(), "[DB_INIT] Database connection established", logging.Fields{
		"driver":            cfg.Driver,
		"target":            cfg.target(),
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	d := &DB{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
		config:  cfg,
		done:    make(chan struct{}),
	}

	go d.monitorConnectionPool()

	return d, nil
}

func buildDSN(cfg *Config) (string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return sqliteDSN(cfg.Path)
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Database,
			cfg.SSLMode,
		), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN builds a read-only DSN for mattn/go-sqlite3
func sqliteDSN(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("sqlite database path is empty")
	}

	params := []string{
		"mode=ro",
		"_busy_timeout=5000",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

func (c *Config) target() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}

// Close stops the pool monitor and closes the database connection
func (d *DB) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		d.logger.Info(context.Background(), "[DB_CLOSE] Closing database connection", logging.Fields{
			"target": d.config.target(),
		})
		err = d.db.Close()
	})
	return err
}

// DB returns the underlying sqlx.DB instance
func (d *DB) DB() *sqlx.DB {
	return d.db
}

// Driver returns the driver name the connection was opened with
func (d *DB) Driver() string {
	return d.config.Driver
}

// Rebind rewrites '?' placeholders into the driver's bindvar style
func (d *DB) Rebind(query string) string {
	return d.db.Rebind(query)
}

// GetContext executes a query that returns a single row
func (d *DB) GetContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := d.metrics.NewTimer(d.metrics.DBQueryDuration.WithLabelValues(queryType))
	defer func() {
		duration := timer.ObserveDuration()

		d.logger.Debug(ctx, "[DB_QUERY] Query executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
			"query":       query,
		})
	}()

	err := d.db.GetContext(ctx, dest, query, args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		d.metrics.RecordDBError("get_error")
		d.logger.Error(ctx, "[DB_GET_ERROR] Get query failed", logging.Fields{
			"query_type": queryType,
			"query":      query,
		}, err)
	}

	return err
}

// SelectContext executes a query that returns multiple rows
func (d *DB) SelectContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := d.metrics.NewTimer(d.metrics.DBQueryDuration.WithLabelValues(queryType))
	defer func() {
		duration := timer.ObserveDuration()

		d.logger.Debug(ctx, "[DB_QUERY] Query executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
			"query":       query,
		})
	}()

	err := d.db.SelectContext(ctx, dest, query, args...)
	if err != nil {
		d.metrics.RecordDBError("select_error")
		d.logger.Error(ctx, "[DB_SELECT_ERROR] Select query failed", logging.Fields{
			"query_type": queryType,
			"query":      query,
		}, err)
		return err
	}

	return nil
}

// monitorConnectionPool periodically updates connection pool metrics
func (d *DB) monitorConnectionPool() {
	interval := d.config.PoolMonitorInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.recordPoolStats()
		}
	}
}

func (d *DB) recordPoolStats() {
	stats := d.db.Stats()

	d.metrics.UpdateDBConnectionPool(
		stats.InUse,
		stats.Idle,
		stats.OpenConnections,
	)

	if stats.MaxOpenConnections <= 0 {
		return
	}

	// Log warning if connection pool is near capacity
	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections)
	if utilization > 0.8 {
		d.logger.Warn(context.Background(), "[DB_POOL_WARNING] Connection pool utilization high", logging.Fields{
			"in_use":      stats.InUse,
			"idle":        stats.Idle,
			"total":       stats.OpenConnections,
			"max_open":    stats.MaxOpenConnections,
			"utilization": fmt.Sprintf("%.2f%%", utilization*100),
		})
	}
}

// HealthCheck performs a database health check
func (d *DB) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
