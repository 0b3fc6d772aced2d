package db

import (
	"fmt"
	"os"
	"path/filepath"

	clover "github.com/ostafen/clover/v2"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gitlab.com/nunet/yarn-data/internal/config"
	"gitlab.com/nunet/yarn-data/models"
)

// Open connects to the relational database selected by cfg and installs the
// tracing plugin, so every statement becomes a span when tracing is enabled.
func Open(cfg config.Database, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite, "":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("unable to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Path)
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires database.dsn")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}
	database, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("unable to open %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver != config.DriverPostgres && cfg.Path == ":memory:" {
		// each connection to :memory: is its own database
		sqlDB, err := database.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := database.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("unable to install tracing plugin: %w", err)
	}

	zlog.Sugar().Debugf("opened %s database", dialector.Name())
	return database, nil
}

// Migrate creates or updates the tables of every relational model.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderLine{},
	)
}

// Close releases the connection pool.
func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenAudit opens the document store holding the audit trail, creating the
// directory on first use.
func OpenAudit(path string) (*clover.DB, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create audit directory: %w", err)
	}
	store, err := clover.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open audit store: %w", err)
	}
	return store, nil
}
