package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/terraincognita07/mamacare/internal/config"
	"github.com/terraincognita07/mamacare/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured store and brings its schema up to date.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgres(cfg.URL, log)
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func OpenSQLite(dbPath string, log *logger.Logger) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyEmbeddedMigrations(database, log); err != nil {
		return nil, fmt.Errorf("apply embedded migrations: %w", err)
	}

	return database, nil
}

// OpenPostgres is used for hosted deployments. The embedded migrations are
// SQLite dialect, so the Postgres schema is reconciled from the models.
func OpenPostgres(dsn string, log *logger.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := database.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	return database, nil
}

type gormWriter struct {
	log *logger.Logger
}

func (writer gormWriter) Printf(format string, args ...interface{}) {
	writer.log.SugaredLogger.Warnf(format, args...)
}

func newGormLogger(log *logger.Logger) gormlogger.Interface {
	if log == nil {
		log = logger.Nop()
	}
	return gormlogger.New(
		gormWriter{log: log.With("component", "gorm")},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
