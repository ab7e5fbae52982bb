// Package db opens the invoice database and applies its schema.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BohBOhTN/ELKOLLA-API/internal/config"
	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres:// database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Open connects to the configured driver, retrying while PostgreSQL starts.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialector, attempts, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var conn *gorm.DB
	for i := 1; i <= attempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying",
			zap.Int("attempt", i), zap.Int("max_attempts", attempts), zap.Error(err))
		if i < attempts {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("db: connect after %d attempts: %w", attempts, err)
	}

	if cfg.Driver == config.DriverSQLite {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("db: sqlite handle: %w", err)
		}
		// One writer at a time; SQLite reports "database is locked" otherwise.
		sqlDB.SetMaxOpenConns(1)
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("db: enable foreign keys: %w", err)
		}
	}

	if err := Ping(context.Background(), conn); err != nil {
		return nil, err
	}
	log.Info("database connected",
		zap.String("driver", cfg.Driver), zap.String("dsn", MaskDSN(cfg.DSN())))
	return conn, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, int, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		dsn := NormalizeDSN(cfg.DSN())
		if dsn == "" {
			return nil, 0, errors.New("db: empty postgres DSN")
		}
		return postgres.Open(dsn), connectAttempts, nil
	case config.DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, 0, errors.New("db: empty SQLITE_PATH")
		}
		return sqlite.Open(sqliteDSN(cfg.SQLitePath)), 1, nil
	default:
		return nil, 0, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") || strings.Contains(path, "_fk=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=1"
	}
	return path + "?_foreign_keys=1"
}

// Ping runs a trivial query.
func Ping(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}

// Migrate creates the invoice tables. With sqlMigrations on PostgreSQL the
// embedded SQL files are applied with golang-migrate; otherwise gorm's
// AutoMigrate is used.
func Migrate(conn *gorm.DB, cfg config.DatabaseConfig, sqlMigrations bool, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if sqlMigrations && cfg.Driver != config.DriverSQLite {
		if err := runSQLMigrations(migrationURL(cfg)); err != nil {
			return fmt.Errorf("db: sql migrations: %w", err)
		}
		log.Info("sql migrations applied")
	} else {
		for _, m := range models.Models() {
			if err := conn.AutoMigrate(m); err != nil {
				return fmt.Errorf("db: automigrate %T: %w", m, err)
			}
		}
		log.Info("automigrate completed")
	}

	for _, table := range []string{"invoices", "items"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("db: missing table after migration: " + table)
		}
	}
	return nil
}

// migrationURL is the URL form golang-migrate's postgres driver expects, even
// when DATABASE_URL was given as key=value pairs.
func migrationURL(cfg config.DatabaseConfig) string {
	return ToURLDSN(NormalizeDSN(cfg.PostgresURL()))
}

func runSQLMigrations(url string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
