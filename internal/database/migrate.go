package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/trustfreeze/backend/internal/logger"
	"github.com/trustfreeze/backend/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings the schema up to date. Postgres runs the embedded SQL
// migrations, which also install the append-only trigger; SQLite, used for
// local runs and tests, is auto-migrated from the models.
func Migrate(db *gorm.DB, driver string) error {
	switch driver {
	case DriverSQLite:
		if err := db.AutoMigrate(&models.FreezeAuditLog{}); err != nil {
			return fmt.Errorf("auto-migrate sqlite: %w", err)
		}
		return nil
	case DriverPostgres:
		m, err := NewMigrator(db)
		if err != nil {
			return err
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("applying migrations: %w", err)
		}
		version, dirty, _ := m.Version()
		logger.WithFields(map[string]interface{}{"version": version, "dirty": dirty}).Info("migrations applied")
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewMigrator returns a golang-migrate instance over the embedded migrations
// bound to a postgres connection.
func NewMigrator(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating postgres driver: %w", err)
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}
