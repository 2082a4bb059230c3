package migration

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Result describes what Apply did to the dice roll schema.
type Result struct {
	// Versioned is false when the schema came from the gorm models.
	Versioned bool
	Version   uint
	Dirty     bool
}

// Apply brings the dice roll schema up to date. PostgreSQL runs the embedded
// SQL migrations; sqlite and mysql are created from the gorm models.
func Apply(conn *gorm.DB) (Result, error) {
	if conn == nil {
		return Result{}, errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() != "postgres" {
		if err := conn.AutoMigrate(&usagedomain.DiceRoll{}); err != nil {
			return Result{}, fmt.Errorf("auto migrate dice rolls: %w", err)
		}
		return Result{}, nil
	}

	migrator, err := newMigrator(conn)
	if err != nil {
		return Result{}, err
	}
	// Closing the migrator would close the pool shared with the app.
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Result{}, fmt.Errorf("apply dice roll migrations: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Result{}, fmt.Errorf("read migration version: %w", err)
	}
	return Result{Versioned: true, Version: version, Dirty: dirty}, nil
}

func newMigrator(conn *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: "creditgate_schema_migrations"})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}
