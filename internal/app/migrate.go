package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Olprog59/go-freightdesk/internal/repository/db"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file-based migrations
)

// MigrationStatus is the schema version of a database / Version du schéma d'une base
type MigrationStatus struct {
	Version uint `json:"version" yaml:"version"`
	Dirty   bool `json:"dirty" yaml:"dirty"`
}

// Migrator applies the SQL migrations of one database / Applique les migrations d'une base
type Migrator struct {
	m      *migrate.Migrate
	dbType db.DatabaseType
}

// databaseType normalizes the configured type / Normalise le type configuré
func databaseType(raw string) db.DatabaseType {
	switch t := db.DatabaseType(strings.ToLower(raw)); t {
	case "":
		return db.SQLite
	case "postgresql":
		return db.PostgreSQL
	default:
		return t
	}
}

// NewMigrator creates a migrator over an open connection / Crée un migrateur sur une connexion ouverte
func NewMigrator(database *sql.DB, dbTypeName, migrationsPath string) (*Migrator, error) {
	dbType := databaseType(dbTypeName)

	// Create migration driver registry (Dependency Injection)
	registry := db.NewMigrationDriverRegistry()
	driverFactory, err := registry.GetFactory(dbType)
	if err != nil {
		return nil, err
	}

	driver, err := driverFactory.CreateDriver(database)
	if err != nil {
		return nil, fmt.Errorf("could not create %s migration driver: %w", dbType, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, driverFactory.DriverName(), driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return &Migrator{m: m, dbType: dbType}, nil
}

// Up applies every pending migration / Applique toutes les migrations en attente
func (g *Migrator) Up() error {
	slog.Info("applying database migrations", "type", g.dbType)
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("database migrations applied")
	return nil
}

// Down rolls back the given number of migrations / Annule le nombre de migrations donné
func (g *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	if err := g.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Status reports the current schema version / Retourne la version courante du schéma
func (g *Migrator) Status() (MigrationStatus, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, err
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}
