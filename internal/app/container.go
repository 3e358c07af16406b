package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/metrics"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/repository"
	"github.com/Olprog59/go-freightdesk/internal/repository/db"
	"github.com/Olprog59/go-freightdesk/internal/service"
	"github.com/Olprog59/go-freightdesk/internal/service/auth"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite" // SQLite driver
)

// Container holds application dependencies / Contient les dépendances de l'application
type Container struct {
	DB         *sql.DB
	Config     *config.Config
	Clients    ports.ClientRepository
	Folders    ports.FolderRepository
	Validator  *service.ValidationService
	ClientSvc  *service.ClientService
	ContactSvc *service.ContactService
	BatchSvc   *service.BatchService
	SearchSvc  *service.SearchService
	Tokens     *auth.Verifier
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	ctxCancel  context.CancelFunc
}

type options struct {
	registry      *prometheus.Registry
	skipMigration bool
}

// Option customizes container construction / Personnalise la construction du conteneur
type Option func(*options)

// WithRegistry registers metrics on reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithoutMigrations leaves the schema untouched (fwdctl migrate manages it).
func WithoutMigrations() Option {
	return func(o *options) { o.skipMigration = true }
}

// NewContainer initializes application container / Initialise le conteneur de l'application
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Config: cfg}

	// Initialize metrics first (no dependencies)
	if o.registry != nil {
		c.Metrics = metrics.NewMetrics(o.registry)
		c.Gatherer = o.registry
	} else {
		c.Metrics = metrics.NewMetrics(nil)
		c.Gatherer = prometheus.DefaultGatherer
	}

	tokens, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return nil, fmt.Errorf("token verifier: %w", err)
	}
	c.Tokens = tokens

	if err := c.initDatabase(); err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}

	if !o.skipMigration {
		if err := c.runMigrations(); err != nil {
			c.Close() // Ensure database connection is closed on migration failure
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	c.initRepositories()
	c.initServices()

	// Update database connection metrics
	c.updateDatabaseMetrics()

	return c, nil
}

// initDatabase initializes database connection / Initialise la connexion à la base de données
func (c *Container) initDatabase() error {
	dbType := databaseType(c.Config.Database.Type)

	dbConfig := db.DatabaseConfig{
		Type:         dbType,
		DSN:          c.Config.Database.DSN,
		MaxOpenConns: c.Config.Database.MaxOpenConns,
		MaxIdleConns: c.Config.Database.MaxIdleConns,
	}

	// Use Factory Pattern to create appropriate initializer
	initializer := db.NewDatabaseInitializer(dbType)

	database, err := initializer.Initialize(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize %s database: %w", dbType, err)
	}

	c.DB = database
	return nil
}

// runMigrations applies database migrations / Applique les migrations de base de données
func (c *Container) runMigrations() error {
	m, err := NewMigrator(c.DB, c.Config.Database.Type, c.Config.Database.MigrationsPath)
	if err != nil {
		return err
	}
	return m.Up()
}

// Migrator returns a migrator bound to the container's database / Retourne un migrateur lié à la base
func (c *Container) Migrator() (*Migrator, error) {
	return NewMigrator(c.DB, c.Config.Database.Type, c.Config.Database.MigrationsPath)
}

// initRepositories initializes repositories / Initialise les repositories
func (c *Container) initRepositories() {
	// Use Adapter Pattern for clean database abstraction
	adapter := repository.NewAdapter(c.DB, c.Config.Database.Type)

	c.Clients = adapter.ClientRepository()
	c.Folders = adapter.FolderRepository()

	slog.Info("repositories initialized", "type", databaseType(c.Config.Database.Type))
}

// initServices initializes application services / Initialise les services applicatifs
func (c *Container) initServices() {
	records := c.Config.Records

	c.Validator = service.NewValidationService(c.Clients, c.Metrics)
	c.ClientSvc = service.NewClientService(c.Clients, c.Folders, c.Validator, records, c.Metrics)
	c.ContactSvc = service.NewContactService(c.Clients, records, c.Metrics)
	c.BatchSvc = service.NewBatchService(c.Clients, c.Folders, c.ClientSvc, records, c.Metrics)
	c.SearchSvc = service.NewSearchService(c.Clients, records, c.Metrics)

	ctx, cancel := context.WithCancel(context.Background())
	c.ctxCancel = cancel

	// Start automatic backup goroutine if enabled / Démarre la goroutine de backup automatique si activée
	if c.Config.Backup.Enabled {
		c.startBackupRoutine(ctx)
	}
}

// updateDatabaseMetrics updates database metrics / Met à jour les métriques de la BD
func (c *Container) updateDatabaseMetrics() {
	stats := c.DB.Stats()
	c.Metrics.UpdateDatabaseConnections(stats.OpenConnections)
}

// startBackupRoutine starts automatic backup routine / Démarre la routine de backup automatique
func (c *Container) startBackupRoutine(ctx context.Context) {
	go func() {
		c.Metrics.SetBackgroundTaskStatus("database_backup", true)
		ticker := time.NewTicker(c.Config.Backup.Interval)
		defer ticker.Stop()

		slog.Info("automatic database backup enabled",
			"interval", c.Config.Backup.Interval,
			"retention_days", c.Config.Backup.RetentionDays)

		for {
			select {
			case <-ticker.C:
				if _, err := c.PerformBackup(ctx); err != nil {
					slog.Error("backup failed", "error", err)
				}
				// Clean old backups after creating new one / Nettoie les anciens backups après création
				if _, err := c.CleanOldBackups(time.Now()); err != nil {
					slog.Error("backup cleanup failed", "error", err)
				}
			case <-ctx.Done():
				c.Metrics.SetBackgroundTaskStatus("database_backup", false)
				slog.Info("backup goroutine stopped")
				return
			}
		}
	}()
}

// backupFilename names a backup of dbFile taken at t.
func backupFilename(dbFile string, t time.Time) string {
	return fmt.Sprintf("%s.backup-%s.db", filepath.Base(dbFile), t.Format("20060102-150405"))
}

// isBackupFile reports whether name was produced by backupFilename.
func isBackupFile(name string) bool {
	return strings.Contains(name, ".backup-") && strings.HasSuffix(name, ".db")
}

// PerformBackup copies the SQLite database into the backup directory and
// returns the written path.
//
// PerformBackup copie la base SQLite dans le répertoire de sauvegarde.
func (c *Container) PerformBackup(ctx context.Context) (string, error) {
	if databaseType(c.Config.Database.Type) != db.SQLite {
		return "", fmt.Errorf("backups are only supported for sqlite, not %s", c.Config.Database.Type)
	}

	if err := os.MkdirAll(c.Config.Backup.Path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Extract database filename from DSN / Extrait le nom du fichier depuis le DSN
	dbName := strings.TrimPrefix(c.Config.Database.DSN, "file:")
	if idx := strings.Index(dbName, "?"); idx >= 0 {
		dbName = dbName[:idx]
	}
	if dbName == "" || dbName == ":memory:" {
		return "", fmt.Errorf("cannot backup in-memory database")
	}

	backupPath := filepath.Join(c.Config.Backup.Path, backupFilename(dbName, time.Now()))

	// VACUUM INTO needs SQLite 3.27.0+ / VACUUM INTO nécessite SQLite 3.27.0+
	if _, err := c.DB.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		return "", fmt.Errorf("backup execution failed: %w", err)
	}

	slog.Info("database backup created", "path", backupPath)
	return backupPath, nil
}

// CleanOldBackups removes backups older than the retention and returns how
// many were deleted / Supprime les anciens backups
func (c *Container) CleanOldBackups(now time.Time) (int, error) {
	if c.Config.Backup.RetentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := now.AddDate(0, 0, -c.Config.Backup.RetentionDays)

	entries, err := os.ReadDir(c.Config.Backup.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	deletedCount := 0
	for _, entry := range entries {
		if entry.IsDir() || !isBackupFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Warn("failed to stat backup", "file", entry.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoffTime) {
			continue
		}

		if err := os.Remove(filepath.Join(c.Config.Backup.Path, entry.Name())); err != nil {
			slog.Warn("failed to delete old backup", "file", entry.Name(), "error", err)
			continue
		}
		deletedCount++
	}

	if deletedCount > 0 {
		slog.Info("old backups removed", "count", deletedCount)
	}
	return deletedCount, nil
}

// Close performs graceful shutdown / Effectue un arrêt gracieux
func (c *Container) Close() error {
	if c.ctxCancel != nil {
		c.ctxCancel()
	}
	if c.DB != nil {
		slog.Info("closing database")
		return c.DB.Close()
	}
	return nil
}
