// Package config provides application configuration management using Viper.
// It supports loading configuration from YAML files, a local .env file and
// environment variables, with built-in validation for production and
// development environments. The structure covers the database (SQLite, MySQL,
// PostgreSQL), bearer-token verification, CORS, rate limiting, logging and the
// bounds of the client record service (batch size, page size, concurrency).
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Hard bounds for record service settings / Bornes strictes du service de fiches
const (
	MaxBatchSizeLimit     = 1000
	MaxPageSizeLimit      = 100
	MaxBatchConcurrency   = 16
	DefaultMaxBatchSize   = 1000
	DefaultMaxPageSize    = 100
	DefaultPageSize       = 20
	DefaultMaxWriteRetry  = 3
	defaultJWTSecretValue = "your-super-secret-key"
)

// Config holds all application configuration / Contient toute la configuration de l'application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Environment string            `mapstructure:"environment"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Backup      BackupConfig      `mapstructure:"backup"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Security    SecurityConfig    `mapstructure:"security"`
	Cors        CorsConfig        `mapstructure:"cors"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Records     RecordsConfig     `mapstructure:"records"`
}

// ServerConfig holds server configuration / Configuration serveur
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BaseURL      string        `mapstructure:"base_url"`
}

// DatabaseConfig holds database-specific configuration / Configuration de la base de données
type DatabaseConfig struct {
	Type           string `mapstructure:"type"`            // Database type: "sqlite", "mysql", or "postgres"
	DSN            string `mapstructure:"dsn"`             // Data Source Name for connecting to the database
	MigrationsPath string `mapstructure:"migrations_path"` // Path to migration files
	MaxOpenConns   int    `mapstructure:"max_open_conns"`  // Maximum number of open connections (default: 25)
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`  // Maximum number of idle connections (default: 5)
}

// BackupConfig holds database backup configuration / Configuration des sauvegardes de la base de données
type BackupConfig struct {
	Enabled       bool          `mapstructure:"enabled"`        // Enable automatic backups / Active les sauvegardes automatiques
	Interval      time.Duration `mapstructure:"interval"`       // Backup interval (default: 24h) / Intervalle de sauvegarde
	Path          string        `mapstructure:"path"`           // Directory to store backups / Répertoire de stockage
	RetentionDays int           `mapstructure:"retention_days"` // Number of days to keep backups / Nombre de jours de rétention
}

// AuthConfig holds bearer-token configuration. Tokens are issued by the
// surrounding identity provider; this service only verifies them and reads
// the acting user from the subject.
type AuthConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	Issuer              string        `mapstructure:"issuer"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"` // Lifetime of tokens minted by fwdctl
}

// SecurityConfig holds security settings / Paramètres de sécurité
type SecurityConfig struct {
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// CorsConfig holds CORS configuration / Configuration CORS
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimiterConfig holds rate limiter configuration / Configuration limiteur de débit
type RateLimiterConfig struct {
	RPS        float64 `mapstructure:"rps"`
	Burst      int     `mapstructure:"burst"`
	BatchRPS   float64 `mapstructure:"batch_rps"`   // Stricter limit for bulk endpoints
	BatchBurst int     `mapstructure:"batch_burst"` // Stricter burst for bulk endpoints
	Enabled    bool    `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration / Configuration logging
type LoggingConfig struct {
	Level         string            `mapstructure:"level"`
	Format        string            `mapstructure:"format"`
	LokiEnabled   bool              `mapstructure:"loki_enabled"`
	LokiURL       string            `mapstructure:"loki_url"`
	LokiLabels    map[string]string `mapstructure:"loki_labels"`
	LokiBatchSize int               `mapstructure:"loki_batch_size"`
}

// RecordsConfig bounds the client record service / Bornes du service de fiches client
type RecordsConfig struct {
	MaxBatchSize     int `mapstructure:"max_batch_size"`    // Hard cap on ids per batch (≤1000)
	MaxPageSize      int `mapstructure:"max_page_size"`     // Cap on list/search page size (≤100)
	DefaultPageSize  int `mapstructure:"default_page_size"` // Page size when the caller sends none
	BatchConcurrency int `mapstructure:"batch_concurrency"` // Per-item fan-out; 1 keeps batches sequential
	MaxWriteRetries  int `mapstructure:"max_write_retries"` // Retries of a read-modify-write on version conflict
}

// DefaultRecordsConfig returns the built-in record bounds / Retourne les bornes par défaut
func DefaultRecordsConfig() RecordsConfig {
	return RecordsConfig{
		MaxBatchSize:     DefaultMaxBatchSize,
		MaxPageSize:      DefaultMaxPageSize,
		DefaultPageSize:  DefaultPageSize,
		BatchConcurrency: 1,
		MaxWriteRetries:  DefaultMaxWriteRetry,
	}
}

// IsProduction checks if environment is production / Vérifie si l'environnement est production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsProd is alias for IsProduction / Alias pour IsProduction
func (c *Config) IsProd() bool {
	return c.IsProduction()
}

// IsDevelopment checks if environment is development / Vérifie si l'environnement est development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsDev is alias for IsDevelopment / Alias pour IsDevelopment
func (c *Config) IsDev() bool {
	return c.IsDevelopment()
}

// LoadConfig loads configuration from YAML and env vars / Charge la config depuis YAML et variables d'env
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("environment", "development")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	v.SetDefault("database.migrations_path", "migrations/sqlite")
	v.SetDefault("auth.jwt_secret", defaultJWTSecretValue)
	v.SetDefault("auth.issuer", "freightdesk")
	v.SetDefault("auth.access_token_duration", "15m")
	v.SetDefault("security.trusted_proxies", []string{}) // Empty by default - don't trust proxy headers unless explicitly configured
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	// Rate limiter defaults - More permissive in dev
	v.SetDefault("rate_limiter.rps", 10)
	v.SetDefault("rate_limiter.burst", 20)
	v.SetDefault("rate_limiter.batch_rps", 0.5)
	v.SetDefault("rate_limiter.batch_burst", 2)
	v.SetDefault("rate_limiter.enabled", true)

	// Backup defaults
	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.interval", "24h")
	v.SetDefault("backup.path", "./backups")
	v.SetDefault("backup.retention_days", 7)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.loki_enabled", false)
	v.SetDefault("logging.loki_url", "http://localhost:3100")
	v.SetDefault("logging.loki_labels", map[string]string{
		"app":         "freightdesk",
		"environment": "development",
	})
	v.SetDefault("logging.loki_batch_size", 10)

	// Record service defaults
	rec := DefaultRecordsConfig()
	v.SetDefault("records.max_batch_size", rec.MaxBatchSize)
	v.SetDefault("records.max_page_size", rec.MaxPageSize)
	v.SetDefault("records.default_page_size", rec.DefaultPageSize)
	v.SetDefault("records.batch_concurrency", rec.BatchConcurrency)
	v.SetDefault("records.max_write_retries", rec.MaxWriteRetries)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("database.type", "DATABASE_TYPE")

	var cfg Config
	err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, err
	}

	// Validation
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates configuration / Valide la configuration
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	if err := c.validateRateLimiter(); err != nil {
		return err
	}

	if err := c.Records.Validate(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}

// validateDatabase validates database configuration
func (c *Config) validateDatabase() error {
	validDBTypes := []string{"sqlite", "mysql", "postgres", "postgresql", ""}
	dbType := strings.ToLower(c.Database.Type)

	if dbType != "" && !slices.Contains(validDBTypes, dbType) {
		return errors.New("database.type must be one of: sqlite, mysql, postgres")
	}

	// Production-specific database validation
	if c.IsProduction() && c.Database.DSN == "" {
		return errors.New("database.dsn is required in production")
	}

	return nil
}

// validateAuth validates token verification settings
func (c *Config) validateAuth() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}

	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < 32 {
			return errors.New("auth.jwt_secret must be ≥32 chars in production")
		}
		if c.Auth.JWTSecret == defaultJWTSecretValue {
			return errors.New("auth.jwt_secret cannot use default value in production - set JWT_SECRET environment variable")
		}
		if c.Auth.Issuer == "" {
			return errors.New("auth.issuer is required in production")
		}
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("auth.access_token_duration must be positive")
	}

	return nil
}

// validateRateLimiter validates rate limiter configuration
func (c *Config) validateRateLimiter() error {
	if !c.RateLimiter.Enabled {
		return nil
	}

	if c.RateLimiter.RPS <= 0 {
		return errors.New("rate_limiter.rps must be positive when enabled")
	}

	if c.RateLimiter.Burst <= 0 {
		return errors.New("rate_limiter.burst must be positive when enabled")
	}

	if c.RateLimiter.BatchRPS < 0 || c.RateLimiter.BatchBurst < 0 {
		return errors.New("rate_limiter.batch_rps and batch_burst must not be negative")
	}

	return nil
}

// Validate checks the record bounds / Vérifie les bornes du service de fiches
func (r RecordsConfig) Validate() error {
	if r.MaxBatchSize < 1 || r.MaxBatchSize > MaxBatchSizeLimit {
		return fmt.Errorf("records.max_batch_size must be between 1 and %d", MaxBatchSizeLimit)
	}
	if r.MaxPageSize < 1 || r.MaxPageSize > MaxPageSizeLimit {
		return fmt.Errorf("records.max_page_size must be between 1 and %d", MaxPageSizeLimit)
	}
	if r.DefaultPageSize < 1 || r.DefaultPageSize > r.MaxPageSize {
		return errors.New("records.default_page_size must be between 1 and records.max_page_size")
	}
	if r.BatchConcurrency < 1 || r.BatchConcurrency > MaxBatchConcurrency {
		return fmt.Errorf("records.batch_concurrency must be between 1 and %d", MaxBatchConcurrency)
	}
	if r.MaxWriteRetries < 0 {
		return errors.New("records.max_write_retries must not be negative")
	}
	return nil
}
