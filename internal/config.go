package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/DukeRupert/equipcheck/internal/storage"
	"github.com/DukeRupert/equipcheck/internal/store"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Record store
	StoreDriver string // "postgres" or "sqlite"
	DatabaseUrl string
	SQLitePath  string

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Timezone decides the calendar day of a report.
	Timezone string
	Location *time.Location

	// CatalogPath replaces the embedded equipment catalog when set.
	CatalogPath string

	SupervisorDefaultName string

	// Bootstrap supervisor, created on startup when missing
	AdminUsername string
	AdminPassword string

	// Failed sign-in lockout
	AuthMaxFailures   int
	AuthFailureWindow time.Duration

	// Reverse proxies (addresses or CIDR ranges) allowed to set
	// X-Forwarded-For. Empty means clients connect directly.
	TrustedProxies []string

	ShutdownTimeout time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		StoreDriver: getEnv("STORE_DRIVER", store.DriverPostgres),
		DatabaseUrl: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "./equipcheck.db"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", storage.ProviderLocal),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/api/evidence"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		Timezone:              getEnv("TIMEZONE", "America/Lima"),
		CatalogPath:           getEnv("CATALOG_PATH", ""),
		SupervisorDefaultName: getEnv("SUPERVISOR_DEFAULT_NAME", "Miguel Alarcón"),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AuthMaxFailures:   getEnvInt("AUTH_MAX_FAILURES", 5),
		AuthFailureWindow: getEnvDuration("AUTH_FAILURE_WINDOW", 15*time.Minute),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.StoreDriver {
	case store.DriverPostgres:
		if cfg.DatabaseUrl == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is 'postgres'")
		}
	case store.DriverSQLite:
		if cfg.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER is 'sqlite'")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be either 'postgres' or 'sqlite', got: %s", cfg.StoreDriver)
	}

	// Validate storage configuration
	if cfg.StorageProvider == storage.ProviderR2 {
		if cfg.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != storage.ProviderLocal {
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid IANA zone: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.AdminUsername != "" && cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_USERNAME is set")
	}
	if cfg.AuthMaxFailures < 1 {
		return fmt.Errorf("AUTH_MAX_FAILURES must be at least 1, got: %d", cfg.AuthMaxFailures)
	}
	if (cfg.MetricsUsername == "") != (cfg.MetricsPassword == "") {
		return fmt.Errorf("METRICS_USERNAME and METRICS_PASSWORD must be set together")
	}
	return nil
}

// IsDevelopment reports whether the server runs without TLS in front.
func (cfg *Config) IsDevelopment() bool {
	return cfg.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
