package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

// SupplierConfig holds connection settings for the external gift card
// supplier. Mode selects the polling backoff profile: the sandbox
// environment fulfills orders noticeably slower than production.
type SupplierConfig struct {
	BaseURL      string
	APIKey       string
	Mode         string
	PollDeadline time.Duration
}

type NotificationConfig struct {
	RelayURL string
	From     string
}

type Config struct {
	App struct {
		Port string
	}
	Postgres     PostgresConfig
	Supplier     SupplierConfig
	Notification NotificationConfig
}

const (
	SupplierModeSandbox    = "sandbox"
	SupplierModeProduction = "production"
)

func New() (*Config, error) {
	// .env is optional; real deployments pass plain environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	if cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("config: DB_HOST is required")
	}
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	if cfg.Postgres.User == "" {
		return nil, fmt.Errorf("config: DB_USER is required")
	}
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	if cfg.Postgres.Password == "" {
		return nil, fmt.Errorf("config: DB_PASSWORD is required")
	}
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	if cfg.Postgres.DBName == "" {
		return nil, fmt.Errorf("config: DB_NAME is required")
	}
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MaxConns = int32(maxConns)

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MinConns = int32(minConns)

	cfg.Postgres.MaxConnLifetime, err = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.Supplier.BaseURL = os.Getenv("SUPPLIER_BASE_URL")
	if cfg.Supplier.BaseURL == "" {
		return nil, fmt.Errorf("config: SUPPLIER_BASE_URL is required")
	}
	cfg.Supplier.APIKey = os.Getenv("SUPPLIER_API_KEY")
	cfg.Supplier.Mode = getEnv("SUPPLIER_MODE", SupplierModeSandbox)
	if cfg.Supplier.Mode != SupplierModeSandbox && cfg.Supplier.Mode != SupplierModeProduction {
		return nil, fmt.Errorf("config: SUPPLIER_MODE must be %q or %q, got %q",
			SupplierModeSandbox, SupplierModeProduction, cfg.Supplier.Mode)
	}
	cfg.Supplier.PollDeadline, err = getEnvDuration("SUPPLIER_POLL_DEADLINE", 90*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.Notification.RelayURL = getEnv("NOTIFICATION_RELAY_URL", "")
	cfg.Notification.From = getEnv("NOTIFICATION_FROM", "noreply@localhost")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration, got %q", key, v)
	}
	return d, nil
}
