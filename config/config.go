package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends accepted by KV_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Admin    AdminConfig
	AWS      AWSConfig
	Worker   WorkerConfig
	LogLevel string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	RequestTimeout     int    // per-request deadline in seconds, bounds every store call
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// StoreConfig selects the key-value backend.
type StoreConfig struct {
	Backend    string
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/mystik?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. Addr empty means Redis is not configured.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// AuthConfig holds project key and admin login settings.
type AuthConfig struct {
	ProjectSecret     string
	AdminEmail        string
	AdminPasswordHash string // bcrypt hash; empty disables /admin/login
	AdminTokenHours   int
}

// AdminConfig holds admin facade settings.
type AdminConfig struct {
	Timezone        string
	CacheTTLSeconds int
}

// AWSConfig holds AWS credentials and the export bucket. Empty bucket disables S3 exports.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ExportsBucket        string
	PresignExpireMinutes int
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	ReconcileIntervalMinutes int // 0 disables periodic reconcile jobs
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			RequestTimeout:     getEnvInt("REQUEST_TIMEOUT_SEC", 15),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("KV_BACKEND", BackendMemory)),
			SQLitePath: getEnv("SQLITE_PATH", "mystik.db"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "mystik"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "mystik"),
		},
		Auth: AuthConfig{
			ProjectSecret:     getEnv("PROJECT_JWT_SECRET", ""),
			AdminEmail:        strings.ToLower(getEnv("ADMIN_EMAIL", "admin@mystikapp.com")),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			AdminTokenHours:   getEnvInt("ADMIN_TOKEN_TTL_HOURS", 12),
		},
		Admin: AdminConfig{
			Timezone:        getEnv("ADMIN_TIMEZONE", "America/Sao_Paulo"),
			CacheTTLSeconds: getEnvInt("ADMIN_CACHE_TTL_SEC", 10),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ExportsBucket:        getEnv("AWS_S3_EXPORTS_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Worker: WorkerConfig{
			ReconcileIntervalMinutes: getEnvInt("RECONCILE_INTERVAL_MIN", 60),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres, BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("KV_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown KV_BACKEND %q", c.Store.Backend)
	}
	if c.Auth.ProjectSecret == "" {
		return errors.New("PROJECT_JWT_SECRET is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SEC must be positive")
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
