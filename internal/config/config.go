package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	StorageGCS   = "gcs"
	StorageLocal = "local"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Import    ImportConfig
	LogLevel  string
}

type ServerConfig struct {
	Port string
}

// DatabaseConfig holds either a full DSN or its parts.
type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

type AuthConfig struct {
	JWTSecret string
}

type StorageConfig struct {
	Mode        string
	Bucket      string
	LocalDir    string
	Credentials string
}

// RedisConfig enables the profile cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SchedulerConfig struct {
	SnapshotCron string
	Timezone     string
}

type ImportConfig struct {
	Concurrency int
	SearchLimit int
}

// Load reads environment variables (optionally from envFile) into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getenvWithDefault("DB_PORT", "5432"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Storage: StorageConfig{
			Mode:        getenvWithDefault("STORAGE_MODE", StorageGCS),
			Bucket:      getenvWithDefault("STORAGE_BUCKET", "app-data"),
			LocalDir:    getenvWithDefault("STORAGE_LOCAL_DIR", "./data"),
			Credentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Scheduler: SchedulerConfig{
			// An explicitly empty SNAPSHOT_CRON disables the job.
			SnapshotCron: getenvKeepEmpty("SNAPSHOT_CRON", "0 3 1 * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Tokyo"),
		},
		Import: ImportConfig{
			Concurrency: getenvInt("IMPORT_CONCURRENCY", 5),
			SearchLimit: getenvInt("SEARCH_LIMIT", 15),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("PORT must be provided")
	}
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return errors.New("DATABASE_URL or DB_HOST and DB_NAME must be provided")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	switch c.Storage.Mode {
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return errors.New("STORAGE_BUCKET must be provided")
		}
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("STORAGE_LOCAL_DIR must be provided")
		}
	default:
		return fmt.Errorf("STORAGE_MODE must be %q or %q, got %q", StorageGCS, StorageLocal, c.Storage.Mode)
	}
	if c.Import.Concurrency <= 0 {
		return errors.New("IMPORT_CONCURRENCY must be positive")
	}
	if c.Import.SearchLimit <= 0 {
		return errors.New("SEARCH_LIMIT must be positive")
	}
	return nil
}

// DSN returns DATABASE_URL or a key/value DSN assembled from the DB_* parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Tokyo",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvKeepEmpty(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
