package config

import (
	"strings"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kitchen")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_MODE", "")
	t.Setenv("IMPORT_CONCURRENCY", "")

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Mode != StorageGCS || cfg.Storage.Bucket != "app-data" {
		t.Fatalf("storage defaults: %+v", cfg.Storage)
	}
	if cfg.Import.Concurrency != 5 || cfg.Import.SearchLimit != 15 {
		t.Fatalf("import defaults: %+v", cfg.Import)
	}
	if cfg.Database.DSN() != "postgres://localhost/kitchen" {
		t.Fatalf("DSN: got %q", cfg.Database.DSN())
	}
}

func TestLoadEmptyCronDisablesSnapshots(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SNAPSHOT_CRON", "")

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.SnapshotCron != "" {
		t.Fatalf("want empty cron, got %q", cfg.Scheduler.SnapshotCron)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"bad storage mode", func(c *Config) { c.Storage.Mode = "s3" }, "STORAGE_MODE"},
		{"no database", func(c *Config) { c.Database = DatabaseConfig{} }, "DATABASE_URL"},
		{"zero concurrency", func(c *Config) { c.Import.Concurrency = 0 }, "IMPORT_CONCURRENCY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{
				Server:   ServerConfig{Port: "3000"},
				Database: DatabaseConfig{URL: "postgres://x"},
				Auth:     AuthConfig{JWTSecret: "s"},
				Storage:  StorageConfig{Mode: StorageLocal, LocalDir: "/tmp"},
				Import:   ImportConfig{Concurrency: 5, SearchLimit: 15},
			}
			tc.mut(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate: want error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
