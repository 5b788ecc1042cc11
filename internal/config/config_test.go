package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
	t.Setenv("AUTH_JWT_SECRET", "this-is-a-very-long-jwt-secret-for-testing-32+")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  write_timeout: "15s"
  idle_timeout: "30s"
  shutdown_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

store:
  driver: "postgres"

auth:
  jwt_secret: "this-is-a-very-long-jwt-secret-for-testing-32+"
  jwt_issuer: "catalog-api"

registry:
  domain_packages: "example.com/shop/catalog,example.com/shop/billing"

search:
  cache_size: 64
  cache_ttl: "1m"

log:
  level: "debug"
  format: "text"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Server
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want %v", cfg.Server.ReadTimeout, 5*time.Second)
	}

	// Database
	if cfg.Database.DSN != "postgres://u:p@localhost:5432/testdb" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}

	// Auth
	if cfg.Auth.JWTIssuer != "catalog-api" {
		t.Errorf("auth.jwt_issuer = %q", cfg.Auth.JWTIssuer)
	}

	// Registry
	if pkgs := cfg.Registry.Packages(); len(pkgs) != 2 || pkgs[1] != "example.com/shop/billing" {
		t.Errorf("registry.domain_packages = %v", pkgs)
	}

	// Search
	if cfg.Search.CacheSize != 64 {
		t.Errorf("search.cache_size = %d, want 64", cfg.Search.CacheSize)
	}
	if cfg.Search.CacheTTL != time.Minute {
		t.Errorf("search.cache_ttl = %v, want 1m", cfg.Search.CacheTTL)
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000 (ENV override)", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("store.driver = %q, want %q (ENV override)", cfg.Store.Driver, DriverMemory)
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	validEnv(t)

	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080 (default)", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Errorf("store.driver = %q, want %q (default)", cfg.Store.Driver, DriverPostgres)
	}
	if cfg.Auth.JWTIssuer != "crudzilla" {
		t.Errorf("auth.jwt_issuer = %q, want crudzilla (default)", cfg.Auth.JWTIssuer)
	}
	if cfg.Search.CacheSize != 256 || cfg.Search.CacheTTL != 30*time.Second {
		t.Errorf("search = %+v, want defaults", cfg.Search)
	}
}

func TestLoad_MemoryDriverWithoutDSN(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "this-is-a-very-long-jwt-secret-for-testing-32+")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	if _, err := Load(); err != nil {
		t.Fatalf("memory driver must not require a DSN: %v", err)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoadFile_OptionalMissing(t *testing.T) {
	validEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("optional missing file must fall back to env: %v", err)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("auth.access_token_ttl = %s, want 15m (default)", cfg.Auth.AccessTokenTTL)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Fatal("expected error for missing required file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_JWTSecretTooShort(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short JWT secret")
	}
}

func TestValidate_JWTSecretEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty JWT secret")
	}
}

func TestValidate_AccessTokenTTLZero(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.AccessTokenTTL = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero access token TTL")
	}
}

func TestValidate_PostgresRequiresDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = "  "

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for postgres driver without DSN")
	}
}

func TestValidate_MemoryIgnoresDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = DriverMemory
	cfg.Database.DSN = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "mongo"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestValidate_Search_CacheSizeNegative(t *testing.T) {
	cfg := validConfig()
	cfg.Search.CacheSize = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative cache size")
	}
}

func TestValidate_Search_CacheTTLZero(t *testing.T) {
	cfg := validConfig()
	cfg.Search.CacheTTL = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero cache TTL with cache enabled")
	}
}

func TestValidate_Search_CacheDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Search.CacheSize = 0
	cfg.Search.CacheTTL = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with cache disabled: %v", err)
	}
}

// validConfig returns a Config that passes all validation checks.
func validConfig() Config {
	return Config{
		Database: DatabaseConfig{DSN: "postgres://u:p@localhost:5432/testdb"},
		Store:    StoreConfig{Driver: DriverPostgres},
		Auth: AuthConfig{
			JWTSecret:      "this-is-a-very-long-jwt-secret-for-testing-32+",
			AccessTokenTTL: 15 * time.Minute,
		},
		Search: SearchConfig{CacheSize: 16, CacheTTL: time.Second},
	}
}
