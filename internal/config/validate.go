package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0 (got %s)", c.Auth.AccessTokenTTL)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the %s store driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", DriverPostgres, DriverMemory, c.Store.Driver)
	}

	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must be >= 0 (got %d)", c.Search.CacheSize)
	}
	if c.Search.CacheSize > 0 && c.Search.CacheTTL <= 0 {
		return fmt.Errorf("search.cache_ttl must be > 0 when the cache is enabled (got %s)", c.Search.CacheTTL)
	}

	return nil
}
