package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultRealm    = "WebDAV Server"
	DefaultCacheTTL = 5 * time.Minute
)

type Config struct {
	Enabled  bool              `mapstructure:"enabled"`
	Realm    string            `mapstructure:"realm"`
	Users    map[string]string `mapstructure:"users"`
	DBPath   string            `mapstructure:"db_path"`
	CacheTTL time.Duration     `mapstructure:"cache_ttl"`
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Realm == "" {
		return fmt.Errorf("auth `realm` is required when auth is enabled")
	}
	if strings.ContainsRune(c.Realm, '"') {
		return fmt.Errorf("auth `realm` cannot contain '\"'")
	}
	if len(c.Users) == 0 && c.DBPath == "" {
		return fmt.Errorf("auth requires `users` or `db_path` when enabled")
	}
	for user := range c.Users {
		if err := ValidateUsername(user); err != nil {
			return fmt.Errorf("auth user %q: %w", user, err)
		}
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("auth `cache_ttl` cannot be negative")
	}
	return nil
}

func (c Config) LogValue() slog.Value {
	plaintext := 0
	for _, secret := range c.Users {
		if !IsHashed(secret) {
			plaintext++
		}
	}
	return slog.GroupValue(
		slog.Bool("enabled", c.Enabled),
		slog.String("realm", c.Realm),
		slog.Int("users", len(c.Users)),
		slog.Int("plaintext_users", plaintext),
		slog.String("db_path", c.DBPath),
		slog.Duration("cache_ttl", c.CacheTTL),
	)
}

// ValidateUsername rejects names that cannot travel in a Basic credential.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if strings.ContainsRune(username, ':') {
		return ErrInvalidUsername
	}
	return nil
}
