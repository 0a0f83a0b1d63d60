package server

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/openmined/davbox/internal/server/auth"
	"github.com/openmined/davbox/internal/utils"
	"github.com/ulule/limiter/v3"
)

const (
	DefaultAddr   = "127.0.0.1:8080"
	DefaultRoot   = "./webdav-data"
	DefaultLogDir = "./logs"
	lockFileName  = "davbox.lock"
	accessLogDir  = "access"
	serverLogFile = "server.log"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTP   HTTPConfig   `mapstructure:"http"`
	WebDAV WebDAVConfig `mapstructure:"webdav"`
	Auth   auth.Config  `mapstructure:"auth"`
	LogDir string       `mapstructure:"log_dir"`
}

type HTTPConfig struct {
	Addr            string `mapstructure:"addr"`
	CertFile        string `mapstructure:"cert_file"`
	KeyFile         string `mapstructure:"key_file"`
	CORS            bool   `mapstructure:"cors"`
	GZIP            bool   `mapstructure:"gzip"`
	SecurityHeaders bool   `mapstructure:"security_headers"`
	RateLimit       string `mapstructure:"rate_limit"`
}

type WebDAVConfig struct {
	Root               string   `mapstructure:"root"`
	Hide               []string `mapstructure:"hide"`
	AllowSymlinkEscape bool     `mapstructure:"allow_symlink_escape"`
}

func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.WebDAV.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.LogDir == "" {
		return fmt.Errorf("%w: `log_dir` is required", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("http", c.HTTP),
		slog.Any("webdav", c.WebDAV),
		slog.Any("auth", c.Auth),
		slog.String("log_dir", c.LogDir),
	)
}

// LockFilePath is the single-instance lock guarding the served root.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.LogDir, lockFileName)
}

func (c *Config) AccessLogDir() string {
	return filepath.Join(c.LogDir, accessLogDir)
}

func (c *Config) ServerLogPath() string {
	return filepath.Join(c.LogDir, serverLogFile)
}

// TLS reports whether the server terminates TLS itself.
func (c *HTTPConfig) TLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func (c *HTTPConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("http `addr` is required")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("http `cert_file` and `key_file` must be set together")
	}
	if c.TLS() {
		if !utils.FileExists(c.CertFile) {
			return fmt.Errorf("http `cert_file` %q not found", c.CertFile)
		}
		if !utils.FileExists(c.KeyFile) {
			return fmt.Errorf("http `key_file` %q not found", c.KeyFile)
		}
	}
	if c.RateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
			return fmt.Errorf("http `rate_limit` %q: %w", c.RateLimit, err)
		}
	}
	return nil
}

func (c HTTPConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Addr),
		slog.String("cert_file", c.CertFile),
		slog.String("key_file", c.KeyFile),
		slog.Bool("cors", c.CORS),
		slog.Bool("gzip", c.GZIP),
		slog.Bool("security_headers", c.SecurityHeaders),
		slog.String("rate_limit", c.RateLimit),
	)
}

func (c *WebDAVConfig) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("webdav `root` is required")
	}
	for _, pattern := range c.Hide {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("webdav `hide` pattern %q is invalid", pattern)
		}
	}
	return nil
}

func (c WebDAVConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("root", c.Root),
		slog.Any("hide", c.Hide),
		slog.Bool("allow_symlink_escape", c.AllowSymlinkEscape),
	)
}
