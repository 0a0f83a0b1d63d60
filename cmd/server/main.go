package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/davbox/internal/server"
	"github.com/openmined/davbox/internal/server/auth"
	"github.com/openmined/davbox/internal/utils"
	"github.com/openmined/davbox/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "DAVBOX"
	configFileName = "config"
	logTimeFormat  = "2006-01-02T15:04:05.000Z07:00"
)

var home, _ = os.UserHomeDir()

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "davbox",
		Short:   "WebDAV file server",
		Version: version.Detailed(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			closeLog, err := addFileLogger(cfg.ServerLogPath())
			if err != nil {
				return err
			}
			defer closeLog()

			slog.Info("config", "config", cfg)
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	cmd.Flags().StringP("root", "r", server.DefaultRoot, "Directory served over WebDAV")
	cmd.Flags().String("cert", "", "Path to the TLS certificate file")
	cmd.Flags().String("key", "", "Path to the TLS key file")
	cmd.Flags().Bool("no-auth", false, "Serve without authentication")
	cmd.PersistentFlags().StringP("config", "c", "", "Config file (yaml, json or toml)")

	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func main() {
	// a missing .env is fine, anything else is worth a warning
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: logTimeFormat,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(stdoutHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// addFileLogger fans the default logger out to a text log file.
func addFileLogger(path string) (func(), error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	current := slog.Default()
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(current.Handler(), fileHandler)))

	return func() {
		slog.SetDefault(current)
		file.Close()
	}, nil
}

func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("http.addr", server.DefaultAddr)
	v.SetDefault("http.cert_file", "")
	v.SetDefault("http.key_file", "")
	v.SetDefault("http.cors", false)
	v.SetDefault("http.gzip", false)
	v.SetDefault("http.security_headers", true)
	v.SetDefault("http.rate_limit", "")
	v.SetDefault("webdav.root", server.DefaultRoot)
	v.SetDefault("webdav.hide", []string{})
	v.SetDefault("webdav.allow_symlink_escape", false)
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.realm", auth.DefaultRealm)
	v.SetDefault("auth.db_path", "")
	v.SetDefault("auth.cache_ttl", auth.DefaultCacheTTL)
	v.SetDefault("log_dir", server.DefaultLogDir)

	if f := cmd.Flag("config"); f != nil && f.Changed {
		v.SetConfigFile(f.Value.String())
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".davbox"))
		v.AddConfigPath(filepath.Join(home, ".config", "davbox"))
		v.SetConfigName(configFileName)
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		var notFound viper.ConfigFileNotFoundError
		if !enoent && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	bindFlag(v, cmd, "http.addr", "bind")
	bindFlag(v, cmd, "http.cert_file", "cert")
	bindFlag(v, cmd, "http.key_file", "key")
	bindFlag(v, cmd, "webdav.root", "root")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		v.BindPFlag(key, f)
	}
}

func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v, err := newViper(cmd)
	if err != nil {
		return nil, err
	}

	cfg := &server.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	if noAuth, err := cmd.Flags().GetBool("no-auth"); err == nil && noAuth {
		cfg.Auth.Enabled = false
	}

	if cfg.WebDAV.Root, err = utils.ResolvePath(cfg.WebDAV.Root); err != nil {
		return nil, fmt.Errorf("webdav root: %w", err)
	}
	if cfg.LogDir, err = utils.ResolvePath(cfg.LogDir); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	if cfg.Auth.DBPath != "" {
		if cfg.Auth.DBPath, err = utils.ResolvePath(cfg.Auth.DBPath); err != nil {
			return nil, fmt.Errorf("auth db path: %w", err)
		}
	}

	return cfg, nil
}
