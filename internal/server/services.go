package server

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/davbox/internal/db"
	"github.com/openmined/davbox/internal/server/accesslog"
	"github.com/openmined/davbox/internal/server/auth"
	"github.com/openmined/davbox/internal/webdav"
)

// Services holds the long-lived components shared by every request.
type Services struct {
	Resolver  *webdav.Resolver
	Hide      webdav.HideFunc
	Auth      auth.Authenticator
	Users     *auth.SQLStore
	AccessLog *accesslog.AccessLogger

	db *sqlx.DB
}

func NewServices(config *Config) (*Services, error) {
	resolver, err := webdav.NewResolver(config.WebDAV.Root, webdav.WithSymlinkEscape(config.WebDAV.AllowSymlinkEscape))
	if err != nil {
		return nil, fmt.Errorf("webdav root: %w", err)
	}

	hide, err := webdav.NewHideFunc(config.WebDAV.Hide)
	if err != nil {
		return nil, fmt.Errorf("webdav hide patterns: %w", err)
	}

	svc := &Services{
		Resolver: resolver,
		Hide:     hide,
	}

	if config.Auth.Enabled {
		if err := svc.setupAuth(&config.Auth); err != nil {
			svc.Close()
			return nil, err
		}
	}

	accessLogger, err := accesslog.New(config.AccessLogDir(), slog.Default())
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("create access logger: %w", err)
	}
	svc.AccessLog = accessLogger

	return svc, nil
}

func (s *Services) setupAuth(config *auth.Config) error {
	var stores auth.ChainStore
	if len(config.Users) > 0 {
		stores = append(stores, auth.StaticStore(config.Users))
	}

	if config.DBPath != "" {
		users, err := OpenUserStore(config.DBPath)
		if err != nil {
			return err
		}
		s.Users = users
		s.db = users.DB()
		stores = append(stores, users)
	}

	s.Auth = auth.NewBasicAuthenticator(stores, config.CacheTTL)
	return nil
}

// OpenUserStore opens the sqlite credential database at path.
func OpenUserStore(path string) (*auth.SQLStore, error) {
	database, err := db.Open(db.WithPath(path))
	if err != nil {
		return nil, fmt.Errorf("open user db: %w", err)
	}

	users, err := auth.NewSQLStore(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return users, nil
}

func (s *Services) Close() error {
	if s.AccessLog != nil {
		if err := s.AccessLog.Close(); err != nil {
			slog.Error("access log close", "error", err)
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
