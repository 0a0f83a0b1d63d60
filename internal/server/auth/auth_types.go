package auth

import (
	"context"
	"errors"

	"github.com/openmined/davbox/internal/webdav"
)

var (
	ErrInvalidCredentials = webdav.ErrUnauthorized
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrEmptyUsername      = errors.New("username cannot be empty")
	ErrInvalidUsername    = errors.New("username cannot contain ':'")
)

// Authenticator validates a username/password pair.
// A rejected pair yields an error wrapping ErrInvalidCredentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// CredentialStore looks up the stored secret of a user. The secret is either a
// bcrypt hash or a plaintext password.
type CredentialStore interface {
	LookupSecret(ctx context.Context, username string) (string, error)
}
