package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const verifiedCacheSize = 1024

// BasicAuthenticator checks Basic credentials against a CredentialStore.
// Successful bcrypt verifications are remembered for a short time so a client
// issuing many requests does not pay the hashing cost on each of them.
type BasicAuthenticator struct {
	store    CredentialStore
	verified *expirable.LRU[string, struct{}]
}

func NewBasicAuthenticator(store CredentialStore, cacheTTL time.Duration) *BasicAuthenticator {
	a := &BasicAuthenticator{store: store}
	if cacheTTL > 0 {
		a.verified = expirable.NewLRU[string, struct{}](verifiedCacheSize, nil, cacheTTL)
	}
	return a
}

func (a *BasicAuthenticator) Authenticate(ctx context.Context, username, password string) error {
	if err := ValidateUsername(username); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	// the stored secret is read on every request so removed users are locked out immediately
	secret, err := a.store.LookupSecret(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("%w: unknown user %q", ErrInvalidCredentials, username)
	} else if err != nil {
		return fmt.Errorf("lookup user %q: %w", username, err)
	}

	key := cacheKey(username, password, secret)
	if a.verified != nil {
		if _, ok := a.verified.Get(key); ok {
			return nil
		}
	}

	if !verifySecret(secret, password) {
		slog.Debug("auth rejected", "user", username)
		return fmt.Errorf("%w: password mismatch for %q", ErrInvalidCredentials, username)
	}

	if a.verified != nil {
		a.verified.Add(key, struct{}{})
	}
	return nil
}

// ChainStore consults several stores in order and returns the first hit.
type ChainStore []CredentialStore

func (c ChainStore) LookupSecret(ctx context.Context, username string) (string, error) {
	for _, store := range c {
		secret, err := store.LookupSecret(ctx, username)
		if errors.Is(err, ErrUserNotFound) {
			continue
		}
		return secret, err
	}
	return "", ErrUserNotFound
}

// StaticStore serves credentials from configuration.
type StaticStore map[string]string

func (s StaticStore) LookupSecret(_ context.Context, username string) (string, error) {
	secret, ok := s[username]
	if !ok {
		return "", ErrUserNotFound
	}
	return secret, nil
}
