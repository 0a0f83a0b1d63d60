package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/openmined/davbox/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.HTTP.Addr = ""
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestServer_SingleInstanceLock(t *testing.T) {
	cfg := validConfig(t)
	cfg.Auth.DBPath = filepath.Join(t.TempDir(), "users.db")

	first, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, first.acquireLock())
	defer first.lock.Unlock()

	second, err := New(cfg)
	require.NoError(t, err)
	err = second.Start(context.Background())
	assert.ErrorIs(t, err, ErrServerLocked)
	assert.Error(t, second.svc.Users.DB().Ping(), "services are closed when the lock is held elsewhere")
	require.NoError(t, first.svc.Close())
}

func TestServer_StartStop(t *testing.T) {
	cfg := validConfig(t)
	cfg.Auth = auth.Config{}
	cfg.HTTP.Addr = "127.0.0.1:0"

	srv, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	cancel()
	assert.NoError(t, <-done)
	assert.False(t, srv.lock.Locked())
}
