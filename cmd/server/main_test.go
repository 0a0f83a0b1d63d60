package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openmined/davbox/internal/server"
	"github.com/openmined/davbox/internal/server/accesslog"
	"github.com/openmined/davbox/internal/version"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cmd := newRootCmd()

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, server.DefaultAddr, cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.SecurityHeaders)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "WebDAV Server", cfg.Auth.Realm)
	assert.Equal(t, 5*time.Minute, cfg.Auth.CacheTTL)
	assert.True(t, filepath.IsAbs(cfg.WebDAV.Root))
	assert.True(t, filepath.IsAbs(cfg.LogDir))
}

func TestLoadConfigEnv(t *testing.T) {
	chdir(t, t.TempDir())
	root := t.TempDir()
	t.Setenv("DAVBOX_HTTP_ADDR", ":9090")
	t.Setenv("DAVBOX_HTTP_RATE_LIMIT", "10-S")
	t.Setenv("DAVBOX_WEBDAV_ROOT", root)
	t.Setenv("DAVBOX_WEBDAV_HIDE", "**/.git,**/*.swp")
	t.Setenv("DAVBOX_AUTH_ENABLED", "false")
	t.Setenv("DAVBOX_AUTH_CACHE_TTL", "30s")

	cfg, err := loadConfig(newRootCmd())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "10-S", cfg.HTTP.RateLimit)
	assert.Equal(t, root, cfg.WebDAV.Root)
	assert.Equal(t, []string{"**/.git", "**/*.swp"}, cfg.WebDAV.Hide)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Auth.CacheTTL)
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	configFile := filepath.Join(dir, "davbox.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
http:
  addr: 0.0.0.0:8443
  gzip: true
webdav:
  root: ./served
  hide:
    - "**/.DS_Store"
auth:
  realm: Files
  users:
    alice: secret
  db_path: ./users.db
log_dir: ./var/log
`), 0o644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", configFile, "--bind", "127.0.0.1:9999"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.GZIP)
	assert.Equal(t, filepath.Join(dir, "served"), cfg.WebDAV.Root)
	assert.Equal(t, []string{"**/.DS_Store"}, cfg.WebDAV.Hide)
	assert.Equal(t, "Files", cfg.Auth.Realm)
	assert.Equal(t, map[string]string{"alice": "secret"}, cfg.Auth.Users)
	assert.Equal(t, filepath.Join(dir, "users.db"), cfg.Auth.DBPath)
	assert.Equal(t, filepath.Join(dir, "var", "log"), cfg.LogDir)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigNoAuthFlag(t *testing.T) {
	chdir(t, t.TempDir())
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--no-auth"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoadConfigBadFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	configFile := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("http: [unterminated"), 0o644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", configFile}))

	_, err := loadConfig(cmd)
	assert.ErrorContains(t, err, "config read")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUserCommands(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("DAVBOX_AUTH_DB_PATH", filepath.Join(dir, "users.db"))

	out, err := execute(t, "", "user", "add", "alice", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "user alice saved")

	_, err = execute(t, "hunter2\n", "user", "add", "bob")
	require.NoError(t, err)

	_, err = execute(t, "", "user", "add", "bob", "--password", "again")
	assert.Error(t, err)

	out, err = execute(t, "", "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")

	_, err = execute(t, "", "user", "remove", "alice")
	require.NoError(t, err)

	out, err = execute(t, "", "user", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "alice")
}

func TestUserCommandsRequireDB(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := execute(t, "", "user", "list")
	assert.ErrorIs(t, err, errNoUserDB)
}

func TestLogCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	logDir := filepath.Join(dir, "logs")
	t.Setenv("DAVBOX_LOG_DIR", logDir)

	al, err := accesslog.New((&server.Config{LogDir: logDir}).AccessLogDir(), slog.Default())
	require.NoError(t, err)
	for _, p := range []string{"/first.txt", "/second.txt", "/third.txt"} {
		al.Log(accesslog.Entry{
			Timestamp:  time.Now(),
			User:       "alice",
			Method:     "PUT",
			Path:       p,
			AccessType: accesslog.AccessTypeWrite,
			StatusCode: 201,
			Bytes:      2048,
		})
	}
	require.NoError(t, al.Close())

	out, err := execute(t, "", "log", "alice", "--limit", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "/first.txt")
	assert.Contains(t, out, "/second.txt")
	assert.Contains(t, out, "/third.txt")
	assert.Contains(t, out, "2.0 kB")

	out, err = execute(t, "", "log", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "no requests logged for bob")
}

func TestReadPassword(t *testing.T) {
	p, err := readPassword(strings.NewReader("s3cret\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", p)

	_, err = readPassword(strings.NewReader(""))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := &cobra.Command{Use: "davbox"}
	cmd.AddCommand(newVersionCmd())

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version.DetailedWithApp(), strings.TrimSpace(out.String()))
}
