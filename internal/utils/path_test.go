package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty path", input: "", wantErr: true},
		{name: "relative path", input: "./data/../files", want: filepath.Join(wd, "files")},
		{name: "absolute path", input: "/tmp/x/", want: filepath.Clean("/tmp/x")},
		{name: "home", input: "~", want: home},
		{name: "below home", input: "~/webdav", want: filepath.Join(home, "webdav")},
		{name: "tilde in name", input: "~other", want: filepath.Join(wd, "~other")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureParent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "file.db")
	require.NoError(t, EnsureParent(target))
	assert.DirExists(t, filepath.Dir(target))
	assert.False(t, FileExists(target))

	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	assert.True(t, FileExists(target))
	assert.False(t, FileExists(filepath.Dir(target)))

	// idempotent
	require.NoError(t, EnsureParent(target))
}
