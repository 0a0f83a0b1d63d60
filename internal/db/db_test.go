package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	database, err := Open()
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	require.NoError(t, err)
	_, err = database.Exec("INSERT INTO kv (k, v) VALUES ('a', '1')")
	require.NoError(t, err)

	var v string
	require.NoError(t, database.Get(&v, "SELECT v FROM kv WHERE k = 'a'"))
	assert.Equal(t, "1", v)
}

func TestOpenFileCreatesParent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "users.db")

	database, err := Open(WithPath(dbPath))
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestOpenCustomPragmas(t *testing.T) {
	database, err := Open(WithPragmas("PRAGMA foreign_keys=ON;"), WithMaxOpenConns(2))
	require.NoError(t, err)
	defer database.Close()

	var fk int
	require.NoError(t, database.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
}

func TestOpenInvalidPragma(t *testing.T) {
	_, err := Open(WithPragmas("THIS IS NOT SQL"))
	assert.Error(t, err)
}
