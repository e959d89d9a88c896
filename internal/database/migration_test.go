package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	version, err := latestVersion(filepath.Join("..", "..", "db", "pg"))
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	dir := t.TempDir()
	_, err = latestVersion(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_add_index.up.sql"), []byte("SELECT 1;"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_add_index.down.sql"), []byte("SELECT 1;"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o600))
	version, err = latestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, version)
}

func TestPostgresConfigDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", UserName: "u", Password: "p", Name: "thistle", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=thistle sslmode=disable", cfg.DSN())
}

func TestPostgresPingBeforeStart(t *testing.T) {
	p := NewPostgres(PostgresConfig{}, nil)
	assert.Nil(t, p.DB())
	assert.Error(t, p.Ping(t.Context()))
	assert.NoError(t, p.Stop(t.Context()))
}
