package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigrations(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("SELECT 1;"), 0o644))
	}
	return dir
}

func TestMigrationFilePath(t *testing.T) {
	dir := writeMigrations(t, "000002_create_surveys_up.sql", "000002_create_surveys_down.sql")

	name, err := migrationFilePath(dir, "create_surveys_down")
	require.NoError(t, err)
	assert.Equal(t, "000002_create_surveys_down.sql", name)

	_, err = migrationFilePath(dir, "create_users_up")
	assert.Error(t, err)
}

func TestUpMigrationFiles(t *testing.T) {
	dir := writeMigrations(t,
		"000002_create_surveys_up.sql",
		"000001_create_users_up.sql",
		"000001_create_users_down.sql",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "seed_up.sql"), 0o755))

	files, err := upMigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_users_up.sql", "000002_create_surveys_up.sql"}, files)
}
