package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver(t *testing.T) {
	assert.Equal(t, DriverPgx, Driver("postgres"))
	assert.Equal(t, DriverPgx, Driver(" PostgreSQL "))
	assert.Equal(t, DriverSQLite, Driver("sqlite3"))
	assert.Equal(t, "mysql", Driver("mysql"))
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init("mysql", "whatever")
	assert.Error(t, err)
}

func TestInit_SQLiteCreatesDirAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "feedback.db")

	database, err := Init("sqlite3", path+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	require.NoError(t, RunMigrations(database.DB, "sqlite3"))

	var tables []string
	err = database.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'feedback%' ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{"feedback_attachments", "feedback_comments", "feedbacks"}, tables)
}
