package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nunet/yarn-data/internal/config"
	"gitlab.com/nunet/yarn-data/models"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "yarn.db")

	database, err := Open(config.Database{Driver: config.DriverSQLite, Path: path}, false)
	require.NoError(t, err)
	defer Close(database)

	require.NoError(t, Migrate(database))
	assert.True(t, database.Migrator().HasTable(&models.Order{}))
	assert.True(t, database.Migrator().HasTable(&models.OrderLine{}))
	assert.True(t, database.Migrator().HasTable(&models.Product{}))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(config.Database{Driver: "oracle"}, false)
	assert.Error(t, err)

	_, err = Open(config.Database{Driver: config.DriverPostgres}, false)
	assert.Error(t, err)
}

func TestOpenAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit")

	store, err := OpenAudit(path)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
