package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	previous := FS
	FS = afero.NewMemMapFs()
	cfg = Config{}
	t.Cleanup(func() {
		FS = previous
		cfg = Config{}
	})
	return FS
}

func TestLoadConfigDefaults(t *testing.T) {
	useMemFs(t)

	c := GetConfig()
	assert.Equal(t, DriverSQLite, c.Database.Driver)
	assert.Equal(t, 60, c.Cache.TTLSeconds)
	assert.Equal(t, "audit", filepath.Base(c.Database.AuditPath))
	assert.False(t, c.General.Debug)
	assert.Empty(t, c.Tracing.Endpoint)
}

func TestLoadConfigFromFile(t *testing.T) {
	fs := useMemFs(t)
	content := `{
	// local development
	"database": {"driver": "postgres", "dsn": "postgres://yarn@localhost/yarn"},
	"cache": {"ttl_seconds": 5}
}
`
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/etc/yarn", "yarn_config.json"), []byte(content), 0o644))

	c := GetConfig()
	assert.Equal(t, DriverPostgres, c.Database.Driver)
	assert.Equal(t, "postgres://yarn@localhost/yarn", c.Database.DSN)
	assert.Equal(t, 5, c.Cache.TTLSeconds)
}

func TestLoadConfigInvalidFileKeepsDefaults(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "yarn_config.json", []byte("{not json"), 0o644))

	c := GetConfig()
	assert.Equal(t, DriverSQLite, c.Database.Driver)
}

func TestFindConfigSearchOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/b/yarn_config.json", []byte("b"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/c/yarn_config.json", []byte("c"), 0o644))

	content, err := findConfig(fs, []string{"/a", "/b", "/c"}, "yarn_config.json")
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))

	_, err = findConfig(fs, []string{"/a"}, "yarn_config.json")
	assert.Error(t, err)
}

func TestSetConfig(t *testing.T) {
	useMemFs(t)

	SetConfig("cache.ttl_seconds", 10)
	c := GetConfig()
	assert.Equal(t, 10, c.Cache.TTLSeconds)
	assert.Equal(t, DriverSQLite, c.Database.Driver)
}

func TestRemoveComments(t *testing.T) {
	in := []byte("{\n  // comment\n  \"dsn\": \"postgres://host\"\n}\n")
	out := string(removeComments(in))
	assert.NotContains(t, out, "comment")
	assert.Contains(t, out, "postgres://host")
}
