package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[project]
assets = "content"
schemas = "/abs/schemas"

[database]
path = "cache/index.db"

[log]
level = "debug"
format = "json"

[watch]
debounce = "250ms"
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "content"), c.Project.Assets)
	assert.Equal(t, "/abs/schemas", c.Project.Schemas)
	assert.Equal(t, filepath.Join(dir, "cache", "index.db"), c.Database.Path)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, Duration(250*time.Millisecond), c.Watch.Debounce)
	assert.Equal(t, dir, c.Dir)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(writeConfig(t, dir, ""))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "assets"), c.Project.Assets)
	assert.Equal(t, filepath.Join(dir, "schemas"), c.Project.Schemas)
	assert.Equal(t, filepath.Join(dir, ".assetvariant", "index.db"), c.Database.Path)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Equal(t, Duration(100*time.Millisecond), c.Watch.Debounce)
}

func TestLoadInMemoryDatabase(t *testing.T) {
	c, err := Load(writeConfig(t, t.TempDir(), "[database]\npath = \":memory:\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":memory:", c.Database.Path)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[project]\nassetz = \"x\"\n", "assetz"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"bad format", "[log]\nformat = \"xml\"\n", "log.format"},
		{"bad duration", "[watch]\ndebounce = \"soon\"\n", "soon"},
		{"syntax", "[project\n", FileName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[project]\nassets = \"content\"\n")
	nested := filepath.Join(root, "content", "enemies")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	c, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, root, c.Dir)
	assert.Equal(t, filepath.Join(root, "content"), c.Project.Assets)
}

func TestFindWithoutFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "assets"), c.Project.Assets)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir)
	require.NoError(t, err)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(dir), c)

	_, err = Write(dir)
	assert.ErrorIs(t, err, os.ErrExist)
}
