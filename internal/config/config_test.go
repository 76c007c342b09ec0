package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "godupes.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[scan]
exclude = ["node_modules", ".git"]
skip_hidden = true
min_size = 1024

[detect]
method = "compare"
workers = 4

[output]
format = "yaml"

[ssh]
port = 2222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"node_modules", ".git"}, cfg.Scan.Exclude)
	assert.True(t, cfg.Scan.SkipHidden)
	assert.EqualValues(t, 1024, cfg.Scan.MinSize)
	assert.Equal(t, MethodCompare, cfg.Detect.Method)
	assert.Equal(t, 4, cfg.Detect.Workers)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
	assert.Equal(t, 2222, cfg.SSH.Port)

	// Untouched keys keep their defaults.
	assert.Equal(t, "md5", cfg.Detect.Hash)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultSSHTimeout, cfg.SSH.TimeoutSeconds)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[scan\nexclude = 1"},
		{"unknown key", "[scan]\nfollow_symlinks = true\n"},
		{"bad method", "[detect]\nmethod = \"guess\"\n"},
		{"bad hash", "[detect]\nhash = \"crc32\"\n"},
		{"bad format", "[output]\nformat = \"xml\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"negative workers", "[detect]\nworkers = -1\n"},
		{"negative min size", "[scan]\nmin_size = -5\n"},
		{"port range", "[ssh]\nport = 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
