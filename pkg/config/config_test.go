package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "data", cfg.BasePath)
	assert.NotEmpty(t, cfg.Schema.NicknameAliases)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	t.Run("loads and merges with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "divrank.yaml")
		content := "base_path: /srv/contests\n" +
			"schema:\n" +
			"  nickname_aliases: [handle]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, "/srv/contests", cfg.BasePath)
		assert.Equal(t, []string{"handle"}, cfg.Schema.NicknameAliases)
		// Unspecified lists come from defaults.
		assert.NotEmpty(t, cfg.Schema.Delimiters)
		assert.NotEmpty(t, cfg.Schema.ScoreAliases)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("base_path: [unclosed"), 0644))

		_, err := LoadFromFile(path)
		assert.ErrorIs(t, err, ErrConfigParseError)
	})
}

func TestLoadWithEnvironment(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadWithEnvironment(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().BasePath, cfg.BasePath)
	})

	t.Run("environment overrides win", func(t *testing.T) {
		t.Setenv("DIVRANK_BASE_PATH", "/tmp/override")
		t.Setenv("DIVRANK_NICKNAME_ALIASES", "who, login")

		cfg, err := LoadWithEnvironment("")
		require.NoError(t, err)

		assert.Equal(t, "/tmp/override", cfg.BasePath)
		assert.Equal(t, []string{"who", "login"}, cfg.Schema.NicknameAliases)
	})

	t.Run("escaped delimiters", func(t *testing.T) {
		t.Setenv("DIVRANK_DELIMITERS", `\,,;,\t`)

		cfg, err := LoadWithEnvironment("")
		require.NoError(t, err)

		assert.Equal(t, []string{",", ";", "\t"}, cfg.Schema.Delimiters)
	})
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "divrank.yaml")

	cfg := Default()
	cfg.BasePath = "/var/lib/divrank"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.BasePath, loaded.BasePath)
	assert.Equal(t, cfg.Schema.NicknameAliases, loaded.Schema.NicknameAliases)
}
