package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "favourites", cfg.Favourites.Key)
	assert.Equal(t, "https://www.themealdb.com/api/json/v1/1", cfg.MealDB.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.MealDB.Timeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"www.themealdb.com"}, cfg.ImageHosts)
}

func TestEphemeralFlagSelectsMemoryStorage(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("storage-driver", "", "")
	flags.Bool("ephemeral", false, "")
	require.NoError(t, flags.Parse([]string{"--storage-driver", "sqlite", "--ephemeral"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.NoError(t, err)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipebox.yaml")
	yaml := `
listen: ":9090"
storage:
  driver: sqlite
  path: /tmp/rb
mealdb:
  rate: 2
  retry_max_elapsed: 3s
favourites:
  key: alice
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("RECIPEBOX_LOG_LEVEL", "debug")
	t.Setenv("RECIPEBOX_LISTEN", ":7070")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("profile", "", "")
	require.NoError(t, flags.Parse([]string{"--profile", "bob"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen, "env beats file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/rb/recipebox.db", cfg.Storage.Path)
	assert.Equal(t, 2.0, cfg.MealDB.RatePerSecond)
	assert.Equal(t, 3*time.Second, cfg.MealDB.RetryMaxElapsed)
	assert.Equal(t, "bob", cfg.Favourites.Key, "flag beats file")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [\n"), 0o644))
	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	cfg.Storage.Driver = "redis"
	cfg.Favourites.Key = " "
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "favourites.key")
}
