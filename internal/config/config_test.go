package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadConfigFromYAML is a helper to load config from YAML string.
func loadConfigFromYAML(t *testing.T, yaml string) *Config {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))

	cfg, err := Load(viper.New(), configPath)
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Repository.Path)
	assert.Equal(t, "GITHUB_TOKEN", cfg.Repository.TokenEnv)
	assert.Equal(t, "ghcr.io", cfg.Image.Registry)
	assert.Equal(t, "buildcache", cfg.Image.CacheTag)
	assert.Equal(t, "Dockerfile", cfg.Image.Dockerfile)
	assert.Equal(t, "REGISTRY_TOKEN", cfg.Registry.TokenEnv)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "markdown", cfg.Summary.Format)
	assert.False(t, cfg.Tracing.Enabled)

	assert.ErrorIs(t, cfg.Validate(), ErrNoImage)
}

func TestLoad_File(t *testing.T) {
	cfg := loadConfigFromYAML(t, `
repository:
  url: https://github.com/acme/trainer.git
image:
  name: acme/trainer
  cache_tag: cache
registry:
  username: bot
log:
  level: debug
  format: json
tracing:
  enabled: true
`)

	assert.Equal(t, "https://github.com/acme/trainer.git", cfg.Repository.URL)
	assert.Equal(t, "ghcr.io/acme/trainer", cfg.ImageRepository())
	assert.Equal(t, "cache", cfg.Image.CacheTag)
	assert.Equal(t, "bot", cfg.Registry.Username)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DISPATCH_IMAGE_NAME", "registry.example.com:5000/team/trainer")
	t.Setenv("DISPATCH_SERVER_ADDR", ":8080")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "registry.example.com:5000/team/trainer", cfg.ImageRepository())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_BadImage(t *testing.T) {
	cfg := &Config{Image: ImageConfig{Name: "Acme/Trainer", Registry: "ghcr.io"}}
	assert.Error(t, cfg.Validate())
}

func TestCredentials(t *testing.T) {
	t.Setenv("MY_REGISTRY_TOKEN", "s3cret")
	cfg := &Config{Registry: RegistryConfig{Username: "bot", TokenEnv: "MY_REGISTRY_TOKEN"}}

	creds := cfg.Credentials()
	assert.Equal(t, "bot", creds.Username)
	assert.Equal(t, "s3cret", creds.Token)
	assert.Empty(t, creds.Registry)

	cfg.Registry.TokenEnv = ""
	assert.True(t, cfg.Credentials().Empty())
}

func TestHasRegistry(t *testing.T) {
	assert.True(t, hasRegistry("ghcr.io/acme/trainer"))
	assert.True(t, hasRegistry("localhost/trainer"))
	assert.True(t, hasRegistry("host:5000/trainer"))
	assert.False(t, hasRegistry("acme/trainer"))
	assert.False(t, hasRegistry("trainer"))
}
