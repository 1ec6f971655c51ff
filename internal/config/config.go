// Package config loads dispatcher settings from an optional YAML file and DISPATCH_* env vars.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// EnvPrefix is prepended to every environment override, e.g. DISPATCH_IMAGE_NAME.
const EnvPrefix = "DISPATCH"

// ErrNoImage is returned by Validate when no image repository is configured.
var ErrNoImage = errors.New("image.name is required")

type Config struct {
	Repository RepositoryConfig `mapstructure:"repository"`
	Image      ImageConfig      `mapstructure:"image"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
	Summary    SummaryConfig    `mapstructure:"summary"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// RepositoryConfig locates the source repository.
type RepositoryConfig struct {
	URL      string `mapstructure:"url"`
	Path     string `mapstructure:"path"`
	WorkDir  string `mapstructure:"workdir"`
	TokenEnv string `mapstructure:"token_env"`
}

type ImageConfig struct {
	Name       string `mapstructure:"name"`
	Registry   string `mapstructure:"registry"`
	CacheTag   string `mapstructure:"cache_tag"`
	Dockerfile string `mapstructure:"dockerfile"`
}

type RegistryConfig struct {
	Username string `mapstructure:"username"`
	TokenEnv string `mapstructure:"token_env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SummaryConfig struct {
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers every key with its default so env overrides are picked up
// even when no config file mentions the key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("repository.url", "")
	v.SetDefault("repository.path", ".")
	v.SetDefault("repository.workdir", os.TempDir())
	v.SetDefault("repository.token_env", "GITHUB_TOKEN")
	v.SetDefault("image.name", "")
	v.SetDefault("image.registry", "ghcr.io")
	v.SetDefault("image.cache_tag", "buildcache")
	v.SetDefault("image.dockerfile", "Dockerfile")
	v.SetDefault("registry.username", "")
	v.SetDefault("registry.token_env", "REGISTRY_TOKEN")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("summary.format", "markdown")
	v.SetDefault("tracing.enabled", false)
}

// Load reads path (when non-empty) and the environment into a Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a build needs.
func (c *Config) Validate() error {
	if c.Image.Name == "" {
		return ErrNoImage
	}
	if _, err := domain.ImageReferences(c.ImageRepository(), nil); err != nil {
		return err
	}
	return nil
}

// ImageRepository joins the registry and image name unless the name already carries a registry.
func (c *Config) ImageRepository() string {
	name := c.Image.Name
	if c.Image.Registry == "" || hasRegistry(name) {
		return name
	}
	return strings.TrimSuffix(c.Image.Registry, "/") + "/" + name
}

// Credentials reads the registry token from the environment.
func (c *Config) Credentials() domain.Credentials {
	return domain.Credentials{
		Username: c.Registry.Username,
		Token:    lookupEnv(c.Registry.TokenEnv),
	}
}

// RepositoryToken reads the git token from the environment.
func (c *Config) RepositoryToken() string {
	return lookupEnv(c.Repository.TokenEnv)
}

func lookupEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// hasRegistry mirrors the docker reference rule: the first path component is a
// registry when it contains a dot or a port, or is localhost.
func hasRegistry(name string) bool {
	first, _, found := strings.Cut(name, "/")
	if !found {
		return false
	}
	return strings.ContainsAny(first, ".:") || first == "localhost"
}
