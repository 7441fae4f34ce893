package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "INTERACTIONS_"

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Discord DiscordConfig `koanf:"discord"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// ShutdownSecs bounds graceful shutdown after the context is cancelled.
	ShutdownSecs int `koanf:"shutdownsecs"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DiscordConfig struct {
	// PublicKey is the application's hex-encoded Ed25519 verification key.
	PublicKey    string `koanf:"publickey"`
	MaxBodyBytes int64  `koanf:"maxbodybytes"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
	// Addr serves metrics on a separate listener when set; otherwise they
	// share the interactions listener at Path.
	Addr string `koanf:"addr"`
}

// Addr returns the listen address for the interactions server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func Load(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"server.host":          "0.0.0.0",
		"server.port":          8080,
		"server.shutdownsecs":  10,
		"log.level":            "info",
		"log.format":           "json",
		"discord.maxbodybytes": 1 << 20,
		"metrics.enabled":      true,
		"metrics.path":         "/metrics",
	}, "."), nil)

	// YAML file (optional)
	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			continue
		}
	}

	// INTERACTIONS_DISCORD_PUBLICKEY -> discord.publickey
	_ = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"_", ".",
		)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every problem that would stop the endpoint from serving.
func (c *Config) Validate() error {
	var errs []error
	switch key := strings.TrimSpace(c.Discord.PublicKey); {
	case key == "":
		errs = append(errs, errors.New("discord.publickey is required"))
	default:
		if b, err := hex.DecodeString(key); err != nil || len(b) != 32 {
			errs = append(errs, errors.New("discord.publickey must be 64 hex characters"))
		}
	}
	if c.Discord.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("discord.maxbodybytes must be positive"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}
	return errors.Join(errs...)
}
