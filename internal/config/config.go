// Package config loads server configuration from defaults, an optional YAML
// file and LITTERTAG_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LITTERTAG_"

	// PathEnvVar names the config file. Defaults to DefaultPath.
	PathEnvVar  = "LITTERTAG_CONFIG"
	DefaultPath = "config.yaml"

	// DevJWTSecret is the development default. Validate rejects it when
	// log.format is json, which is how production runs.
	DevJWTSecret = "dev-secret-change-in-production"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	Blob     BlobConfig     `koanf:"blob"`
	Redis    RedisConfig    `koanf:"redis"`
	Events   EventsConfig   `koanf:"events"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// RateLimit is the number of requests allowed per IP per RateWindow.
	// Zero disables rate limiting.
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`
	// MaxUploadBytes caps the size of a photo upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type AuthConfig struct {
	JWTSecret     string        `koanf:"jwt_secret"`
	TokenDuration time.Duration `koanf:"token_duration"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type BlobConfig struct {
	Backend   string `koanf:"backend"`
	Dir       string `koanf:"dir"`
	Bucket    string `koanf:"bucket"`
	PublicURL string `koanf:"public_url"`
}

type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type EventsConfig struct {
	Topic string `koanf:"topic"`
	// Buffer is the per-subscriber channel size of the in-process bus.
	Buffer int64 `koanf:"buffer"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:5173"},
			RateLimit:       120,
			RateWindow:      time.Minute,
			MaxUploadBytes:  10 << 20,
		},
		Database: DatabaseConfig{Path: "littertag.db"},
		Auth: AuthConfig{
			JWTSecret:     DevJWTSecret,
			TokenDuration: 24 * time.Hour,
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Blob:   BlobConfig{Backend: "local", Dir: "data/blobs", PublicURL: "/media"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Events: EventsConfig{Topic: "littertag.events", Buffer: 64},
	}
}

// Load layers defaults, the config file and the environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := os.Getenv(PathEnvVar)
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey maps LITTERTAG_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	if s == PathEnvVar {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	return section + "." + rest
}

// splitList turns a comma-separated string (from the environment) into a slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var items []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// Validate checks for values the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Log.Format == "json" && c.Auth.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("auth.jwt_secret must be changed from the development default"))
	}
	if c.Auth.TokenDuration <= 0 {
		errs = append(errs, errors.New("auth.token_duration must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Blob.Backend {
	case "local":
		if c.Blob.Dir == "" {
			errs = append(errs, errors.New("blob.dir is required for the local backend"))
		}
	case "gcs":
		if c.Blob.Bucket == "" {
			errs = append(errs, errors.New("blob.bucket is required for the gcs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.backend must be local or gcs, got %q", c.Blob.Backend))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.Events.Buffer < 0 {
		errs = append(errs, errors.New("events.buffer must not be negative"))
	}
	return errors.Join(errs...)
}
