package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Auth     AuthConfig     `yaml:"auth"`
	HTTP     HTTPConfig     `yaml:"http"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CatalogConfig describes where videos are enumerated from.
// When S3.Bucket is set the S3 catalog is used, otherwise Root on disk.
type CatalogConfig struct {
	Root              string          `yaml:"root"`
	URLPrefix         string          `yaml:"url_prefix"`
	Extensions        []string        `yaml:"extensions"`
	InitialCategories []string        `yaml:"initial_categories"`
	S3                S3CatalogConfig `yaml:"s3"`
}

// S3CatalogConfig contains S3-compatible object storage settings.
type S3CatalogConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	UseSSL    *bool  `yaml:"use_ssl"`
	AccessKey string `yaml:"-"` // env-only, never in YAML
	SecretKey string `yaml:"-"` // env-only, never in YAML
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret  string   `yaml:"-"` // env-only, never in YAML
	TokenTTL   Duration `yaml:"token_ttl"`
	BcryptCost int      `yaml:"bcrypt_cost"`
}

// HTTPConfig contains cross-cutting HTTP middleware settings.
type HTTPConfig struct {
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RateLimitRequests  int      `yaml:"rate_limit_requests"`
	RateLimitWindow    Duration `yaml:"rate_limit_window"`
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	CategorySeedInterval Duration `yaml:"category_seed_interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// UsesS3 reports whether the catalog is backed by object storage.
func (c CatalogConfig) UsesS3() bool {
	return c.S3.Bucket != ""
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("REEL_CONFIG_PATH", "config/reel.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadLocal loads configuration for offline CLI commands. It follows the
// same precedence as Load but skips the auth checks, since those commands
// never issue or verify tokens.
func LoadLocal() (*Config, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, getEnv("REEL_CONFIG_PATH", "config/reel.yaml")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validateLocal(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/reel.db",
		},
		Catalog: CatalogConfig{
			Root:              "videos",
			URLPrefix:         "/videos",
			Extensions:        []string{".mp4", ".avi", ".webm"},
			InitialCategories: []string{"Comedy", "Dance", "Food", "Sports", "Music"},
		},
		Auth: AuthConfig{
			TokenTTL:   Duration(7 * 24 * time.Hour),
			BcryptCost: 10,
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
			RateLimitRequests:  300,
			RateLimitWindow:    Duration(time.Minute),
		},
		Worker: WorkerConfig{
			CategorySeedInterval: Duration(10 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("REEL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	} else if v := os.Getenv("PORT"); v != "" {
		// PaaS convention
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	overrideDuration("REEL_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	overrideDuration("REEL_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	overrideDuration("REEL_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	if v := os.Getenv("REEL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Catalog
	if v := os.Getenv("REEL_VIDEOS_ROOT"); v != "" {
		cfg.Catalog.Root = v
	}
	if v := os.Getenv("REEL_VIDEOS_URL_PREFIX"); v != "" {
		cfg.Catalog.URLPrefix = v
	}
	if v := os.Getenv("REEL_VIDEO_EXTENSIONS"); v != "" {
		cfg.Catalog.Extensions = splitList(v)
	}
	if v := os.Getenv("REEL_S3_BUCKET"); v != "" {
		cfg.Catalog.S3.Bucket = v
	}
	if v := os.Getenv("REEL_S3_ENDPOINT"); v != "" {
		cfg.Catalog.S3.Endpoint = v
	}
	if v := os.Getenv("REEL_S3_PREFIX"); v != "" {
		cfg.Catalog.S3.Prefix = v
	}
	if v := os.Getenv("REEL_S3_REGION"); v != "" {
		cfg.Catalog.S3.Region = v
	}
	if v := os.Getenv("REEL_S3_USE_SSL"); v != "" {
		b := v == "true" || v == "1"
		cfg.Catalog.S3.UseSSL = &b
	}
	if v := os.Getenv("REEL_S3_ACCESS_KEY"); v != "" {
		cfg.Catalog.S3.AccessKey = v
	}
	if v := os.Getenv("REEL_S3_SECRET_KEY"); v != "" {
		cfg.Catalog.S3.SecretKey = v
	}

	// Auth
	if v := os.Getenv("REEL_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	} else if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	overrideDuration("REEL_TOKEN_TTL", &cfg.Auth.TokenTTL)
	if v := os.Getenv("REEL_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.BcryptCost = n
		}
	}

	// HTTP
	if v := os.Getenv("REEL_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv("REEL_RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimitRequests = n
		}
	}
	overrideDuration("REEL_RATE_LIMIT_WINDOW", &cfg.HTTP.RateLimitWindow)

	// Worker
	overrideDuration("REEL_CATEGORY_SEED_INTERVAL", &cfg.Worker.CategorySeedInterval)

	// Log
	if v := os.Getenv("REEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REEL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func overrideDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validate checks that required configuration values are set.
// In dev mode (REEL_DEV_MODE=true), the JWT secret check is skipped.
func (c *Config) validate() error {
	if err := c.validateLocal(); err != nil {
		return err
	}

	if os.Getenv("REEL_DEV_MODE") == "true" {
		if c.Auth.JWTSecret == "" {
			c.Auth.JWTSecret = "dev-insecure-secret"
		}
		return nil
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("REEL_JWT_SECRET is required")
	}
	return nil
}

// validateLocal checks the settings every command depends on.
func (c *Config) validateLocal() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if len(c.Catalog.Extensions) == 0 {
		return errors.New("catalog extensions must not be empty")
	}
	if c.Catalog.UsesS3() && c.Catalog.S3.Endpoint == "" {
		return errors.New("REEL_S3_ENDPOINT is required when an S3 bucket is configured")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
