// Package config loads service configuration from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at a YAML config file.
const ConfigFileEnv = "TODO_CONFIG_FILE"

// Session backends.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string        `yaml:"host" env:"HOST"`
	Port           int           `yaml:"port" env:"PORT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT"`
	// MirrorStatus makes the transport status follow the envelope status.
	// Off by default: every handled request answers 200 and carries its
	// outcome in the body.
	MirrorStatus   bool   `yaml:"mirror_status" env:"HTTP_MIRROR_STATUS"`
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

// DatabaseConfig configures the Postgres connection. An empty URL selects
// the in-memory stores.
type DatabaseConfig struct {
	URL             string        `yaml:"url" env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

// RedisConfig configures the redis session backend.
type RedisConfig struct {
	URL       string `yaml:"url" env:"REDIS_URL"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX"`
}

// SessionConfig configures session persistence and the session cookie.
type SessionConfig struct {
	Backend       string        `yaml:"backend" env:"SESSION_BACKEND"`
	Secret        string        `yaml:"secret" env:"SECRET_KEY"`
	TTL           time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	CookieName    string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
	CookieSecure  bool          `yaml:"cookie_secure" env:"SESSION_COOKIE_SECURE"`
	PurgeSchedule string        `yaml:"purge_schedule" env:"SESSION_PURGE_SCHEDULE"`
}

// SecurityConfig configures password hashing.
type SecurityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"SALT"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 10 * time.Second,
			AllowedOrigins: "http://localhost:5173",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			KeyPrefix: "todo:",
		},
		Session: SessionConfig{
			Backend:       SessionBackendMemory,
			TTL:           24 * time.Hour,
			CookieName:    "connect.sid",
			CookieSecure:  true,
			PurgeSchedule: "@every 10m",
		},
		Security: SecurityConfig{
			BcryptCost: bcrypt.DefaultCost,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// TODO_CONFIG_FILE, then environment variables (a local .env is loaded first
// if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for settings the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return fmt.Errorf("session secret is required (env: SECRET_KEY)")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d] (env: SALT)", c.Security.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}

	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis session backend requires REDIS_URL")
		}
	case SessionBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("postgres session backend requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Origins splits the comma separated CORS allowlist.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, candidate := range strings.Split(s.AllowedOrigins, ",") {
		if c := strings.TrimSpace(candidate); c != "" {
			out = append(out, c)
		}
	}
	return out
}
