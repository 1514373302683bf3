package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Janitor  JanitorConfig  `yaml:"janitor"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// AuthConfig controls token issuance lifetimes and signing.
type AuthConfig struct {
	SigningKey          string `yaml:"signing_key"`
	AccessTokenMinutes  int    `yaml:"access_token_minutes"`
	RefreshLifetimeDays int    `yaml:"refresh_lifetime_days"`
	Issuer              string `yaml:"issuer"`
}

// JanitorConfig controls the background credential sweep.
type JanitorConfig struct {
	IntervalHours int `yaml:"interval_hours"`
	RetentionDays int `yaml:"retention_days"`
}

// RedisConfig for the optional async notification queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// devSigningKey is only ever used outside release mode. Bootstrap refuses to
// start in release mode without an explicit signing key.
const devSigningKey = "tripora-dev-signing-key-not-for-production"

var ErrSigningKeyRequired = errors.New("config: auth.signing_key is required in release mode")

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := *DefaultConfig()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "tripora.db",
		},
		Auth: AuthConfig{
			AccessTokenMinutes:  120,
			RefreshLifetimeDays: 14,
			Issuer:              "tripora",
		},
		Janitor: JanitorConfig{
			IntervalHours: 6,
			RetentionDays: 30,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate enforces startup invariants. A missing signing key in release mode
// is a hard failure: silently minting tokens with a guessable key must never
// happen outside local development.
func (c *Config) Validate() error {
	if c.Server.Mode == "release" && c.Auth.SigningKey == "" {
		return ErrSigningKeyRequired
	}
	if c.Auth.AccessTokenMinutes <= 0 {
		c.Auth.AccessTokenMinutes = 120
	}
	if c.Auth.RefreshLifetimeDays <= 0 {
		c.Auth.RefreshLifetimeDays = 14
	}
	if c.Janitor.IntervalHours <= 0 {
		c.Janitor.IntervalHours = 6
	}
	if c.Janitor.RetentionDays <= 0 {
		c.Janitor.RetentionDays = 30
	}
	return nil
}

// EffectiveSigningKey returns the configured key, or the fixed development
// key when running outside release mode.
func (c *Config) EffectiveSigningKey() string {
	if c.Auth.SigningKey != "" {
		return c.Auth.SigningKey
	}
	return devSigningKey
}

// UsingDevSigningKey reports whether token signing falls back to the
// development key.
func (c *Config) UsingDevSigningKey() bool {
	return c.Auth.SigningKey == ""
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if key := os.Getenv("AUTH_SIGNING_KEY"); key != "" {
		c.Auth.SigningKey = key
	}
	if minutes := os.Getenv("AUTH_ACCESS_TOKEN_MINUTES"); minutes != "" {
		if v, err := strconv.Atoi(minutes); err == nil && v > 0 {
			c.Auth.AccessTokenMinutes = v
		}
	}
	if days := os.Getenv("AUTH_REFRESH_LIFETIME_DAYS"); days != "" {
		if v, err := strconv.Atoi(days); err == nil && v > 0 {
			c.Auth.RefreshLifetimeDays = v
		}
	}
	if hours := os.Getenv("JANITOR_INTERVAL_HOURS"); hours != "" {
		if v, err := strconv.Atoi(hours); err == nil && v > 0 {
			c.Janitor.IntervalHours = v
		}
	}
	if days := os.Getenv("JANITOR_RETENTION_DAYS"); days != "" {
		if v, err := strconv.Atoi(days); err == nil && v > 0 {
			c.Janitor.RetentionDays = v
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
}
