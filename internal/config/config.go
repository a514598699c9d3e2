// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port    int `yaml:"port"`
	Workers int `yaml:"workers"` // activation worker pool size
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Secure     bool          `yaml:"secure"` // secure cookies, true behind TLS
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // catalog cache TTL
}

type GatewayConfig struct {
	Xendit struct {
		SecretKey     string `yaml:"secret_key"`
		CallbackToken string `yaml:"callback_token"`
		BaseURL       string `yaml:"base_url"`
	} `yaml:"xendit"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`    // how often to scan
	StaleAfter time.Duration `yaml:"stale_after"` // pending age before polling
	MaxBackoff time.Duration `yaml:"max_backoff"` // backoff ceiling on gateway failures
	BatchLimit int           `yaml:"batch_limit"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Admin      AdminConfig      `yaml:"admin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Workers <= 0 {
		cfg.Server.Workers = 8
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 10 * time.Minute
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 5 * time.Minute
	}
	if cfg.Reconciler.MaxBackoff <= 0 {
		cfg.Reconciler.MaxBackoff = 15 * time.Minute
	}
	if cfg.Reconciler.BatchLimit <= 0 {
		cfg.Reconciler.BatchLimit = 200
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("admin.jwt_secret is required")
	}
	if cfg.Gateway.Xendit.SecretKey == "" {
		return nil, errors.New("gateway.xendit.secret_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
