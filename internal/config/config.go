// Package config loads engine configuration from a YAML file with
// environment-variable overrides for secrets and deploy-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine and its API server.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	SES        SESConfig        `yaml:"ses"`
	Health     HealthConfig     `yaml:"health"`
	Automation AutomationConfig `yaml:"automation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the Redis connection for caps and campaign locks.
// An empty URL disables Redis; caps fall back to ledger counts and locks to
// Postgres advisory locks.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// SESConfig holds AWS SES delivery credentials.
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	FromName  string `yaml:"from_name"`
}

// HealthConfig points at the sender health scoring service. An empty base
// URL means senders run unscored.
type HealthConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AutomationConfig tunes the tick loop.
type AutomationConfig struct {
	TickIntervalSeconds int    `yaml:"tick_interval_seconds"`
	ContactBatchSize    int    `yaml:"contact_batch_size"`
	NumWorkers          int    `yaml:"num_workers"`
	SendTimeoutSeconds  int    `yaml:"send_timeout_seconds"`
	LockTTLSeconds      int    `yaml:"lock_ttl_seconds"`
	MinHealthScore      int    `yaml:"min_health_score"`
	DefaultTimezone     string `yaml:"default_timezone"`
}

// TickInterval returns the loop period as a duration.
func (a AutomationConfig) TickInterval() time.Duration {
	return time.Duration(a.TickIntervalSeconds) * time.Second
}

// SendTimeout returns the per-send budget as a duration.
func (a AutomationConfig) SendTimeout() time.Duration {
	return time.Duration(a.SendTimeoutSeconds) * time.Second
}

// LockTTL returns the campaign lock lease as a duration.
func (a AutomationConfig) LockTTL() time.Duration {
	return time.Duration(a.LockTTLSeconds) * time.Second
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Load reads and validates the YAML file at path, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}
	if cfg.Automation.TickIntervalSeconds == 0 {
		cfg.Automation.TickIntervalSeconds = 60
	}
	if cfg.Automation.ContactBatchSize == 0 {
		cfg.Automation.ContactBatchSize = 100
	}
	if cfg.Automation.NumWorkers == 0 {
		cfg.Automation.NumWorkers = 5
	}
	if cfg.Automation.SendTimeoutSeconds == 0 {
		cfg.Automation.SendTimeoutSeconds = 30
	}
	if cfg.Automation.LockTTLSeconds == 0 {
		cfg.Automation.LockTTLSeconds = 300
	}
	if cfg.Automation.MinHealthScore == 0 {
		cfg.Automation.MinHealthScore = 70
	}
	if cfg.Automation.DefaultTimezone == "" {
		cfg.Automation.DefaultTimezone = "UTC"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads the YAML file (after sourcing .env if present) and
// applies environment overrides. Secrets should come through the
// environment, not the file.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		// Env-only deployments run without a config file.
		cfg = &Config{}
		applyDefaults(cfg)
	} else if err != nil {
		return nil, err
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.SES.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.SES.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.SES.Region = region
	}
	if url := os.Getenv("HEALTH_SCORE_BASE_URL"); url != "" {
		cfg.Health.BaseURL = url
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if interval := os.Getenv("TICK_INTERVAL_SECONDS"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil && n > 0 {
			cfg.Automation.TickIntervalSeconds = n
		}
	}

	return cfg, nil
}

// Validate checks the settings a running engine cannot do without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.Automation.MinHealthScore < 0 || c.Automation.MinHealthScore > 100 {
		return fmt.Errorf("min_health_score %d outside 0-100", c.Automation.MinHealthScore)
	}
	if _, err := time.LoadLocation(c.Automation.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default_timezone %q: %w", c.Automation.DefaultTimezone, err)
	}
	return nil
}
