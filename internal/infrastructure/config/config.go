// Package config loads process configuration from a TOML file and
// environment variables into an explicit struct. Components receive the
// sections they need at construction time; there are no ambient settings
// lookups anywhere else in the codebase.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Source    SourceConfig
	Eshop     EshopConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Name string
	Env  string // development, production
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// RedisConfig holds Redis connection settings for the distributed run lock.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SourceConfig selects and configures the ERP source.
type SourceConfig struct {
	Type string // json, csv
	Path string
}

// EshopConfig holds e-shop API client settings.
type EshopConfig struct {
	BaseURL    string
	APIKey     string
	RateLimit  float64 // outbound requests per second
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

// SchedulerConfig holds the periodic sync trigger settings.
type SchedulerConfig struct {
	Enabled       bool
	Interval      time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	LockTTL       time.Duration
}

// Load loads configuration with the following priority (highest first):
//  1. Environment variables with INTEGRATOR_ prefix
//     (e.g. INTEGRATOR_ESHOP_API_KEY)
//  2. config.toml
//  3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	v.SetEnvPrefix("INTEGRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Source: SourceConfig{
			Type: v.GetString("source.type"),
			Path: v.GetString("source.path"),
		},
		Eshop: EshopConfig{
			BaseURL:    v.GetString("eshop.base_url"),
			APIKey:     v.GetString("eshop.api_key"),
			RateLimit:  v.GetFloat64("eshop.rate_limit"),
			MaxRetries: v.GetInt("eshop.max_retries"),
			BaseDelay:  v.GetDuration("eshop.base_delay"),
			Timeout:    v.GetDuration("eshop.timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       v.GetBool("scheduler.enabled"),
			Interval:      v.GetDuration("scheduler.interval"),
			RetryAttempts: v.GetInt("scheduler.retry_attempts"),
			RetryDelay:    v.GetDuration("scheduler.retry_delay"),
			LockTTL:       v.GetDuration("scheduler.lock_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "eshop-integrator"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "integrator"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "json"
	}
	if cfg.Source.Path == "" {
		cfg.Source.Path = "erp_data.json"
	}
	if cfg.Eshop.BaseURL == "" {
		cfg.Eshop.BaseURL = "https://api.fake-eshop.cz/v1"
	}
	if cfg.Eshop.RateLimit == 0 {
		cfg.Eshop.RateLimit = 5
	}
	if cfg.Eshop.MaxRetries == 0 {
		cfg.Eshop.MaxRetries = 5
	}
	if cfg.Eshop.BaseDelay == 0 {
		cfg.Eshop.BaseDelay = time.Second
	}
	if cfg.Eshop.Timeout == 0 {
		cfg.Eshop.Timeout = 30 * time.Second
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 600 * time.Second
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = 60 * time.Second
	}
	if cfg.Scheduler.LockTTL == 0 {
		cfg.Scheduler.LockTTL = 15 * time.Minute
	}
}

// validate checks configuration consistency.
func (c *Config) validate() error {
	if c.App.Env != "development" && c.App.Env != "production" && c.App.Env != "testing" {
		return fmt.Errorf("config: invalid app.env %q", c.App.Env)
	}
	if c.App.Env == "production" && c.Eshop.APIKey == "" {
		return errors.New("config: eshop.api_key is required in production")
	}
	if _, err := url.Parse(c.Eshop.BaseURL); err != nil {
		return fmt.Errorf("config: invalid eshop.base_url: %w", err)
	}
	if c.Eshop.RateLimit <= 0 {
		return errors.New("config: eshop.rate_limit must be positive")
	}
	if c.Source.Type != "json" && c.Source.Type != "csv" {
		return fmt.Errorf("config: unknown source.type %q", c.Source.Type)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the database URL form used by the migration tooling.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode)
}
