package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Venue      VenueConfig      `yaml:"venue"`
	Tariff     TariffConfig     `yaml:"tariff"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size" validate:"gte=1"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl" validate:"gte=0"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" validate:"gte=1,lte=65535"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" validate:"gt=0"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" validate:"gte=1"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" validate:"gte=1"`
}

// LoggingConfig selects zerolog level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console text"`
}

// VenueConfig describes the fixed slot layout and headcount limits.
type VenueConfig struct {
	Timezone       string   `yaml:"timezone"`
	Slots          []string `yaml:"slots" validate:"min=1,dive,required"`
	MaxPerCategory int      `yaml:"max_per_category" validate:"gte=1"`
}

// TariffConfig holds hourly rates per patron category and the day window.
type TariffConfig struct {
	DayOpenHour  int     `yaml:"day_open_hour" validate:"gte=0,lte=23"`
	DayCloseHour int     `yaml:"day_close_hour" validate:"gtfield=DayOpenHour,lte=24"`
	AdultDay     float64 `yaml:"adult_day" validate:"gte=0"`
	AdultNight   float64 `yaml:"adult_night" validate:"gte=0"`
	StudentDay   float64 `yaml:"student_day" validate:"gte=0"`
	StudentNight float64 `yaml:"student_night" validate:"gte=0"`
	PerHead      bool    `yaml:"per_head"`
}

// DatabaseConfig holds the receipt ledger connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Default returns the reference configuration: sixteen tables, rates of
// 2.40/2.40 by day and 3.90/3.00 by night, day window 06:00-18:00.
func Default() *Config {
	slots := make([]string, 16)
	for i := range slots {
		slots[i] = fmt.Sprintf("table %d", i+1)
	}
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			RateLimitPerSec: 10,
			RateLimitBurst:  5,
			CacheTTLSeconds: 300,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Venue: VenueConfig{
			Timezone:       "Local",
			Slots:          slots,
			MaxPerCategory: 6,
		},
		Tariff: TariffConfig{
			DayOpenHour:  6,
			DayCloseHour: 18,
			AdultDay:     2.40,
			AdultNight:   3.90,
			StudentDay:   2.40,
			StudentNight: 3.00,
		},
		Database:   DatabaseConfig{DSN: "tabled.db", MaxOpenConns: 1, MaxIdleConns: 1},
		Push:       PushConfig{TTL: 3600},
		WorkerPool: WorkerPoolConfig{Size: 1},
	}
}

// Load reads the configuration from the given path on top of Default and
// validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
