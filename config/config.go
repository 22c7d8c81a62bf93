package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger       `mapstructure:"logger"`
	DB           Database     `mapstructure:"database"`
	API          API          `mapstructure:"api"`
	Scheduler    Scheduler    `mapstructure:"scheduler"`
	YahooFinance YahooFinance `mapstructure:"yahoo_finance"`
	Cache        Cache        `mapstructure:"cache"`
	History      History      `mapstructure:"history"`
	Metrics      Metrics      `mapstructure:"metrics"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port int `mapstructure:"port"`
	// RateLimit is the per client request rate in requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// Scheduler drives the background percent-change refresh. An empty
// MetricRefreshCron disables it.
type Scheduler struct {
	MetricRefreshCron string        `mapstructure:"metric_refresh_cron"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	BatchSize         int           `mapstructure:"batch_size"`
	TimeoutDuration   time.Duration `mapstructure:"timeout_duration"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	MetricExpiration  time.Duration `mapstructure:"metric_expiration"`
}

type History struct {
	MaxAge time.Duration `mapstructure:"max_age"`
}

type Metrics struct {
	PercentChangeTTL   time.Duration `mapstructure:"percent_change_ttl"`
	ReferenceHour      int           `mapstructure:"reference_hour"`
	ReferenceTimezone  string        `mapstructure:"reference_timezone"`
	FiftyTwoWeekWindow time.Duration `mapstructure:"fifty_two_week_window"`
}

// SetDefaults registers the values used when neither the config file nor the
// environment provides one.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "Warn")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.rate_limit", 10)
	v.SetDefault("api.rate_burst", 30)
	v.SetDefault("scheduler.max_concurrency", 4)
	v.SetDefault("scheduler.batch_size", 200)
	v.SetDefault("scheduler.timeout_duration", 5*time.Minute)
	v.SetDefault("yahoo_finance.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoo_finance.timeout", 10*time.Second)
	v.SetDefault("yahoo_finance.max_request_per_minute", 60)
	v.SetDefault("cache.default_expiration", 10*time.Minute)
	v.SetDefault("cache.cleanup_interval", 15*time.Minute)
	v.SetDefault("cache.metric_expiration", 10*time.Minute)
	v.SetDefault("history.max_age", 24*time.Hour)
	v.SetDefault("metrics.percent_change_ttl", 60*time.Minute)
	v.SetDefault("metrics.reference_hour", 15)
	v.SetDefault("metrics.reference_timezone", "America/New_York")
	v.SetDefault("metrics.fifty_two_week_window", 52*7*24*time.Hour)
}

func Load() (*Config, error) {
	v := viper.GetViper()
	SetDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.YahooFinance.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	if _, err := time.LoadLocation(cfg.Metrics.ReferenceTimezone); err != nil {
		return nil, fmt.Errorf("invalid metrics.reference_timezone: %w", err)
	}
	if cfg.Metrics.ReferenceHour < 0 || cfg.Metrics.ReferenceHour > 23 {
		return nil, fmt.Errorf("metrics.reference_hour must be within 0-23")
	}

	return &cfg, nil
}
