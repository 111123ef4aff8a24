package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Finnhub  FinnhubConfig  `mapstructure:"finnhub"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FinnhubConfig holds Finnhub API configuration
type FinnhubConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	APIKey         string        `mapstructure:"api_key"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	NewsLimit      int           `mapstructure:"news_limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`

	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
}

// TrackerConfig holds signal-tracking behavior configuration
type TrackerConfig struct {
	StalenessWindow  time.Duration `mapstructure:"staleness_window"`
	PumpThreshold    float64       `mapstructure:"pump_threshold"`
	LongThreshold    float64       `mapstructure:"long_threshold"`
	VolumeFloor      float64       `mapstructure:"volume_floor"`
	PriceCap         float64       `mapstructure:"price_cap"`
	Exchanges        []string      `mapstructure:"exchanges"`
	MaxWatchAge      time.Duration `mapstructure:"max_watch_age"` // 0 = no age-based expiry
	Timezone         string        `mapstructure:"timezone"`
	TradingStartHour int           `mapstructure:"trading_start_hour"`
	TradingEndHour   int           `mapstructure:"trading_end_hour"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// JournalConfig holds alert journal configuration
type JournalConfig struct {
	MaxAlerts int    `mapstructure:"max_alerts"`
	DBPath    string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("STOCKPULSE")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Finnhub defaults
	v.SetDefault("finnhub.api_url", "https://finnhub.io/api/v1")
	v.SetDefault("finnhub.poll_interval", "5m")
	v.SetDefault("finnhub.news_limit", 25)
	v.SetDefault("finnhub.timeout", "30s")
	v.SetDefault("finnhub.max_retries", 3)
	v.SetDefault("finnhub.retry_delay_base", "1s")
	v.SetDefault("finnhub.max_idle_conns", 100)
	v.SetDefault("finnhub.max_idle_conns_per_host", 10)
	v.SetDefault("finnhub.idle_conn_timeout", "90s")

	// Tracker defaults
	v.SetDefault("tracker.staleness_window", "30m")
	v.SetDefault("tracker.pump_threshold", 10.0)
	v.SetDefault("tracker.long_threshold", 3.0)
	v.SetDefault("tracker.volume_floor", 1000000)
	v.SetDefault("tracker.price_cap", 100.0)
	v.SetDefault("tracker.exchanges", []string{"NASDAQ", "NYSE"})
	v.SetDefault("tracker.max_watch_age", "0s") // disabled
	v.SetDefault("tracker.timezone", "America/New_York")
	v.SetDefault("tracker.trading_start_hour", 4)
	v.SetDefault("tracker.trading_end_hour", 16)

	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Journal defaults
	v.SetDefault("journal.max_alerts", 1000)
	v.SetDefault("journal.db_path", "./data/stockpulse.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Finnhub config
	if c.Finnhub.APIURL == "" {
		return fmt.Errorf("finnhub.api_url is required")
	}
	if c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required")
	}
	if c.Finnhub.PollInterval < 1*time.Minute {
		return fmt.Errorf("finnhub.poll_interval must be at least 1 minute")
	}
	if c.Finnhub.NewsLimit < 1 || c.Finnhub.NewsLimit > 100 {
		return fmt.Errorf("finnhub.news_limit must be between 1 and 100")
	}
	if c.Finnhub.Timeout <= 0 {
		return fmt.Errorf("finnhub.timeout must be positive")
	}

	// Validate Tracker config
	if c.Tracker.StalenessWindow < 1*time.Minute {
		return fmt.Errorf("tracker.staleness_window must be at least 1 minute")
	}
	if c.Tracker.LongThreshold <= 0 {
		return fmt.Errorf("tracker.long_threshold must be positive")
	}
	if c.Tracker.PumpThreshold < c.Tracker.LongThreshold {
		return fmt.Errorf("tracker.pump_threshold must be at least tracker.long_threshold")
	}
	if c.Tracker.VolumeFloor < 0 {
		return fmt.Errorf("tracker.volume_floor must not be negative")
	}
	if c.Tracker.PriceCap <= 0 {
		return fmt.Errorf("tracker.price_cap must be positive")
	}
	if len(c.Tracker.Exchanges) == 0 {
		return fmt.Errorf("tracker.exchanges must contain at least one exchange")
	}
	if c.Tracker.MaxWatchAge < 0 {
		return fmt.Errorf("tracker.max_watch_age must not be negative")
	}
	if _, err := time.LoadLocation(c.Tracker.Timezone); err != nil {
		return fmt.Errorf("tracker.timezone is invalid: %w", err)
	}
	if c.Tracker.TradingStartHour < 0 || c.Tracker.TradingStartHour > 23 {
		return fmt.Errorf("tracker.trading_start_hour must be between 0 and 23")
	}
	if c.Tracker.TradingEndHour < 1 || c.Tracker.TradingEndHour > 24 {
		return fmt.Errorf("tracker.trading_end_hour must be between 1 and 24")
	}
	if c.Tracker.TradingStartHour >= c.Tracker.TradingEndHour {
		return fmt.Errorf("tracker.trading_start_hour must be before tracker.trading_end_hour")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Journal config
	if c.Journal.MaxAlerts < 1 {
		return fmt.Errorf("journal.max_alerts must be at least 1")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Location returns the reference timezone for timestamp interpretation and
// trading-hours gating.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Tracker.Timezone)
}
