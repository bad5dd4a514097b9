package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/game"
)

// Config represents the complete application configuration
type Config struct {
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Game     GameConfig     `mapstructure:"game"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PricingConfig holds the price domain searched by the optimizer and accepted by the game
type PricingConfig struct {
	MinPrice float64 `mapstructure:"min_price"`
	MaxPrice float64 `mapstructure:"max_price"`
	Step     float64 `mapstructure:"step"`
}

// GameConfig holds guessing game tuning
type GameConfig struct {
	MaxAttempts   int       `mapstructure:"max_attempts"`
	HotThreshold  float64   `mapstructure:"hot_threshold"`
	WarmThreshold float64   `mapstructure:"warm_threshold"`
	TrendEpsilon  float64   `mapstructure:"trend_epsilon"`
	SlackChoices  []float64 `mapstructure:"slack_choices"`
	HintWidths    []float64 `mapstructure:"hint_widths"`
	HintJitter    int       `mapstructure:"hint_jitter"`
	Seed          int64     `mapstructure:"seed"` // 0 seeds from the clock
}

// CatalogConfig points at an optional TOML catalog file
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
}

// StorageConfig holds the round archive location
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	// ELASTICITY_TELEGRAM_BOT_TOKEN overrides telegram.bot_token
	v.SetEnvPrefix("ELASTICITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults are static; Unmarshal cannot fail on them.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Pricing defaults
	v.SetDefault("pricing.min_price", 1000.0)
	v.SetDefault("pricing.max_price", 3000.0)
	v.SetDefault("pricing.step", 10.0)

	// Game defaults
	v.SetDefault("game.max_attempts", 3)
	v.SetDefault("game.hot_threshold", 200.0)
	v.SetDefault("game.warm_threshold", 500.0)
	v.SetDefault("game.trend_epsilon", 1e-9)
	v.SetDefault("game.slack_choices", []float64{50, 100, 150})
	v.SetDefault("game.hint_widths", []float64{500, 600, 700, 800})
	v.SetDefault("game.hint_jitter", 50)
	v.SetDefault("game.seed", 0)

	// Catalog defaults
	v.SetDefault("catalog.path", "")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.poll_timeout", "60s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/elasticity.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Pricing config
	if c.Pricing.MinPrice < 0 {
		return fmt.Errorf("pricing.min_price must not be negative")
	}
	if c.Pricing.MaxPrice <= c.Pricing.MinPrice {
		return fmt.Errorf("pricing.max_price must be greater than pricing.min_price")
	}
	if c.Pricing.Step <= 0 || c.Pricing.Step > c.Pricing.MaxPrice-c.Pricing.MinPrice {
		return fmt.Errorf("pricing.step must be positive and at most max_price - min_price")
	}
	if err := c.Domain().Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	// Validate Game config
	if c.Game.MaxAttempts < 1 {
		return fmt.Errorf("game.max_attempts must be at least 1")
	}
	if c.Game.HotThreshold <= 0 {
		return fmt.Errorf("game.hot_threshold must be positive")
	}
	if c.Game.WarmThreshold < c.Game.HotThreshold {
		return fmt.Errorf("game.warm_threshold must be at least game.hot_threshold")
	}
	if c.Game.TrendEpsilon <= 0 {
		return fmt.Errorf("game.trend_epsilon must be positive")
	}
	if err := positiveList("game.slack_choices", c.Game.SlackChoices); err != nil {
		return err
	}
	if err := positiveList("game.hint_widths", c.Game.HintWidths); err != nil {
		return err
	}
	if c.Game.HintJitter < 0 {
		return fmt.Errorf("game.hint_jitter must not be negative")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.PollTimeout < time.Second {
			return fmt.Errorf("telegram.poll_timeout must be at least 1 second")
		}
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
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

func positiveList(key string, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%s must contain at least one value", key)
	}
	for _, v := range values {
		if v <= 0 {
			return fmt.Errorf("%s values must be positive", key)
		}
	}
	return nil
}

// Domain returns the configured price domain
func (c *Config) Domain() demand.Domain {
	return demand.Domain{
		Min:  c.Pricing.MinPrice,
		Max:  c.Pricing.MaxPrice,
		Step: c.Pricing.Step,
	}
}

// GameSettings returns the game engine settings
func (c *Config) GameSettings() game.Settings {
	return game.Settings{
		Domain:        c.Domain(),
		MaxAttempts:   c.Game.MaxAttempts,
		HotThreshold:  c.Game.HotThreshold,
		WarmThreshold: c.Game.WarmThreshold,
		TrendEpsilon:  c.Game.TrendEpsilon,
		SlackChoices:  append([]float64(nil), c.Game.SlackChoices...),
		HintWidths:    append([]float64(nil), c.Game.HintWidths...),
		HintJitter:    c.Game.HintJitter,
	}
}
