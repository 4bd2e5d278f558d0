// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Words     WordsConfig     `mapstructure:"words"`
	Game      GameConfig      `mapstructure:"game"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Events    EventsConfig    `mapstructure:"events"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// WordsConfig points at the word lists.
type WordsConfig struct {
	AnswersFile string `mapstructure:"answers_file"`
	AllowedFile string `mapstructure:"allowed_file"`
	Salt        string `mapstructure:"salt"`
}

// GameConfig holds puzzle settings.
type GameConfig struct {
	MaxGuesses  int           `mapstructure:"max_guesses"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Title       string        `mapstructure:"title"`
}

// SummaryConfig controls the daily summary job.
type SummaryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Hour     int    `mapstructure:"hour"`
	Minute   int    `mapstructure:"minute"`
	Timezone string `mapstructure:"timezone"`
}

// StorageConfig selects where bot state is kept.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// EventsConfig holds Kafka analytics configuration.
// No brokers disables events.
type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, STORAGE_DRIVER, SUMMARY_HOUR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Registered so that env-only values are picked up by Unmarshal
	v.SetDefault("bot.token", "")
	v.SetDefault("admin.ids", []int64{})
	v.SetDefault("whitelist.chats", []int64{})
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("database.password", "")

	v.SetDefault("log.level", "info")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wordle")
	v.SetDefault("database.name", "wordle")
	v.SetDefault("database.pool_size", 4)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Word list defaults
	v.SetDefault("words.answers_file", "words/answers.txt")
	v.SetDefault("words.allowed_file", "words/allowed.txt")
	v.SetDefault("words.salt", "better-wordle")

	// Game defaults
	v.SetDefault("game.max_guesses", 6)
	v.SetDefault("game.idle_timeout", "30m")
	v.SetDefault("game.title", "Better Wordle")

	// Daily summary defaults
	v.SetDefault("summary.enabled", true)
	v.SetDefault("summary.hour", 0)
	v.SetDefault("summary.minute", 1)
	v.SetDefault("summary.timezone", "Local")

	// Storage defaults
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", "wordle_data.json")

	v.SetDefault("events.topic", "wordle-events")
}

// Validate checks settings that cannot be fixed up later.
func (c *Config) Validate() error {
	var errs []error
	if c.Game.MaxGuesses != 6 {
		errs = append(errs, fmt.Errorf("game.max_guesses must be 6, got %d", c.Game.MaxGuesses))
	}
	if c.Summary.Hour < 0 || c.Summary.Hour > 23 {
		errs = append(errs, fmt.Errorf("summary.hour out of range: %d", c.Summary.Hour))
	}
	if c.Summary.Minute < 0 || c.Summary.Minute > 59 {
		errs = append(errs, fmt.Errorf("summary.minute out of range: %d", c.Summary.Minute))
	}
	if _, err := time.LoadLocation(c.Summary.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid summary.timezone %q: %w", c.Summary.Timezone, err))
	}
	switch c.Storage.Driver {
	case DriverFile, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.Driver != DriverPostgres && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	return errors.Join(errs...)
}

// Location returns the time zone the daily puzzle rolls over in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Summary.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.Admin.IDs, userID)
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	return slices.Contains(c.Whitelist.Chats, chatID)
}
