package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"colorfest/shared/pkg/db"
	"colorfest/shared/pkg/helpers"
)

// ErrMissingAPIKey is returned when the live feed is needed but unconfigured
var ErrMissingAPIKey = errors.New("DICE_API_KEY is not set")

// Config holds all configuration for the analytics service
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Dice      DiceConfig
	Server    ServerConfig
	Feed      FeedConfig
	Dashboard DashboardConfig
	Import    ImportConfig

	Timezone     string `validate:"required,timezone"`
	EditionsFile string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string `validate:"required"`
	Port            int    `validate:"min=1,max=65535"`
	User            string `validate:"required"`
	Password        string
	Database        string `validate:"required"`
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MaxRetries      int
}

// RedisConfig holds the feed cache connection
type RedisConfig struct {
	Addr     string `validate:"required"`
	Password string
	DB       int
	FeedTTL  time.Duration
}

// DiceConfig holds the upstream ticketing API settings
type DiceConfig struct {
	Endpoint string `validate:"required,url"`
	APIKey   string
	Timeout  time.Duration
}

// ServerConfig holds server ports
type ServerConfig struct {
	HTTPPort string `validate:"required,numeric"`
	GRPCPort string `validate:"required,numeric"`
}

// FeedConfig controls scheduled and manual refreshes
type FeedConfig struct {
	PollInterval   time.Duration
	ThrottlePeriod time.Duration
	ThrottleBurst  int `validate:"min=1"`
	WarmFromCache  bool
}

// DashboardConfig holds the default dashboard settings
type DashboardConfig struct {
	Goal           int64 `validate:"min=1"`
	CapacityPerDay int64
}

// ImportConfig controls the historical import
type ImportConfig struct {
	BatchSize int `validate:"min=1,max=5000"`
}

// LoadEnvFiles loads the first config.env found, falling back to .env.
// Missing files are not an error; the environment always wins.
func LoadEnvFiles(paths ...string) string {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	if err := godotenv.Load(); err == nil {
		return ".env"
	}
	return ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationVar := func(key string, def time.Duration) time.Duration {
		v, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	boolVar := func(key string, def bool) bool {
		v, err := getBool(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            intVar("DB_PORT", 3306),
			User:            getEnv("DB_USER", "colorfest"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_DATABASE", "colorfest"),
			MaxOpenConns:    intVar("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intVar("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationVar("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MaxRetries:      intVar("DB_MAX_RETRIES", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", 0),
			FeedTTL:  durationVar("FEED_CACHE_TTL", 7*24*time.Hour),
		},
		Dice: DiceConfig{
			Endpoint: getEnv("DICE_ENDPOINT", "https://partners-endpoint.dice.fm/graphql"),
			APIKey:   getEnv("DICE_API_KEY", ""),
			Timeout:  durationVar("FETCH_TIMEOUT", 15*time.Second),
		},
		Server: ServerConfig{
			HTTPPort: getEnv("HTTP_PORT", "8080"),
			GRPCPort: getEnv("GRPC_PORT", "50070"),
		},
		Feed: FeedConfig{
			PollInterval:   durationVar("POLL_INTERVAL", 5*time.Minute),
			ThrottlePeriod: durationVar("REFRESH_THROTTLE_PERIOD", 10*time.Second),
			ThrottleBurst:  intVar("REFRESH_THROTTLE_BURST", 1),
			WarmFromCache:  boolVar("WARM_FROM_CACHE", true),
		},
		Dashboard: DashboardConfig{
			Goal:           int64(intVar("DASHBOARD_GOAL", 6000)),
			CapacityPerDay: int64(intVar("DASHBOARD_CAPACITY_PER_DAY", 0)),
		},
		Import: ImportConfig{
			BatchSize: intVar("HISTORICAL_BATCH_SIZE", 500),
		},
		Timezone:     getEnv("TIMEZONE", "Europe/Rome"),
		EditionsFile: getEnv("EDITIONS_FILE", ""),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := helpers.NewCustomValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// RequireFeed checks the settings only the live feed needs
func (c *Config) RequireFeed() error {
	if c.Dice.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Location loads the configured time zone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// DB converts the database section for the shared connection package
func (c *Config) DB() db.Config {
	return db.Config{
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Database,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		MaxRetries:      c.Database.MaxRetries,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}
