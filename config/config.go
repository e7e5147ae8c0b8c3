package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Lock      LockConfig      `mapstructure:"lock"`
	Import    ImportConfig    `mapstructure:"import"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the store backend
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "memory" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// LockConfig selects the session and code-allocation locker
type LockConfig struct {
	Backend  string        `mapstructure:"backend"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	Wait     time.Duration `mapstructure:"wait"`
}

// ImportConfig holds upload limits
type ImportConfig struct {
	MaxRows       int `mapstructure:"max_rows"`
	MaxFileSizeKB int `mapstructure:"max_file_size_kb"`
}

// MatchingConfig holds confidence floors and the normalizer tables.
// Empty alias or synonym maps fall back to the built-in tables.
type MatchingConfig struct {
	AnalyzeMinConfidence float64             `mapstructure:"analyze_min_confidence"`
	CreateMinConfidence  float64             `mapstructure:"create_min_confidence"`
	DuplicateConfidence  float64             `mapstructure:"duplicate_confidence"`
	BrandAliases         map[string][]string `mapstructure:"brand_aliases"`
	Synonyms             map[string]string   `mapstructure:"synonyms"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/rigsync/")

	// RIGSYNC_DATABASE_DSN maps to database.dsn
	v.SetEnvPrefix("RIGSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports .env entries that are not already set in the environment
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")

	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.redis_url", "")
	v.SetDefault("lock.ttl", "30s")
	v.SetDefault("lock.wait", "10s")

	v.SetDefault("import.max_rows", 100)
	v.SetDefault("import.max_file_size_kb", 20480)

	v.SetDefault("matching.analyze_min_confidence", 0.70)
	v.SetDefault("matching.create_min_confidence", 0.85)
	v.SetDefault("matching.duplicate_confidence", 0.90)

	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.DSN == "" {
			return fmt.Errorf("database dsn is required when driver is 'postgres' (set RIGSYNC_DATABASE_DSN)")
		}
	default:
		return fmt.Errorf("database driver must be 'memory' or 'postgres', got: %s", config.Database.Driver)
	}

	switch config.Lock.Backend {
	case "memory":
	case "redis":
		if config.Lock.RedisURL == "" {
			return fmt.Errorf("redis url is required when lock backend is 'redis' (set RIGSYNC_LOCK_REDIS_URL)")
		}
	default:
		return fmt.Errorf("lock backend must be 'memory' or 'redis', got: %s", config.Lock.Backend)
	}

	if config.Import.MaxRows <= 0 {
		return fmt.Errorf("import max_rows must be positive, got: %d", config.Import.MaxRows)
	}
	if config.Import.MaxFileSizeKB <= 0 {
		return fmt.Errorf("import max_file_size_kb must be positive, got: %d", config.Import.MaxFileSizeKB)
	}

	thresholds := map[string]float64{
		"analyze_min_confidence": config.Matching.AnalyzeMinConfidence,
		"create_min_confidence":  config.Matching.CreateMinConfidence,
		"duplicate_confidence":   config.Matching.DuplicateConfidence,
	}
	for name, value := range thresholds {
		if value <= 0 || value > 1 {
			return fmt.Errorf("matching %s must be in (0, 1], got: %v", name, value)
		}
	}
	if config.Matching.DuplicateConfidence < config.Matching.CreateMinConfidence {
		return fmt.Errorf("matching duplicate_confidence (%v) must not be below create_min_confidence (%v)",
			config.Matching.DuplicateConfidence, config.Matching.CreateMinConfidence)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
