// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the sync service. Nothing in the
// application reads settings ambiently; this struct is built once at startup
// and passed down.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	DBURL    string `mapstructure:"DB_URL"`

	GithubToken    string        `mapstructure:"GITHUB_TOKEN"`
	GithubUsername string        `mapstructure:"GITHUB_USERNAME"`
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	CacheBackend  string        `mapstructure:"CACHE_BACKEND"` // "memory" or "redis"
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	// Staleness thresholds driving repository selection.
	CommitStaleAfter time.Duration `mapstructure:"COMMIT_STALE_AFTER"`
	WeeklyStaleAfter time.Duration `mapstructure:"WEEKLY_STALE_AFTER"`
	RepoStaleAfter   time.Duration `mapstructure:"REPO_STALE_AFTER"`

	// RepoDelay is the pause between repositories in a batch, there to stay
	// inside the upstream rate limit.
	RepoDelay time.Duration `mapstructure:"REPO_DELAY"`

	// RepoLimit caps how many repositories one full-sync run will list.
	RepoLimit int `mapstructure:"REPO_LIMIT"`

	ListenAddr string `mapstructure:"LISTEN_ADDR"`
}

// LoadConfig reads configuration from an optional .env file and the
// environment.
func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("API_BASE_URL", "https://api.github.com")
	viper.SetDefault("REQUEST_TIMEOUT", "15s")
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("CACHE_TTL", "15m")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("COMMIT_STALE_AFTER", "6h")
	viper.SetDefault("WEEKLY_STALE_AFTER", "24h")
	viper.SetDefault("REPO_STALE_AFTER", "1h")
	viper.SetDefault("REPO_DELAY", "200ms")
	viper.SetDefault("REPO_LIMIT", 0)
	viper.SetDefault("LISTEN_ADDR", ":8080")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.GithubUsername == "" {
		return nil, errors.New("GITHUB_USERNAME is a required configuration field")
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		return nil, errors.New("CACHE_BACKEND must be either 'memory' or 'redis'")
	}

	return &cfg, nil
}
