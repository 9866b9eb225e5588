// cmd/aurasync/app.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sonnibytes/aura-github-sync/internal/cache"
	"github.com/sonnibytes/aura-github-sync/internal/config"
	"github.com/sonnibytes/aura-github-sync/internal/github"
)

// app bundles the long-lived dependencies every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	gh     *github.Client

	closers []io.Closer
}

// newApp performs the shared startup sequence: logger, configuration,
// database pool, migrations, cache backend, API client.
func newApp(ctx context.Context) (*app, error) {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Initialize database connection and run migrations
	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Database connection established")

	if err := runMigrations(cfg.DBURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	a := &app{cfg: cfg, logger: logger, pool: pool}

	// 4. Pick the response-cache backend
	var c cache.Cache
	switch cfg.CacheBackend {
	case "redis":
		r := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.closers = append(a.closers, r)
		c = r
	default:
		c = cache.NewMemory()
	}

	// 5. Initialize the GitHub API client
	a.gh = github.NewClient(github.Config{
		BaseURL:  cfg.APIBaseURL,
		Token:    cfg.GithubToken,
		Timeout:  cfg.RequestTimeout,
		CacheTTL: cfg.CacheTTL,
	}, c, logger)

	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.pool.Close()
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}

// shutdownGrace is how long the serve command waits for in-flight requests.
const shutdownGrace = 5 * time.Second
