// Package bootstrap wires the database, Redis and seed data for the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"look/internal/cache"
	"look/internal/config"
	"look/internal/database"
	"look/internal/middleware"
	"look/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Seed applies the fixture dataset after the schema is in place.
	Seed bool
	// SkipRedis leaves the Redis client nil, for commands that only need the database.
	SkipRedis bool
}

// InitRuntime connects to the database and Redis, makes sure the role
// vocabulary exists and optionally seeds the fixtures. The Redis client is nil
// when Redis is unset, unreachable or skipped.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := seed.EnsureRoles(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("failed to ensure roles: %w", err)
	}

	if opts.Seed {
		if _, err := seed.Fixtures(ctx, db); err != nil {
			_ = database.Close(db)
			return nil, nil, fmt.Errorf("failed to seed fixtures: %w", err)
		}
	}

	var rdb *redis.Client
	if !opts.SkipRedis && strings.TrimSpace(cfg.RedisURL) != "" {
		cache.InitRedis(cfg.RedisURL)
		rdb = cache.GetClient()
	}
	if rdb == nil {
		middleware.Logger.InfoContext(ctx, "running without redis", slog.Bool("realtime", false))
	}

	return db, rdb, nil
}
