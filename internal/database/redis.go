package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/halrest/internal/config"
)

// RedisDB wraps the Redis client with application-specific methods.
//
// Redis is optional. It holds two kinds of keys:
//
//	ratelimit:{client}:{minute}              request counters
//	pagecount:{scope}:v{version}:{pageSize}  cached collection page counts
//	version:{scope}                          bumped on every write to scope
//
// Bumping a scope's version makes every cached page count for it
// unreachable; the stale keys expire on their own.
type RedisDB struct {
	Client   *redis.Client
	CacheTTL time.Duration
}

// NewRedisDB creates a new Redis connection.
// It validates the connection before returning.
func NewRedisDB(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Apply additional configuration (only if set, don't overwrite URL values)
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opt.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opt.MinIdleConns = cfg.MinIdleConns
	}

	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisDB{
		Client:   client,
		CacheTTL: cfg.CacheTTL,
	}, nil
}

// Close gracefully shuts down the Redis connection.
func (r *RedisDB) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Health checks if Redis is responsive.
func (r *RedisDB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// ===========================================
// Keys
// ===========================================

// RateLimitKey generates a key for rate limiting.
// Window is the minute (for requests-per-minute limiting).
func RateLimitKey(identifier string, window time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", identifier, window.Unix()/60)
}

// PageCountKey generates the key for a cached page count.
func PageCountKey(scope string, version int64, pageSize int) string {
	return fmt.Sprintf("pagecount:%s:v%d:%d", scope, version, pageSize)
}

func versionKey(scope string) string {
	return "version:" + scope
}

// ===========================================
// Page-Count Cache
// ===========================================

// GetInt returns a cached integer. ok is false on a cache miss.
func (r *RedisDB) GetInt(ctx context.Context, key string) (value int64, ok bool, err error) {
	value, err = r.Client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		// Cache miss - not an error!
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get failed: %w", err)
	}
	return value, true, nil
}

// SetInt stores an integer with the default cache TTL.
func (r *RedisDB) SetInt(ctx context.Context, key string, value int64) error {
	if err := r.Client.Set(ctx, key, strconv.FormatInt(value, 10), r.CacheTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Version returns the current version of a scope (0 if never bumped).
func (r *RedisDB) Version(ctx context.Context, scope string) (int64, error) {
	v, _, err := r.GetInt(ctx, versionKey(scope))
	return v, err
}

// BumpVersion invalidates everything cached under scope.
func (r *RedisDB) BumpVersion(ctx context.Context, scope string) error {
	if err := r.Client.Incr(ctx, versionKey(scope)).Err(); err != nil {
		return fmt.Errorf("redis incr failed: %w", err)
	}
	return nil
}

// ===========================================
// Rate Limiting
// ===========================================
// Fixed window counter implemented with Redis INCR.
//
// HOW IT WORKS:
// 1. Key = "ratelimit:{client}:{minute}"
// 2. INCR key (atomic increment)
// 3. If first request, SET expiry to the window size
// 4. If count > limit, reject request

// IncrementRateLimit increments the rate limit counter and returns the
// new count.
func (r *RedisDB) IncrementRateLimit(ctx context.Context, key string, windowSize time.Duration) (int64, error) {
	count, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit incr failed: %w", err)
	}

	// Only the first request in a window sets the expiry
	if count == 1 {
		if err := r.Client.Expire(ctx, key, windowSize).Err(); err != nil {
			return count, fmt.Errorf("rate limit expire failed: %w", err)
		}
	}

	return count, nil
}
