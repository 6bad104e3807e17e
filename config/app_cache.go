package config

import (
	"context"
	"strconv"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	pkgredis "github.com/akeren/waitlist-api/pkg/redis"
)

// Cache holds the EmailJS contact count between lookups. The Redis implementation
// also hands its client to the router, which then shares rate-limit windows across
// instances.
type Cache interface {
	// Get returns ("", nil) on a miss.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewCacheConfig() *CacheConfig {
	cc := &CacheConfig{
		Host:     GetTrimmedEnvOrDefault("REDIS_HOST", ""),
		Port:     GetTrimmedEnvOrDefault("REDIS_PORT", "6379"),
		Password: GetValueFromEnvironmentVariable("REDIS_PASSWORD", ""),
	}

	if db, err := strconv.Atoi(GetTrimmedEnvOrDefault("REDIS_DB", "0")); err == nil && db >= 0 {
		cc.DB = db
	}

	return cc
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

// NewCacheOrNil never fails the boot. Without Redis every contact-count request goes
// to EmailJS and rate limits are kept per process.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Redis is not configured; contact count is not cached and rate limits are in-memory")
		return nil
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		logger.Warn("Redis unreachable; continuing without contact-count cache", "host", cc.Host, "error", err)
		return nil
	}

	logger.Info("Redis connected", "host", cc.Host, "db", cc.DB)
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return
	}

	logger.Info("Cache connection closed")
}
