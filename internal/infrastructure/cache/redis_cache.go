package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Config holds cache client settings. KeyPrefix namespaces every key so
// multiple services can share one Redis.
type Config struct {
	Addr       string
	Password   string
	DB         int
	DefaultTTL time.Duration
	KeyPrefix  string
}

// RedisCache is the TTL-bounded external tier. Every operation degrades to a
// miss (or false) when the client is not connected or Redis errors: cache
// trouble costs performance, never correctness. Errors are logged here and
// never surfaced.
type RedisCache struct {
	cfg       Config
	client    *redis.Client
	connected bool
	log       *logrus.Logger
}

func NewRedisCache(cfg Config, log *logrus.Logger) *RedisCache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "user_service:"
	}
	return &RedisCache{cfg: cfg, log: log}
}

// Connect establishes the long-lived client and pings it. Called once at
// process start; if it fails the cache stays in degraded (miss-only) mode.
func (c *RedisCache) Connect(ctx context.Context) error {
	if c.connected {
		return nil
	}
	c.client = redis.NewClient(&redis.Options{
		Addr:     c.cfg.Addr,
		Password: c.cfg.Password,
		DB:       c.cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	c.connected = true
	return nil
}

func (c *RedisCache) Close() error {
	if c.client == nil || !c.connected {
		return nil
	}
	c.connected = false
	return c.client.Close()
}

// Connected reports whether the client is usable.
func (c *RedisCache) Connected() bool { return c.connected }

// Client exposes the raw client for callers with their own key schemes,
// such as the rate limiter. Nil until Connect succeeds.
func (c *RedisCache) Client() *redis.Client {
	if !c.connected {
		return nil
	}
	return c.client
}

func (c *RedisCache) buildKey(key string) string {
	return c.cfg.KeyPrefix + key
}

// Get unmarshals the cached JSON value into dest. Returns false on miss,
// disconnection or any error.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	if !c.connected {
		return false
	}
	found, err := getJSON(ctx, c.client, c.buildKey(key), dest)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Error("redis get failed")
		return false
	}
	return found
}

// Set stores value as JSON under key with the given TTL (DefaultTTL when
// ttl <= 0). Returns whether the write succeeded; never raises.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.connected {
		return false
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	if err := setJSON(ctx, c.client, c.buildKey(key), value, ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Error("redis set failed")
		return false
	}
	return true
}

// Delete removes one key. Deleting an absent key is a success.
func (c *RedisCache) Delete(ctx context.Context, key string) bool {
	if !c.connected {
		return false
	}
	if err := c.client.Del(ctx, c.buildKey(key)).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Error("redis delete failed")
		return false
	}
	return true
}

// DeletePattern removes every key matching the glob pattern.
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) bool {
	if !c.connected {
		return false
	}
	keys, err := c.client.Keys(ctx, c.buildKey(pattern)).Result()
	if err != nil {
		c.log.WithError(err).WithField("pattern", pattern).Error("redis keys failed")
		return false
	}
	if len(keys) == 0 {
		return true
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("pattern", pattern).Error("redis delete pattern failed")
		return false
	}
	return true
}

func userKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// GetUser reads the cached user record for id into dest.
func (c *RedisCache) GetUser(ctx context.Context, id uuid.UUID, dest any) bool {
	return c.Get(ctx, userKey(id), dest)
}

// SetUser caches the user record with the default TTL.
func (c *RedisCache) SetUser(ctx context.Context, id uuid.UUID, record any) bool {
	return c.Set(ctx, userKey(id), record, 0)
}

// DeleteUser removes the exact user key.
func (c *RedisCache) DeleteUser(ctx context.Context, id uuid.UUID) bool {
	return c.Delete(ctx, userKey(id))
}

// InvalidateUserCache removes the user key plus any sub-keys under it.
func (c *RedisCache) InvalidateUserCache(ctx context.Context, id uuid.UUID) bool {
	ok := c.DeleteUser(ctx, id)
	c.DeletePattern(ctx, userKey(id)+":*")
	return ok
}

func getJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	b, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}
