package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/domain/entity"
	"github.com/luminhq/user-service/internal/infrastructure/cache"
)

// MultiLevelCache fronts the store with two tiers: the identity map
// (in-process, always current within its unit-of-work scope) and Redis
// (cross-process, TTL-bounded). All tier-2 failures are absorbed here so
// callers are never blocked by cache unavailability.
type MultiLevelCache struct {
	redis  *cache.RedisCache
	idmap  *IdentityMap
	mapper UserMapper
	log    *logrus.Logger
}

func NewMultiLevelCache(redis *cache.RedisCache, idmap *IdentityMap, log *logrus.Logger) *MultiLevelCache {
	return &MultiLevelCache{redis: redis, idmap: idmap, log: log}
}

// GetUser returns a tier-1 hit immediately, else deserializes a tier-2 hit
// via the mapper and populates tier 1. Nil means miss: the caller falls back
// to the store.
func (c *MultiLevelCache) GetUser(ctx context.Context, id uuid.UUID) *entity.User {
	if u := c.idmap.Get(id); u != nil {
		c.log.WithField("user_id", id).Debug("identity map hit")
		return u
	}

	var rec UserRecord
	if !c.redis.GetUser(ctx, id, &rec) {
		return nil
	}
	u, err := c.mapper.ToDomain(&rec)
	if err != nil {
		c.log.WithError(err).WithField("user_id", id).Warn("discarding unmappable cache record")
		c.redis.DeleteUser(ctx, id)
		return nil
	}
	c.idmap.Add(u)
	c.log.WithField("user_id", id).Debug("redis cache hit")
	return u
}

// SetUser populates tier 1 with the mapped aggregate, then writes through to
// tier 2 with the default TTL. Returns whether the tier-2 write succeeded;
// the tier-1 write cannot fail.
func (c *MultiLevelCache) SetUser(ctx context.Context, id uuid.UUID, rec *UserRecord) bool {
	if u, err := c.mapper.ToDomain(rec); err != nil {
		c.log.WithError(err).WithField("user_id", id).Warn("skipping identity map population")
	} else {
		c.idmap.Add(u)
	}
	ok := c.redis.SetUser(ctx, id, rec)
	if !ok {
		c.log.WithField("user_id", id).Warn("redis write-through failed")
	}
	return ok
}

// InvalidateUser removes id from tier 1, then deletes the tier-2 key and any
// pattern-matched sub-keys. Best effort: returns false on tier-2 failure
// without raising.
func (c *MultiLevelCache) InvalidateUser(ctx context.Context, id uuid.UUID) bool {
	c.idmap.Remove(id)
	return c.redis.InvalidateUserCache(ctx, id)
}

// GetWithFallback is the read-through helper: cache hit, else loader, and a
// loaded aggregate is cached before being returned.
func (c *MultiLevelCache) GetWithFallback(
	ctx context.Context,
	id uuid.UUID,
	loader func(ctx context.Context) (*entity.User, error),
) (*entity.User, error) {
	if u := c.GetUser(ctx, id); u != nil {
		return u, nil
	}
	u, err := loader(ctx)
	if err != nil || u == nil {
		return nil, err
	}
	c.SetUser(ctx, id, c.mapper.ToRecord(u))
	return u, nil
}
