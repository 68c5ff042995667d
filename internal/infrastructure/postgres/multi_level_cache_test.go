package postgres

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminhq/user-service/internal/domain/entity"
	"github.com/luminhq/user-service/internal/infrastructure/cache"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// degradedRedis returns a cache whose client never connected, so every
// tier-2 operation reports a miss or failure.
func degradedRedis() *cache.RedisCache {
	return cache.NewRedisCache(cache.Config{}, quietLogger())
}

func TestMultiLevelCacheTier1Hit(t *testing.T) {
	im := NewIdentityMap()
	mlc := NewMultiLevelCache(degradedRedis(), im, quietLogger())
	u := newMapUser()
	im.Add(u)

	got := mlc.GetUser(context.Background(), u.ID())
	assert.Same(t, u, got)
}

func TestMultiLevelCacheMissWithRedisDown(t *testing.T) {
	mlc := NewMultiLevelCache(degradedRedis(), NewIdentityMap(), quietLogger())
	assert.Nil(t, mlc.GetUser(context.Background(), newMapUser().ID()))
}

func TestMultiLevelCacheSetPopulatesTier1EvenWhenRedisDown(t *testing.T) {
	im := NewIdentityMap()
	mlc := NewMultiLevelCache(degradedRedis(), im, quietLogger())
	var m UserMapper
	u := newMapUser()

	ok := mlc.SetUser(context.Background(), u.ID(), m.ToRecord(u))

	assert.False(t, ok, "tier-2 write fails while redis is down")
	got := im.Get(u.ID())
	require.NotNil(t, got, "tier-1 population survives tier-2 failure")
	assert.Equal(t, u.ID(), got.ID())
}

func TestMultiLevelCacheInvalidateClearsTier1(t *testing.T) {
	im := NewIdentityMap()
	mlc := NewMultiLevelCache(degradedRedis(), im, quietLogger())
	u := newMapUser()
	im.Add(u)

	ok := mlc.InvalidateUser(context.Background(), u.ID())

	assert.False(t, ok, "tier-2 delete reports failure while redis is down")
	assert.Nil(t, im.Get(u.ID()))
}

func TestGetWithFallbackLoadsAndPopulatesTier1(t *testing.T) {
	im := NewIdentityMap()
	mlc := NewMultiLevelCache(degradedRedis(), im, quietLogger())
	u := newMapUser()
	loads := 0

	loader := func(context.Context) (*entity.User, error) {
		loads++
		return u, nil
	}

	got, err := mlc.GetWithFallback(context.Background(), u.ID(), loader)
	require.NoError(t, err)
	assert.Equal(t, u.ID(), got.ID())
	assert.Equal(t, 1, loads)

	// Second read hits the identity map; the loader stays untouched.
	_, err = mlc.GetWithFallback(context.Background(), u.ID(), loader)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
}

func TestGetWithFallbackPropagatesLoaderError(t *testing.T) {
	mlc := NewMultiLevelCache(degradedRedis(), NewIdentityMap(), quietLogger())
	wantErr := errors.New("store down")

	_, err := mlc.GetWithFallback(context.Background(), newMapUser().ID(), func(context.Context) (*entity.User, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
