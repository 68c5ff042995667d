package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/domain/repository"
	"github.com/luminhq/user-service/internal/infrastructure/cache"
)

// UnitOfWorkFactory opens one scope per logical operation. The pool, Redis
// client and logger are long-lived process resources; only the identity map
// is per-scope state.
type UnitOfWorkFactory struct {
	pool  *pgxpool.Pool
	redis *cache.RedisCache
	log   *logrus.Logger
}

func NewUnitOfWorkFactory(pool *pgxpool.Pool, redis *cache.RedisCache, log *logrus.Logger) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{pool: pool, redis: redis, log: log}
}

// Begin constructs a repository bound to a fresh identity map.
func (f *UnitOfWorkFactory) Begin(_ context.Context) (repository.UnitOfWork, error) {
	idmap := NewIdentityMap()
	mlc := NewMultiLevelCache(f.redis, idmap, f.log)
	return &UserUnitOfWork{
		idmap: idmap,
		users: NewUserRepository(f.pool, idmap, mlc, f.log),
	}, nil
}

// UserUnitOfWork scopes a repository to one identity map. Commit is a
// placeholder for interface symmetry: the repository commits per statement.
// Close always clears the identity map, so no aggregate outlives its scope.
type UserUnitOfWork struct {
	idmap *IdentityMap
	users *UserRepository
}

func (u *UserUnitOfWork) Users() repository.UserRepository { return u.users }

func (u *UserUnitOfWork) Commit(_ context.Context) error { return nil }

// Rollback clears the identity map. Store writes already committed by the
// repository are not undone.
func (u *UserUnitOfWork) Rollback(_ context.Context) error {
	u.idmap.Clear()
	return nil
}

func (u *UserUnitOfWork) Close() { u.idmap.Clear() }

var _ repository.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
var _ repository.UnitOfWork = (*UserUnitOfWork)(nil)
