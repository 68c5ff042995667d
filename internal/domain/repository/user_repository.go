package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/luminhq/user-service/internal/domain/entity"
)

var (
	// ErrUserNotFound is returned when no aggregate exists for the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned by create for a duplicate identifier.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository is the sole translator between the aggregate and the store.
// Implementations keep the store and the cache tiers consistent on every write.
type UserRepository interface {
	// GetByID returns the aggregate, preferring the cache tiers over the
	// store. ErrUserNotFound when no row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// Save inserts or updates the aggregate. On success the cache is
	// repopulated; on failure the cache entry is invalidated. Either way
	// the aggregate's event log is left for the publisher to drain.
	Save(ctx context.Context, u *entity.User) error
	// Delete removes the row and evicts both cache tiers.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UnitOfWork scopes a repository to a fresh identity map for one operation.
type UnitOfWork interface {
	Users() UserRepository
	// Commit is a no-op placeholder: the repository commits per statement.
	Commit(ctx context.Context) error
	// Rollback clears the identity map; committed store writes stay.
	Rollback(ctx context.Context) error
	// Close clears the identity map unconditionally. Safe to defer.
	Close()
}

// UnitOfWorkFactory opens a new scope per logical operation.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
