package postgres

import (
	"sync"

	"github.com/google/uuid"

	"github.com/luminhq/user-service/internal/domain/entity"
)

// IdentityMap memoizes loaded aggregates for the lifetime of one unit of
// work, so one identifier maps to one in-memory instance within a scope. The
// lock covers concurrent handler invocations sharing a container.
type IdentityMap struct {
	mu sync.Mutex
	m  map[uuid.UUID]*entity.User
}

func NewIdentityMap() *IdentityMap {
	return &IdentityMap{m: make(map[uuid.UUID]*entity.User)}
}

// Add stores or overwrites the instance for its identifier.
func (im *IdentityMap) Add(u *entity.User) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.m[u.ID()] = u
}

// Get returns the mapped instance, or nil when absent.
func (im *IdentityMap) Get(id uuid.UUID) *entity.User {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.m[id]
}

// Remove deletes the entry; removing a missing key is a no-op so unit-of-work
// teardown never crashes.
func (im *IdentityMap) Remove(id uuid.UUID) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.m, id)
}

// Contains reports whether an instance is mapped for id.
func (im *IdentityMap) Contains(id uuid.UUID) bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	_, ok := im.m[id]
	return ok
}

// Clear empties the map. Called unconditionally at scope exit.
func (im *IdentityMap) Clear() {
	im.mu.Lock()
	defer im.mu.Unlock()
	clear(im.m)
}

// All returns a copy of the current entries.
func (im *IdentityMap) All() map[uuid.UUID]*entity.User {
	im.mu.Lock()
	defer im.mu.Unlock()
	out := make(map[uuid.UUID]*entity.User, len(im.m))
	for k, v := range im.m {
		out[k] = v
	}
	return out
}
