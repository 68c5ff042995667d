package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/luminhq/user-service/internal/infrastructure/cache"
)

// ResultBackend keeps task states in Redis under a TTL so abandoned
// results expire on their own.
type ResultBackend struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewResultBackend(c *cache.RedisCache, ttl time.Duration) *ResultBackend {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResultBackend{cache: c, ttl: ttl}
}

func taskKey(taskID string) string {
	return "task:" + taskID
}

// SetPending records a freshly submitted task.
func (b *ResultBackend) SetPending(ctx context.Context, taskID string) {
	b.cache.Set(ctx, taskKey(taskID), State{Status: StatusPending}, b.ttl)
}

// SetCompleted stores the handler's result for the task.
func (b *ResultBackend) SetCompleted(ctx context.Context, taskID string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	b.cache.Set(ctx, taskKey(taskID), State{Status: StatusCompleted, Result: raw}, b.ttl)
	return nil
}

// SetError marks the task as failed before a result could be produced.
func (b *ResultBackend) SetError(ctx context.Context, taskID, msg string) {
	b.cache.Set(ctx, taskKey(taskID), State{Status: StatusError, Error: msg}, b.ttl)
}

// Get returns the task's state, or false when the backend has no entry
// (unknown id, expired TTL, or Redis unavailable).
func (b *ResultBackend) Get(ctx context.Context, taskID string) (State, bool) {
	var st State
	if !b.cache.Get(ctx, taskKey(taskID), &st) {
		return State{}, false
	}
	return st, true
}
