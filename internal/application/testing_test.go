package application

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/domain/entity"
	"github.com/luminhq/user-service/internal/domain/event"
	"github.com/luminhq/user-service/internal/domain/repository"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memStore stands in for the database, shared across unit-of-work scopes.
type memStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*entity.User
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[uuid.UUID]*entity.User)}
}

type memRepo struct {
	store *memStore
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (r *memRepo) Save(_ context.Context, u *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.saveErr != nil {
		return r.store.saveErr
	}
	r.store.rows[u.ID()] = u
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.rows, id)
	return nil
}

type memUoW struct {
	repo       *memRepo
	committed  bool
	rolledBack bool
	closed     bool
}

func (u *memUoW) Users() repository.UserRepository { return u.repo }
func (u *memUoW) Commit(context.Context) error {
	u.committed = true
	return nil
}
func (u *memUoW) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}
func (u *memUoW) Close() { u.closed = true }

type memFactory struct {
	store    *memStore
	beginErr error
	scopes   []*memUoW
}

func (f *memFactory) Begin(context.Context) (repository.UnitOfWork, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	scope := &memUoW{repo: &memRepo{store: f.store}}
	f.scopes = append(f.scopes, scope)
	return scope, nil
}

// stubBus records publications; Drain supplies the real pipeline semantics.
type stubBus struct {
	published  []event.Event
	publishErr error
	handlers   map[string][]event.Handler
}

func (b *stubBus) Publish(_ context.Context, e event.Event) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, e)
	return nil
}

func (b *stubBus) Subscribe(eventType string, h event.Handler) error {
	if b.handlers == nil {
		b.handlers = make(map[string][]event.Handler)
	}
	b.handlers[eventType] = append(b.handlers[eventType], h)
	return nil
}

func (b *stubBus) ProcessEvents(ctx context.Context, rec event.Recorder) error {
	return event.Drain(ctx, b, rec)
}

func newTestService(store *memStore) (*Service, *memFactory) {
	f := &memFactory{store: store}
	return NewService(f, quietLogger()), f
}

func newTestCommands(store *memStore) (*Commands, *stubBus) {
	svc, _ := newTestService(store)
	bus := &stubBus{}
	return NewCommands(svc, bus, quietLogger()), bus
}
