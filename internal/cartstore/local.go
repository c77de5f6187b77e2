package cartstore

import (
	"context"
	"sync"
	"time"

	"github.com/pratshop/storefront/internal/domain"
)

// Local keeps carts in process memory guarded by a mutex. It is the default
// backend: carts live for the browser session and are abandoned when the
// process (or the session cookie) goes away.
type Local struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
	clock func() time.Time

	subMu  sync.RWMutex
	nextID int
	subs   map[int]Subscriber
}

// LocalOption customises a Local store.
type LocalOption func(*Local)

// WithClock overrides the timestamp source, for tests.
func WithClock(clock func() time.Time) LocalOption {
	return func(l *Local) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewLocal constructs an empty in-memory store.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		carts: make(map[string]domain.Cart),
		clock: time.Now,
		subs:  make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns a snapshot of the session's cart, or an empty cart.
func (l *Local) Get(_ context.Context, sessionID string) (domain.Cart, error) {
	l.mu.RLock()
	cart, ok := l.carts[sessionID]
	l.mu.RUnlock()
	if !ok {
		return domain.Cart{ID: sessionID, Items: []domain.LineItem{}}, nil
	}
	return cart.Clone(), nil
}

// Mutate applies fn under the write lock and notifies subscribers with the
// committed snapshot. fn must not block; it runs synchronously with no
// suspension point.
func (l *Local) Mutate(_ context.Context, sessionID string, fn func(cart *domain.Cart) error) (domain.Cart, error) {
	l.mu.Lock()
	cart, ok := l.carts[sessionID]
	if !ok {
		cart = domain.Cart{ID: sessionID, Items: []domain.LineItem{}}
	} else {
		cart = cart.Clone()
	}

	if err := fn(&cart); err != nil {
		l.mu.Unlock()
		return domain.Cart{}, err
	}

	cart.ID = sessionID
	cart.UpdatedAt = l.clock().UTC()
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	l.carts[sessionID] = cart
	snapshot := cart.Clone()
	l.mu.Unlock()

	l.notify(sessionID, snapshot)
	return snapshot, nil
}

// Subscribe registers an observer for committed mutations.
func (l *Local) Subscribe(fn Subscriber) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	l.subMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.subMu.Unlock()

	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

// Ping always succeeds for the in-memory store.
func (l *Local) Ping(context.Context) bool { return true }

func (l *Local) notify(sessionID string, cart domain.Cart) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	for _, fn := range l.subs {
		fn(sessionID, cart.Clone())
	}
}
