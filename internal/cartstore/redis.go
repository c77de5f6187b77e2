package cartstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pratshop/storefront/internal/domain"
)

const defaultCartTTL = 24 * time.Hour

// Redis stores carts as JSON values with a per-session TTL, for deployments
// running more than one storefront replica. Subscribers are per-process
// observers; cross-replica fan-out is not part of the contract.
type Redis struct {
	client *redis.Client
	ttl    time.Duration

	// mu serialises read-modify-write cycles within this process. The
	// storefront pins a browser session to one replica, so per-process
	// serialisation preserves the no-interleaving guarantee.
	mu sync.Mutex

	subMu  sync.RWMutex
	nextID int
	subs   map[int]Subscriber
}

// RedisOption customises a Redis store.
type RedisOption func(*Redis)

// WithTTL overrides how long an untouched cart survives.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewRedis constructs a store from an address or redis:// URL.
func NewRedis(addr string, opts ...RedisOption) (*Redis, error) {
	options, err := redis.ParseURL(addr)
	if err != nil {
		options = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}
	}

	store := &Redis{
		client: redis.NewClient(options),
		ttl:    defaultCartTTL,
		subs:   make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Get fetches and decodes the session's cart, empty when absent.
func (r *Redis) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := r.client.Get(ctx, cartKey(sessionID)).Result()
	if err == redis.Nil {
		return domain.Cart{ID: sessionID, Items: []domain.LineItem{}}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		// A corrupt value behaves like an abandoned cart.
		return domain.Cart{ID: sessionID, Items: []domain.LineItem{}}, nil
	}
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	cart.ID = sessionID
	return cart, nil
}

// Mutate performs a serialised read-modify-write and refreshes the TTL.
func (r *Redis) Mutate(ctx context.Context, sessionID string, fn func(cart *domain.Cart) error) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, err := r.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	if err := fn(&cart); err != nil {
		return domain.Cart{}, err
	}

	cart.ID = sessionID
	cart.UpdatedAt = time.Now().UTC()
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}

	encoded, err := json.Marshal(cart)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("cartstore: encode cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(sessionID), encoded, r.ttl).Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	snapshot := cart.Clone()
	r.notify(sessionID, snapshot)
	return snapshot, nil
}

// Subscribe registers a per-process observer.
func (r *Redis) Subscribe(fn Subscriber) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

// Ping checks connectivity to the Redis backend.
func (r *Redis) Ping(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) notify(sessionID string, cart domain.Cart) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	for _, fn := range r.subs {
		fn(sessionID, cart.Clone())
	}
}

func cartKey(sessionID string) string { return "cart:" + sessionID }
