// Package cartstore holds the session-scoped shopping cart state shared by
// every storefront view. All mutation goes through Mutate; callers receive
// defensive snapshots and never touch live state.
package cartstore

import (
	"context"
	"errors"

	"github.com/pratshop/storefront/internal/domain"
)

// ErrStoreUnavailable indicates the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("cartstore: unavailable")

// Subscriber observes cart snapshots after each committed mutation.
type Subscriber func(sessionID string, cart domain.Cart)

// Store is the shared cart state container. A single Store instance backs
// all concurrently mounted views of a session; tests instantiate isolated
// Local stores.
type Store interface {
	// Get returns a snapshot of the session's cart, empty when absent.
	Get(ctx context.Context, sessionID string) (domain.Cart, error)

	// Mutate applies fn to the session's cart under the store's write
	// lock and returns the post-mutation snapshot. fn runs without any
	// suspension point, so two mutations never interleave.
	Mutate(ctx context.Context, sessionID string, fn func(cart *domain.Cart) error) (domain.Cart, error)

	// Subscribe registers an observer notified with a snapshot after
	// every committed mutation. The returned func cancels the
	// subscription.
	Subscribe(fn Subscriber) (cancel func())

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) bool
}
