package services

import (
	"context"
	"errors"
)

var (
	errCheckoutCartServiceRequired    = errors.New("checkout service: cart service is required")
	errCheckoutSessionServiceRequired = errors.New("checkout service: session service is required")

	// ErrCheckoutUnauthenticated indicates the visitor must log in before
	// checkout can begin.
	ErrCheckoutUnauthenticated = errors.New("checkout service: unauthenticated")
	// ErrCheckoutEmptyCart indicates there is nothing to check out.
	ErrCheckoutEmptyCart = errors.New("checkout service: empty cart")
)

// CheckoutServiceDeps wires the cart and session services into the gate.
type CheckoutServiceDeps struct {
	Carts    CartService
	Sessions SessionService
	Logger   func(context.Context, string, map[string]any)
}

type checkoutService struct {
	carts    CartService
	sessions SessionService
	logger   func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errCheckoutCartServiceRequired
	}
	if deps.Sessions == nil {
		return nil, errCheckoutSessionServiceRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{
		carts:    deps.Carts,
		sessions: deps.Sessions,
		logger:   logger,
	}, nil
}

// BeginCheckout verifies the session is authenticated and the cart holds at
// least one line, then returns the intent snapshot. Identity is checked
// first so an anonymous visitor with an empty cart is told to log in.
func (s *checkoutService) BeginCheckout(ctx context.Context, sessionID, accessToken string) (CheckoutIntent, error) {
	user, err := s.sessions.CurrentUser(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrSessionUnauthorized) {
			return CheckoutIntent{}, ErrCheckoutUnauthenticated
		}
		return CheckoutIntent{}, err
	}

	view, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return CheckoutIntent{}, err
	}
	if view.Cart.IsEmpty() {
		return CheckoutIntent{}, ErrCheckoutEmptyCart
	}

	s.logger(ctx, "checkout.begun", map[string]any{
		"sessionID": sessionID,
		"userID":    user.ID,
		"items":     len(view.Cart.Items),
		"total":     view.Totals.Total,
	})
	return CheckoutIntent{
		CartID: view.Cart.ID,
		User:   user,
		Totals: view.Totals,
		Items:  view.Cart.Items,
	}, nil
}
