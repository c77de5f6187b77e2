package services

import (
	"context"
	"errors"
	"strings"

	"github.com/pratshop/storefront/internal/cartstore"
	"github.com/pratshop/storefront/internal/domain"
)

var (
	errCartStoreRequired = errors.New("cart service: store is required")

	// ErrCartInvalidSession indicates the caller supplied no session id.
	ErrCartInvalidSession = errors.New("cart service: invalid session")
	// ErrCartUnavailable indicates the cart store cannot be reached.
	ErrCartUnavailable = errors.New("cart service: unavailable")
)

// CartServiceDeps wires the store and pricing inputs for cart operations.
type CartServiceDeps struct {
	Store   cartstore.Store
	TaxRate float64
	Logger  func(context.Context, string, map[string]any)
}

type cartService struct {
	store   cartstore.Store
	taxRate float64
	logger  func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, errCartStoreRequired
	}
	taxRate := deps.TaxRate
	if taxRate <= 0 {
		taxRate = domain.DefaultTaxRate
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &cartService{
		store:   deps.Store,
		taxRate: taxRate,
		logger:  logger,
	}, nil
}

// GetCart returns the current snapshot with totals recomputed from it.
func (s *cartService) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartView{}, ErrCartInvalidSession
	}
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, s.translateStoreError(err)
	}
	return s.view(cart), nil
}

// AddItem appends the product or merges quantities into the existing line.
// Re-adding refreshes the snapshotted name, price and image; an add with a
// non-positive quantity leaves the cart unchanged.
func (s *cartService) AddItem(ctx context.Context, sessionID string, item domain.LineItem) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartView{}, ErrCartInvalidSession
	}

	cart, err := s.store.Mutate(ctx, sessionID, func(cart *domain.Cart) error {
		if item.ProductID.IsZero() || item.Quantity <= 0 {
			return nil
		}
		if item.Price < 0 {
			item.Price = 0
		}
		if idx := cart.Find(item.ProductID); idx >= 0 {
			cart.Items[idx].Quantity += item.Quantity
			cart.Items[idx].Name = item.Name
			cart.Items[idx].Price = item.Price
			cart.Items[idx].Image = item.Image
			return nil
		}
		cart.Items = append(cart.Items, item)
		return nil
	})
	if err != nil {
		return CartView{}, s.translateStoreError(err)
	}

	s.logger(ctx, "cart.item_added", map[string]any{
		"sessionID": sessionID,
		"productID": item.ProductID.String(),
		"quantity":  item.Quantity,
	})
	return s.view(cart), nil
}

// UpdateQuantity sets the line's quantity; zero or less removes the line
// entirely. An unknown product id is a no-op, not an error.
func (s *cartService) UpdateQuantity(ctx context.Context, sessionID string, productID domain.ProductID, quantity int) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartView{}, ErrCartInvalidSession
	}

	cart, err := s.store.Mutate(ctx, sessionID, func(cart *domain.Cart) error {
		idx := cart.Find(productID)
		if idx < 0 {
			return nil
		}
		if quantity <= 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
			return nil
		}
		cart.Items[idx].Quantity = quantity
		return nil
	})
	if err != nil {
		return CartView{}, s.translateStoreError(err)
	}
	return s.view(cart), nil
}

// RemoveItem deletes the line when present; removing twice is the same as
// removing once.
func (s *cartService) RemoveItem(ctx context.Context, sessionID string, productID domain.ProductID) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartView{}, ErrCartInvalidSession
	}

	cart, err := s.store.Mutate(ctx, sessionID, func(cart *domain.Cart) error {
		idx := cart.Find(productID)
		if idx < 0 {
			return nil
		}
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return nil
	})
	if err != nil {
		return CartView{}, s.translateStoreError(err)
	}
	return s.view(cart), nil
}

func (s *cartService) view(cart domain.Cart) CartView {
	return CartView{
		Cart:   cart,
		Totals: domain.ComputeTotals(cart.Items, s.taxRate),
	}
}

func (s *cartService) translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, cartstore.ErrStoreUnavailable) {
		return ErrCartUnavailable
	}
	return err
}
