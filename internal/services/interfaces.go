package services

import (
	"context"

	"github.com/pratshop/storefront/internal/domain"
)

// CartView is a cart snapshot paired with totals recomputed from it.
type CartView struct {
	Cart   domain.Cart
	Totals domain.Totals
}

// CartService owns all mutation of the session-scoped cart. Operations are
// total over validated input: unknown ids and repeated removals are no-ops,
// quantities at or below zero remove the line.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (CartView, error)
	AddItem(ctx context.Context, sessionID string, item domain.LineItem) (CartView, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID domain.ProductID, quantity int) (CartView, error)
	RemoveItem(ctx context.Context, sessionID string, productID domain.ProductID) (CartView, error)
}

// CatalogService supplies the homepage catalogs, product detail and
// related-product listings with CMS payloads validated and sanitized.
type CatalogService interface {
	ListCatalogs(ctx context.Context) ([]domain.CatalogSection, error)
	GetProduct(ctx context.Context, productID domain.ProductID) (domain.ProductDetail, error)
	RelatedProducts(ctx context.Context, pageID string, exclude domain.ProductID) ([]domain.ProductSummary, error)
}

// SearchService answers free-text product queries. An empty query yields an
// empty result, not an error.
type SearchService interface {
	Search(ctx context.Context, query string) ([]domain.ProductSummary, error)
}

// LoginResult carries the CMS access token issued on successful login.
type LoginResult struct {
	AccessToken string
	User        domain.UserIdentity
}

// SignupResult carries the identifier of the created account.
type SignupResult struct {
	Identifier string
}

// SessionService wraps the CMS auth provider: signup, login, logout and
// current-user resolution for an access token.
type SessionService interface {
	Signup(ctx context.Context, values map[string]string) (SignupResult, error)
	Login(ctx context.Context, values map[string]string) (LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (domain.UserIdentity, error)
}

// FormService fetches CMS-defined form field descriptors and validates
// submissions against them. The field set is data, not code.
type FormService interface {
	Form(ctx context.Context, kind FormKind) ([]domain.FormField, error)
	ValidateSubmission(fields []domain.FormField, values map[string]string) (map[string]string, []FieldError)
}

// CheckoutIntent is the accepted-checkout acknowledgement returned once the
// gate passes. Payment processing happens elsewhere.
type CheckoutIntent struct {
	CartID string
	User   domain.UserIdentity
	Totals domain.Totals
	Items  []domain.LineItem
}

// CheckoutService applies the checkout gate: an authenticated session and a
// non-empty cart are both required before checkout may proceed.
type CheckoutService interface {
	BeginCheckout(ctx context.Context, sessionID, accessToken string) (CheckoutIntent, error)
}
