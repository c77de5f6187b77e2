package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratshop/storefront/internal/platform/httpx"
	"github.com/pratshop/storefront/internal/platform/requestctx"
	"github.com/pratshop/storefront/internal/services"
)

// CheckoutHandlers exposes the checkout gate.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

const loginRedirectPath = "/auth?type=login"

// NewCheckoutHandlers constructs handlers over the checkout service.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.beginCheckout)
}

func (h *CheckoutHandlers) beginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sess, ok := requestctx.SessionFromContext(ctx)
	if !ok {
		writeCheckoutError(ctx, w, services.ErrCheckoutUnauthenticated)
		return
	}

	intent, err := h.checkout.BeginCheckout(ctx, sess.ID, sess.AccessToken)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	items := make([]cartItemPayload, 0, len(intent.Items))
	for _, item := range intent.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Price:     money(item.Price),
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"checkout": map[string]any{
			"cartId": intent.CartID,
			"user":   buildUserPayload(intent.User),
			"items":  items,
			"totals": buildTotalsPayload(intent.Totals),
		},
	})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutUnauthenticated):
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "log in to check out", http.StatusUnauthorized).WithDetails(map[string]any{
			"redirect": loginRedirectPath,
		}))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart has no items to check out", http.StatusConflict))
	case errors.Is(err, services.ErrSessionUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "auth backend is unavailable", http.StatusBadGateway))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart storage is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("request_timeout", "request cancelled", httpStatusClientClosed))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
