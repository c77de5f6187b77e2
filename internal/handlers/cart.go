package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/platform/httpx"
	"github.com/pratshop/storefront/internal/platform/requestctx"
	"github.com/pratshop/storefront/internal/services"
)

// CartHandlers exposes the session-scoped cart endpoints.
type CartHandlers struct {
	carts services.CartService
}

const maxCartBodySize = 16 * 1024

// NewCartHandlers constructs handlers over the cart service.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productID}", h.updateQuantity)
	r.Delete("/items/{productID}", h.removeItem)
}

type cartItemPayload struct {
	ProductID string       `json:"productId"`
	Name      string       `json:"name"`
	Price     moneyPayload `json:"price"`
	Quantity  int          `json:"quantity"`
	Image     string       `json:"image,omitempty"`
}

type cartPayload struct {
	Items  []cartItemPayload `json:"items"`
	Totals totalsPayload     `json:"totals"`
}

type addItemRequest struct {
	ProductID domain.ProductID `json:"productId"`
	Name      string           `json:"name"`
	Price     float64          `json:"price"`
	Quantity  int              `json:"quantity"`
	Image     string           `json:"image"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	view, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, view)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}
	if req.ProductID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productId is required", http.StatusBadRequest))
		return
	}

	view, err := h.carts.AddItem(ctx, sessionID, domain.LineItem{
		ProductID: req.ProductID,
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Quantity:  req.Quantity,
		Image:     strings.TrimSpace(req.Image),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, view)
}

func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	productID := domain.ProductID(strings.TrimSpace(chi.URLParam(r, "productID")))
	if productID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity is required", http.StatusBadRequest))
		return
	}

	view, err := h.carts.UpdateQuantity(ctx, sessionID, productID, *req.Quantity)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, view)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	productID := domain.ProductID(strings.TrimSpace(chi.URLParam(r, "productID")))
	if productID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	view, err := h.carts.RemoveItem(ctx, sessionID, productID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	h.writeCart(w, view)
}

func (h *CartHandlers) requireSession(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	session, ok := requestctx.SessionFromContext(ctx)
	if !ok || strings.TrimSpace(session.ID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "session cookie is missing", http.StatusBadRequest))
		return "", false
	}
	return session.ID, true
}

func (h *CartHandlers) writeCart(w http.ResponseWriter, view services.CartView) {
	items := make([]cartItemPayload, 0, len(view.Cart.Items))
	for _, item := range view.Cart.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Price:     money(item.Price),
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	// Carts are per-session state; shared caches must never hold them.
	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": cartPayload{
		Items:  items,
		Totals: buildTotalsPayload(view.Totals),
	}})
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidSession):
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "session cookie is missing", http.StatusBadRequest))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart storage is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("request_timeout", "request cancelled", httpStatusClientClosed))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}
