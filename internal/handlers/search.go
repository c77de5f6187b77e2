package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pratshop/storefront/internal/platform/httpx"
	"github.com/pratshop/storefront/internal/platform/observability"
	"github.com/pratshop/storefront/internal/platform/requestctx"
	"github.com/pratshop/storefront/internal/services"
)

// SearchHandlers exposes free-text product search.
type SearchHandlers struct {
	search services.SearchService
}

// NewSearchHandlers constructs handlers over the search service.
func NewSearchHandlers(search services.SearchService) *SearchHandlers {
	return &SearchHandlers{search: search}
}

// Routes wires the /search endpoints onto the provided router.
func (h *SearchHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.searchProducts)
}

func (h *SearchHandlers) searchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.search == nil {
		httpx.WriteError(ctx, w, httpx.NewError("search_service_unavailable", "search service is unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query().Get("searchTerm")
	results, err := h.search.Search(ctx, query)
	if err != nil {
		writeSearchError(ctx, w, err)
		return
	}
	requestctx.Logger(ctx).Debug("search performed",
		zap.String("searchTerm", observability.SanitizeSearchTerm(query)),
		zap.Int("results", len(results)),
	)
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"searchTerm": query,
		"products":   buildProductListPayload(results),
	})
}

func writeSearchError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSearchUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("search_unavailable", "search backend is unavailable", http.StatusBadGateway))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("request_timeout", "request cancelled", httpStatusClientClosed))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
