package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratshop/storefront/internal/platform/httpx"
	"github.com/pratshop/storefront/internal/services"
)

// CatalogHandlers exposes the homepage catalog listing.
type CatalogHandlers struct {
	catalogs services.CatalogService
}

// NewCatalogHandlers constructs handlers over the catalog service.
func NewCatalogHandlers(catalogs services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalogs: catalogs}
}

// Routes wires the /catalogs endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listCatalogs)
}

type catalogSectionPayload struct {
	ID       string                  `json:"id"`
	Title    string                  `json:"title"`
	Products []productSummaryPayload `json:"products"`
}

func (h *CatalogHandlers) listCatalogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalogs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sections, err := h.catalogs.ListCatalogs(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]catalogSectionPayload, 0, len(sections))
	for _, section := range sections {
		payload = append(payload, catalogSectionPayload{
			ID:       section.ID,
			Title:    section.Title,
			Products: buildProductListPayload(section.Products),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"catalogs": payload})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog backend is unavailable", http.StatusBadGateway))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("request_timeout", "request cancelled", httpStatusClientClosed))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

// 499 is the de-facto status for a client that went away mid-request.
const httpStatusClientClosed = 499
