package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/platform/httpx"
	"github.com/pratshop/storefront/internal/services"
)

// ProductHandlers exposes product detail and related-product endpoints.
type ProductHandlers struct {
	catalogs services.CatalogService
}

// NewProductHandlers constructs handlers over the catalog service.
func NewProductHandlers(catalogs services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalogs: catalogs}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{productID}", h.getProduct)
	r.Get("/{productID}/related", h.relatedProducts)
}

type productDetailPayload struct {
	productSummaryPayload
	DescriptionHTML string `json:"descriptionHtml"`
	PageID          string `json:"pageId,omitempty"`
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalogs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := domain.ProductID(strings.TrimSpace(chi.URLParam(r, "productID")))
	detail, err := h.catalogs.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"product": productDetailPayload{
		productSummaryPayload: buildProductSummaryPayload(detail.ProductSummary),
		DescriptionHTML:       detail.DescriptionHTML,
		PageID:                detail.PageID,
	}})
}

// relatedProducts answers the "you may also like" strip: other products on
// the same catalog page, never including the product itself.
func (h *ProductHandlers) relatedProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalogs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := domain.ProductID(strings.TrimSpace(chi.URLParam(r, "productID")))
	detail, err := h.catalogs.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	related, err := h.catalogs.RelatedProducts(ctx, detail.PageID, detail.ID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": buildProductListPayload(related)})
}
