package services

import (
	"context"
	"errors"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/oneentry"
)

var (
	errCatalogGatewayRequired = errors.New("catalog service: gateway is required")

	// ErrProductNotFound indicates no product exists with the given id.
	ErrProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogUnavailable indicates the CMS could not serve catalog data.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// CatalogGateway is the slice of the CMS client catalog reads go through.
type CatalogGateway interface {
	ListCatalogs(ctx context.Context) ([]domain.CatalogSection, error)
	GetProduct(ctx context.Context, productID string) (domain.ProductDetail, error)
	ProductsByPage(ctx context.Context, pageID string) ([]domain.ProductSummary, error)
}

// CatalogServiceDeps wires the CMS gateway into the catalog service.
type CatalogServiceDeps struct {
	Gateway CatalogGateway
	Logger  func(context.Context, string, map[string]any)
}

type catalogService struct {
	gateway   CatalogGateway
	sanitizer *bluemonday.Policy
	logger    func(context.Context, string, map[string]any)
}

// NewCatalogService constructs a CatalogService. Product descriptions come
// from the CMS as raw HTML and are sanitized before leaving this layer.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Gateway == nil {
		return nil, errCatalogGatewayRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		gateway:   deps.Gateway,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}, nil
}

func (s *catalogService) ListCatalogs(ctx context.Context) ([]domain.CatalogSection, error) {
	sections, err := s.gateway.ListCatalogs(ctx)
	if err != nil {
		return nil, s.translateGatewayError(err)
	}
	if sections == nil {
		sections = []domain.CatalogSection{}
	}
	return sections, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID domain.ProductID) (domain.ProductDetail, error) {
	if productID.IsZero() {
		return domain.ProductDetail{}, ErrProductNotFound
	}
	detail, err := s.gateway.GetProduct(ctx, productID.String())
	if err != nil {
		return domain.ProductDetail{}, s.translateGatewayError(err)
	}
	detail.DescriptionHTML = s.sanitizer.Sanitize(detail.DescriptionHTML)
	return detail, nil
}

// RelatedProducts lists the page's other products, excluding the product the
// visitor is already looking at. A product without a page yields no related
// items rather than an error.
func (s *catalogService) RelatedProducts(ctx context.Context, pageID string, exclude domain.ProductID) ([]domain.ProductSummary, error) {
	if pageID == "" {
		return []domain.ProductSummary{}, nil
	}
	products, err := s.gateway.ProductsByPage(ctx, pageID)
	if err != nil {
		return nil, s.translateGatewayError(err)
	}
	related := make([]domain.ProductSummary, 0, len(products))
	for _, product := range products {
		if product.ID == exclude {
			continue
		}
		related = append(related, product)
	}
	return related, nil
}

func (s *catalogService) translateGatewayError(err error) error {
	switch {
	case errors.Is(err, oneentry.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, oneentry.ErrUnavailable):
		return ErrCatalogUnavailable
	default:
		return err
	}
}
