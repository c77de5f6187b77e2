package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/oneentry"
)

type stubCatalogGateway struct {
	listCatalogsFunc   func(ctx context.Context) ([]domain.CatalogSection, error)
	getProductFunc     func(ctx context.Context, productID string) (domain.ProductDetail, error)
	productsByPageFunc func(ctx context.Context, pageID string) ([]domain.ProductSummary, error)
}

func (s *stubCatalogGateway) ListCatalogs(ctx context.Context) ([]domain.CatalogSection, error) {
	if s.listCatalogsFunc == nil {
		return nil, errors.New("unexpected ListCatalogs call")
	}
	return s.listCatalogsFunc(ctx)
}

func (s *stubCatalogGateway) GetProduct(ctx context.Context, productID string) (domain.ProductDetail, error) {
	if s.getProductFunc == nil {
		return domain.ProductDetail{}, errors.New("unexpected GetProduct call")
	}
	return s.getProductFunc(ctx, productID)
}

func (s *stubCatalogGateway) ProductsByPage(ctx context.Context, pageID string) ([]domain.ProductSummary, error) {
	if s.productsByPageFunc == nil {
		return nil, errors.New("unexpected ProductsByPage call")
	}
	return s.productsByPageFunc(ctx, pageID)
}

func TestCatalogServiceGetProductSanitizesDescription(t *testing.T) {
	gateway := &stubCatalogGateway{
		getProductFunc: func(ctx context.Context, productID string) (domain.ProductDetail, error) {
			if productID != "42" {
				t.Fatalf("unexpected product id %q", productID)
			}
			return domain.ProductDetail{
				ProductSummary: domain.ProductSummary{ID: "42", Title: "Canvas Tote", Price: 10},
				DescriptionHTML: `<p>Sturdy tote.</p><script>alert("x")</script>`,
			}, nil
		},
	}
	service, err := NewCatalogService(CatalogServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing catalog service: %v", err)
	}

	detail, err := service.GetProduct(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(detail.DescriptionHTML, "<script") {
		t.Fatalf("expected script stripped, got %q", detail.DescriptionHTML)
	}
	if !strings.Contains(detail.DescriptionHTML, "Sturdy tote.") {
		t.Fatalf("expected safe markup preserved, got %q", detail.DescriptionHTML)
	}
}

func TestCatalogServiceGetProductTranslatesNotFound(t *testing.T) {
	gateway := &stubCatalogGateway{
		getProductFunc: func(ctx context.Context, productID string) (domain.ProductDetail, error) {
			return domain.ProductDetail{}, oneentry.ErrNotFound
		},
	}
	service, err := NewCatalogService(CatalogServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing catalog service: %v", err)
	}

	if _, err := service.GetProduct(context.Background(), "404"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := service.GetProduct(context.Background(), ""); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for blank id, got %v", err)
	}
}

func TestCatalogServiceRelatedProductsExcludesCurrent(t *testing.T) {
	gateway := &stubCatalogGateway{
		productsByPageFunc: func(ctx context.Context, pageID string) ([]domain.ProductSummary, error) {
			if pageID != "7" {
				t.Fatalf("unexpected page id %q", pageID)
			}
			return []domain.ProductSummary{
				{ID: "42", Title: "Canvas Tote"},
				{ID: "43", Title: "Enamel Mug"},
				{ID: "44", Title: "Field Notebook"},
			}, nil
		},
	}
	service, err := NewCatalogService(CatalogServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing catalog service: %v", err)
	}

	related, err := service.RelatedProducts(context.Background(), "7", "43")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("expected 2 related products, got %d", len(related))
	}
	for _, product := range related {
		if product.ID == "43" {
			t.Fatalf("expected product 43 excluded")
		}
	}
}

func TestCatalogServiceRelatedProductsWithoutPage(t *testing.T) {
	service, err := NewCatalogService(CatalogServiceDeps{Gateway: &stubCatalogGateway{}})
	if err != nil {
		t.Fatalf("unexpected error constructing catalog service: %v", err)
	}

	related, err := service.RelatedProducts(context.Background(), "", "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(related) != 0 {
		t.Fatalf("expected no related products, got %d", len(related))
	}
}

func TestCatalogServiceListCatalogsTranslatesUnavailable(t *testing.T) {
	gateway := &stubCatalogGateway{
		listCatalogsFunc: func(ctx context.Context) ([]domain.CatalogSection, error) {
			return nil, oneentry.ErrUnavailable
		},
	}
	service, err := NewCatalogService(CatalogServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing catalog service: %v", err)
	}

	if _, err := service.ListCatalogs(context.Background()); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}
