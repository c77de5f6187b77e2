package services

import (
	"context"
	"errors"
	"testing"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/oneentry"
)

type stubSearchGateway struct {
	searchFunc func(ctx context.Context, query string) ([]domain.ProductSummary, error)
}

func (s *stubSearchGateway) Search(ctx context.Context, query string) ([]domain.ProductSummary, error) {
	if s.searchFunc == nil {
		return nil, errors.New("unexpected Search call")
	}
	return s.searchFunc(ctx, query)
}

func TestSearchServiceTrimsQuery(t *testing.T) {
	gateway := &stubSearchGateway{
		searchFunc: func(ctx context.Context, query string) ([]domain.ProductSummary, error) {
			if query != "tote" {
				t.Fatalf("expected trimmed query, got %q", query)
			}
			return []domain.ProductSummary{{ID: "42", Title: "Canvas Tote"}}, nil
		},
	}
	service, err := NewSearchService(SearchServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing search service: %v", err)
	}

	results, err := service.Search(context.Background(), "  tote  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "42" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestSearchServiceBlankQuerySkipsGateway(t *testing.T) {
	service, err := NewSearchService(SearchServiceDeps{Gateway: &stubSearchGateway{}})
	if err != nil {
		t.Fatalf("unexpected error constructing search service: %v", err)
	}

	results, err := service.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %+v", results)
	}
}

func TestSearchServiceTranslatesUnavailable(t *testing.T) {
	gateway := &stubSearchGateway{
		searchFunc: func(ctx context.Context, query string) ([]domain.ProductSummary, error) {
			return nil, oneentry.ErrUnavailable
		},
	}
	service, err := NewSearchService(SearchServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing search service: %v", err)
	}

	if _, err := service.Search(context.Background(), "tote"); !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
}
