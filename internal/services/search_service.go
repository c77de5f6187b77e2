package services

import (
	"context"
	"errors"
	"strings"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/oneentry"
)

var (
	errSearchGatewayRequired = errors.New("search service: gateway is required")

	// ErrSearchUnavailable indicates the CMS could not serve the query.
	ErrSearchUnavailable = errors.New("search service: unavailable")
)

// SearchGateway is the slice of the CMS client search goes through.
type SearchGateway interface {
	Search(ctx context.Context, query string) ([]domain.ProductSummary, error)
}

// SearchServiceDeps wires the CMS gateway into the search service.
type SearchServiceDeps struct {
	Gateway SearchGateway
}

type searchService struct {
	gateway SearchGateway
}

// NewSearchService constructs a SearchService.
func NewSearchService(deps SearchServiceDeps) (SearchService, error) {
	if deps.Gateway == nil {
		return nil, errSearchGatewayRequired
	}
	return &searchService{gateway: deps.Gateway}, nil
}

// Search answers the free-text query. A blank query short-circuits to an
// empty result without touching the CMS.
func (s *searchService) Search(ctx context.Context, query string) ([]domain.ProductSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ProductSummary{}, nil
	}
	results, err := s.gateway.Search(ctx, query)
	if err != nil {
		if errors.Is(err, oneentry.ErrUnavailable) {
			return nil, ErrSearchUnavailable
		}
		return nil, err
	}
	if results == nil {
		results = []domain.ProductSummary{}
	}
	return results, nil
}
