package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pratshop/storefront/internal/cartstore"
	"github.com/pratshop/storefront/internal/oneentry"
	"github.com/pratshop/storefront/internal/platform/config"
	"github.com/pratshop/storefront/internal/platform/idempotency"
	"github.com/pratshop/storefront/internal/platform/observability"
	"github.com/pratshop/storefront/internal/platform/session"
	"github.com/pratshop/storefront/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Cart     services.CartService
	Catalog  services.CatalogService
	Search   services.SearchService
	Sessions services.SessionService
	Forms    services.FormService
	Checkout services.CheckoutService
}

// Container wires the CMS client, cart store and services for runtime use.
type Container struct {
	Config      config.Config
	CartStore   cartstore.Store
	CMS         *oneentry.Client
	Sessions    *session.Manager
	Idempotency idempotency.Store
	Services    Services
}

// NewContainer constructs the runtime dependencies. The cart store backend is
// chosen by configuration: Redis when an address is set, process memory
// otherwise.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cms, err := oneentry.NewClient(oneentry.Config{
		BaseURL:  cfg.CMS.BaseURL,
		AppToken: cfg.CMS.AppToken,
		Timeout:  cfg.CMS.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build cms client: %w", err)
	}

	var store cartstore.Store
	if cfg.Cart.RedisAddr != "" {
		redisStore, err := cartstore.NewRedis(cfg.Cart.RedisAddr, cartstore.WithTTL(cfg.Cart.TTL))
		if err != nil {
			return nil, fmt.Errorf("build redis cart store: %w", err)
		}
		store = redisStore
	} else {
		store = cartstore.NewLocal()
	}

	manager, err := session.NewManager(cfg.Session.SigningSecret, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.SecureCookies)
	if err != nil {
		return nil, fmt.Errorf("build session manager: %w", err)
	}

	svc, err := buildServices(store, cms, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:      cfg,
		CartStore:   store,
		CMS:         cms,
		Sessions:    manager,
		Idempotency: idempotency.NewMemoryStore(),
		Services:    svc,
	}, nil
}

// Close releases backend clients held by the container.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if closer, ok := c.CartStore.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func buildServices(store cartstore.Store, cms *oneentry.Client, cfg config.Config, logger *zap.Logger) (Services, error) {
	var svc Services
	events := observability.EventLogger(logger)

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Store:   store,
		TaxRate: cfg.Cart.TaxRate,
		Logger:  events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Gateway: cms,
		Logger:  events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	searchSvc, err := services.NewSearchService(services.SearchServiceDeps{Gateway: cms})
	if err != nil {
		return Services{}, fmt.Errorf("build search service: %w", err)
	}
	svc.Search = searchSvc

	sessionSvc, err := services.NewSessionService(services.SessionServiceDeps{
		Gateway: cms,
		Logger:  events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build session service: %w", err)
	}
	svc.Sessions = sessionSvc

	formSvc, err := services.NewFormService(services.FormServiceDeps{Gateway: cms})
	if err != nil {
		return Services{}, fmt.Errorf("build form service: %w", err)
	}
	svc.Forms = formSvc

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:    cartSvc,
		Sessions: sessionSvc,
		Logger:   events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	return svc, nil
}
