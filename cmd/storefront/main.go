package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pratshop/storefront/internal/di"
	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/handlers"
	"github.com/pratshop/storefront/internal/platform/config"
	"github.com/pratshop/storefront/internal/platform/idempotency"
	"github.com/pratshop/storefront/internal/platform/observability"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	cartLogger := logger.Named("cart")
	unsubscribe := container.CartStore.Subscribe(func(sessionID string, cart domain.Cart) {
		cartLogger.Debug("cart changed",
			zap.String("sessionId", observability.SanitizeSessionID(sessionID)),
			zap.Int("items", len(cart.Items)),
			zap.Time("updatedAt", cart.UpdatedAt),
		)
	})
	defer unsubscribe()

	opts := []handlers.Option{
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(),
			observability.RequestLoggerMiddleware(),
			container.Sessions.Middleware(),
			idempotency.Middleware(container.Idempotency, idempotency.WithMethods(http.MethodPost)),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithHealthVersion(buildVersion()),
			handlers.WithReadinessChecks(
				handlers.ReadinessCheck{Name: "cartstore", Check: container.CartStore.Ping},
			),
		)),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(container.Services.Catalog).Routes),
		handlers.WithProductRoutes(handlers.NewProductHandlers(container.Services.Catalog).Routes),
		handlers.WithSearchRoutes(handlers.NewSearchHandlers(container.Services.Search).Routes),
		handlers.WithAuthRoutes(handlers.NewAuthHandlers(container.Services.Sessions, container.Services.Forms, container.Sessions).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(container.Services.Cart).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(container.Services.Checkout).Routes),
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildVersion() string {
	if v := os.Getenv("STORE_BUILD_VERSION"); v != "" {
		return v
	}
	return "dev"
}
