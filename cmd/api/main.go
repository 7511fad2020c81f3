package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/internal/bootstrap"
	"go-storefront/internal/handler"
	"go-storefront/internal/middleware"
	"go-storefront/internal/repository"
	"go-storefront/internal/service"
	"go-storefront/internal/ws"
	"go-storefront/pkg/cache"
	"go-storefront/pkg/config"
	"go-storefront/pkg/database"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/logger"
	"go-storefront/pkg/payment"
	"go-storefront/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	if cfg.JWTSecret == "" && cfg.IsProduction() {
		log.Fatal("JWT_SECRET must be set in production")
	}
	jwt.Configure(cfg.JWTSecret, cfg.JWTTTL)

	// 2. Setup Database
	db := database.ConnectDB(cfg.DatabaseURL, log, !cfg.IsProduction())
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 3. Seed default privileges, roles, and admin user
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		log.Warn("Failed to seed roles", zap.Error(err))
	}
	if err := bootstrap.SeedAdmin(ctx, userRepo, roleRepo, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Warn("Failed to seed admin user", zap.Error(err))
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 5. Optional collaborators. Each stays a nil interface when unconfigured.
	var idempotency service.IdempotencyCache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, idempotency cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			idempotency = cache.NewIdempotencyCache(rdb, cfg.IdempotencyTTL, log)
		}
	}

	var uploader service.ImageUploader
	if cfg.S3Bucket != "" {
		awsCfg, err := storage.LoadAWSConfig(ctx)
		if err != nil {
			log.Warn("AWS config unavailable, image uploads disabled", zap.Error(err))
		} else {
			uploader = storage.NewImageStore(awsCfg, cfg.S3Bucket, cfg.S3PublicBaseURL, cfg.UploadURLExpiry)
		}
	}

	var (
		provider service.PaymentProvider
		webhooks handler.WebhookParser
	)
	if cfg.StripeSecretKey != "" {
		stripeProvider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		provider = stripeProvider
		webhooks = stripeProvider
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, checkout will only place orders")
	}

	// 6. Dependency Injection (Wiring Layers)
	store := repository.NewGormStore(db)
	reportRepo := repository.NewReportRepo(db)

	ledger := service.NewInventoryLedger(store, wsHub, log)
	cartService := service.NewCartService(store, ledger, log)
	orderService := service.NewOrderService(store, ledger, idempotency, wsHub, log)
	checkoutService := service.NewCheckoutService(orderService, store, provider, wsHub, service.CheckoutConfig{
		FrontendURL: cfg.FrontendURL,
		Currency:    cfg.Currency,
	}, log)
	catalogService := service.NewCatalogService(store, ledger, uploader, log)
	authService := service.NewAuthService(userRepo, roleRepo, log)
	dashService := service.NewDashboardService(reportRepo, cfg.LowStockThreshold)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Catalog:   handler.NewCatalogHandler(catalogService),
		Inventory: handler.NewInventoryHandler(catalogService, ledger),
		Cart:      handler.NewCartHandler(cartService),
		Order:     handler.NewOrderHandler(orderService),
		Checkout:  handler.NewCheckoutHandler(checkoutService, webhooks, log),
		Dashboard: handler.NewDashboardHandler(dashService),
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Storefront v1.0",
		ErrorHandler: middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New())

	// 8. Routes
	handler.RegisterRoutes(app.Group("/api/v1"), handlers, middleware.RequireAuth(userRepo), newCheckoutLimiter())

	// WebSocket Route
	handler.RegisterLiveUpdates(app, wsHub, middleware.RequireAuth(userRepo))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// newCheckoutLimiter throttles order placement per caller. It runs after
// RequireAuth so the user id is known; the IP covers anything else.
func newCheckoutLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals(middleware.LocalUserID).(string); ok && userID != "" {
				return userID
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many checkout attempts, slow down"})
		},
	})
}
