package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/cache"
	"github.com/GTDGit/esim_api/internal/config"
	"github.com/GTDGit/esim_api/internal/database"
	"github.com/GTDGit/esim_api/internal/handler"
	"github.com/GTDGit/esim_api/internal/middleware"
	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/repository"
	"github.com/GTDGit/esim_api/internal/service"
	"github.com/GTDGit/esim_api/internal/sse"
	"github.com/GTDGit/esim_api/internal/utils"
	"github.com/GTDGit/esim_api/internal/worker"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting esim api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect database and migrate
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db.DB, "file://migrations"); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 4. Redis page cache
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	pageCache := cache.NewPageCache(redisClient, cfg.Redis.CacheTTL)
	log.Info().Msg("redis connected successfully")

	// 5. Optional catalog mirror and feed archive. The interfaces stay nil
	// when a backend is not configured.
	var (
		mirrorWriter service.CatalogMirror
		mirrorReader service.MirrorReader
	)
	if cfg.Mongo.URI != "" {
		mirror, err := service.NewMongoCatalogMirror(ctx, cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("catalog mirror disabled")
		} else {
			defer mirror.Close(context.Background())
			mirrorWriter, mirrorReader = mirror, mirror
			log.Info().Str("database", cfg.Mongo.Database).Msg("catalog mirror connected")
		}
	}

	var archiver service.FeedArchiver
	if cfg.FeedArchive.Bucket != "" {
		a, err := service.NewS3FeedArchiver(ctx, cfg.FeedArchive)
		if err != nil {
			log.Warn().Err(err).Msg("feed archive disabled")
		} else {
			archiver = a
		}
	}

	// 6. Repositories
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	syncRunRepo := repository.NewSyncRunRepository(db)
	rateRepo := repository.NewExchangeRateRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 7. Services
	hub := sse.NewHub()
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	rates := service.NewRateBook(cfg.Pricing.RetailCurrency, rateRepo, cfg.Pricing.ExchangeRates)
	transformer := service.NewPriceTransformer(cfg.Pricing.MarginPercent, cfg.Pricing.RetailCurrency, rates)
	writer := service.NewCatalogWriter(productRepo, pageCache, mirrorWriter)

	aggregators := service.NewAggregators(cfg)
	for _, a := range aggregators {
		log.Info().Str("source", string(a.Source())).Msg("aggregator registered")
	}
	syncSvc := service.NewCatalogSyncService(aggregators, transformer, writer, syncRunRepo)
	syncSvc.SetNotifier(sse.NewHubNotifier(hub))
	if archiver != nil {
		syncSvc.SetArchiver(archiver)
	}

	productSvc := service.NewProductService(productRepo, pageCache, mirrorReader)
	orderSvc := service.NewOrderService(orderRepo, productRepo)
	adminAuthSvc := service.NewAdminAuthService(adminRepo, jwtManager)

	// 8. Handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": db,
			"redis":    handler.PingFunc(redisClient.Ping),
		}),
		Product:      handler.NewProductHandler(productSvc),
		Order:        handler.NewOrderHandler(orderSvc),
		Cron:         handler.NewCronHandler(syncSvc, productSvc),
		CatalogSync:  handler.NewCatalogSyncHandler(syncSvc, syncRunRepo),
		ExchangeRate: handler.NewExchangeRateHandler(rateRepo, cfg.Pricing.RetailCurrency),
		Auth:         handler.NewAuthHandler(adminAuthSvc),
		SSE:          handler.NewSSEHandler(hub, jwtManager),
	}

	// 9. Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, middleware.NewJWTMiddleware(jwtManager), middleware.NewCronMiddleware(cfg.CronSecret))

	// 10. Workers
	if cfg.Worker.SyncEnabled {
		go worker.NewSyncWorker(syncSvc, cfg.Worker.SyncInterval).Start(ctx)
	}

	// 11. HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Product      *handler.ProductHandler
	Order        *handler.OrderHandler
	Cron         *handler.CronHandler
	CatalogSync  *handler.CatalogSyncHandler
	ExchangeRate *handler.ExchangeRateHandler
	Auth         *handler.AuthHandler
	SSE          *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, cronMiddleware *middleware.CronMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Storefront
	router.GET("/v1/products", handlers.Product.GetProducts)
	router.GET("/v1/products/:sku", handlers.Product.GetProduct)
	router.POST("/v1/orders", handlers.Order.CreateOrder)
	router.GET("/v1/orders/:orderId", handlers.Order.GetOrder)

	// Scheduler hooks
	cron := router.Group("/api/cron")
	cron.Use(cronMiddleware.Handle())
	{
		cron.GET("/sync-products", handlers.Cron.SyncProducts)
		cron.GET("/revalidate", handlers.Cron.Revalidate)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", middleware.LimitFailedLogins(middleware.NewFailureLimiter(5, 15*time.Minute)), handlers.Auth.Login)
	// EventSource cannot set headers; the stream authenticates via ?token=.
	admin.GET("/sse", handlers.SSE.Stream)
	admin.Use(jwtMiddleware.Handle(), middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/catalog/sync", handlers.CatalogSync.TriggerSync)
		admin.GET("/sync-runs", handlers.CatalogSync.ListRuns)

		admin.GET("/products", handlers.Product.ListAdminProducts)
		admin.PUT("/products/:sku/featured", handlers.Product.SetFeatured)

		admin.GET("/exchange-rates", handlers.ExchangeRate.List)
		admin.PUT("/exchange-rates/:currency", handlers.ExchangeRate.Put)

		admin.POST("/orders/:orderId/status", handlers.Order.UpdateStatus)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
