// Package main is the entry point for the integration hub API server
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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	integrationapp "github.com/Carloscisneroides/logistica-sub001/internal/application/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/authtoken"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/cache"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/config"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/courier"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/httpclient"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/logger"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/marketplace"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/persistence"
	"github.com/Carloscisneroides/logistica-sub001/internal/infrastructure/storage"
	"github.com/Carloscisneroides/logistica-sub001/internal/interfaces/http/handler"
	"github.com/Carloscisneroides/logistica-sub001/internal/interfaces/http/middleware"
	"github.com/Carloscisneroides/logistica-sub001/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting integration hub",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Initialize database with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	connectionRepo := persistence.NewGormProviderConnectionRepository(db.DB)
	orderRepo := persistence.NewGormSyncedOrderRepository(db.DB)
	watermarkRepo := persistence.NewGormSyncWatermarkRepository(db.DB)

	// Webhook dedupe store: Redis when reachable, in-memory otherwise
	dedupeStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = dedupeStore.Close()
	}()

	// Provider access tokens share the same Redis, falling back alongside
	tokens := authtoken.NewManager(newTokenCache(cfg, log),
		authtoken.WithSafetyMargin(cfg.Hub.TokenSafetyMargin),
		authtoken.WithLogger(log),
	)

	// Shared outbound HTTP client: paced and retried per provider call
	providerClient := httpclient.New(
		httpclient.WithTimeout(cfg.Hub.ProviderTimeout),
		httpclient.WithRateLimit(cfg.Hub.ProviderRateLimit, cfg.Hub.ProviderBurst),
		httpclient.WithLogger(log),
	)

	// Connector registry: each factory binds one connection's credentials
	registry := integration.NewRegistry()
	registry.Register(integration.ProviderCodeFedEx, func(pc *integration.ProviderConfig) (integration.Connector, error) {
		return courier.NewFedExAdapter(pc, providerClient, tokens, log)
	})
	registry.Register(integration.ProviderCodeDHL, func(pc *integration.ProviderConfig) (integration.Connector, error) {
		return courier.NewDHLAdapter(pc, providerClient, log)
	})
	registry.Register(integration.ProviderCodeShopify, func(pc *integration.ProviderConfig) (integration.Connector, error) {
		return marketplace.NewShopifyAdapter(pc, providerClient, log)
	})
	registry.Register(integration.ProviderCodeWooCommerce, func(pc *integration.ProviderConfig) (integration.Connector, error) {
		return marketplace.NewWooCommerceAdapter(pc, providerClient, log)
	})

	// Label documents go to S3-compatible storage when a bucket is configured
	var labels integrationapp.LabelStore
	if cfg.Storage.Bucket != "" {
		s3Labels, err := storage.NewS3LabelStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create label store", zap.Error(err))
		}
		labels = s3Labels
	} else {
		log.Warn("No storage bucket configured, label URLs will point at provider-hosted documents")
	}

	// Application services
	connectionSvc := integrationapp.NewConnectionService(connectionRepo, registry, log)
	courierSvc := integrationapp.NewCourierService(connectionRepo, registry, labels, log)
	syncSvc := integrationapp.NewOrderSyncService(orderRepo, watermarkRepo, connectionRepo, registry, log)
	webhookSvc := integrationapp.NewWebhookService(connectionRepo, registry, syncSvc, dedupeStore, cfg.Hub.WebhookDedupeTTL, log)

	// Handlers
	connectionHandler := handler.NewConnectionHandler(connectionSvc)
	courierHandler := handler.NewCourierHandler(courierSvc)
	orderHandler := handler.NewOrderSyncHandler(syncSvc)
	webhookHandler := handler.NewWebhookHandler(webhookSvc)
	systemHandler := handler.NewSystemHandler()

	// Setup Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.Logger = log
	// Webhook deliveries carry no tenant header; the route embeds the tenant
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, "/api/v1/webhooks")

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.TenantMiddlewareWithConfig(tenantConfig),
	)

	engine.GET("/health", healthHandler(db))

	// Webhook ingestion gets its own group with the tighter payload cap
	webhookGroup := engine.Group("/api/v1", middleware.BodyLimit(cfg.Hub.WebhookMaxBody))
	webhookHandler.RegisterRoutes(webhookGroup)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(connectionHandler).
		Register(courierHandler).
		Register(orderHandler)
	r.Setup()

	// Background order pull loop, off unless an interval is configured
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	if cfg.Hub.SyncInterval > 0 {
		go runSyncLoop(loopCtx, connectionRepo, syncSvc, cfg.Hub.SyncInterval, log)
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopLoop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newTokenCache returns a Redis-backed token cache when Redis is reachable,
// and an in-process cache otherwise. Tokens are transient so losing them on
// restart only costs one refresh per account.
func newTokenCache(cfg *config.Config, log *zap.Logger) authtoken.Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Warn("Redis unavailable, using in-memory token cache", zap.Error(err))
		return authtoken.NewMemoryCache()
	}

	log.Info("Using Redis token cache")
	return authtoken.NewRedisCache(client, "hub:token:")
}

// runSyncLoop pulls order batches for every active marketplace connection on
// a fixed cadence. Failures are logged and retried on the next tick; the
// watermark ensures no batch is skipped.
func runSyncLoop(ctx context.Context, connections *persistence.GormProviderConnectionRepository, sync *integrationapp.OrderSyncService, interval time.Duration, log *zap.Logger) {
	log.Info("Starting background order sync", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Background order sync stopped")
			return
		case <-ticker.C:
		}

		configs, err := connections.FindAllActive(ctx)
		if err != nil {
			log.Error("Failed to list active connections for sync", zap.Error(err))
			continue
		}

		for _, pc := range configs {
			if pc.Code.Kind() != integration.ProviderKindMarketplace {
				continue
			}
			result, err := sync.SyncBatch(ctx, pc.TenantID, pc.ID)
			if err != nil {
				log.Warn("Scheduled sync failed",
					zap.String("connection_id", pc.ID.String()),
					zap.String("provider", pc.Code.String()),
					zap.Error(err),
				)
				continue
			}
			if result.Pulled > 0 {
				log.Info("Scheduled sync completed",
					zap.String("connection_id", pc.ID.String()),
					zap.Int("pulled", result.Pulled),
					zap.Int("dropped", result.Dropped),
				)
			}
		}
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
