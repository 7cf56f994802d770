package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	credapp "github.com/booksync/backend/internal/application/credential"
	reconcileapp "github.com/booksync/backend/internal/application/reconcile"
	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/infrastructure/config"
	"github.com/booksync/backend/internal/infrastructure/lock"
	"github.com/booksync/backend/internal/infrastructure/logger"
	"github.com/booksync/backend/internal/infrastructure/persistence"
	"github.com/booksync/backend/internal/infrastructure/platform"
	"github.com/booksync/backend/internal/infrastructure/scheduler"
	"github.com/booksync/backend/internal/interfaces/http/handler"
	"github.com/booksync/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting BookSync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected and migrated")

	// Scope locker: in-process for a single instance, Redis lease when
	// multiple instances share the store
	var locker reconcileapp.ScopeLocker
	if cfg.Sync.LockBackend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		locker = lock.NewRedisScopeLocker(redisClient, "")
		log.Info("Redis scope locker initialized", zap.String("addr", cfg.Redis.Addr()))
	} else {
		locker = lock.NewMemoryScopeLocker()
	}

	// Platform adapters and token endpoints, one pair per configured platform
	timeoutSeconds := int(cfg.Sync.RemoteTimeout / time.Second)
	var adapters []integration.AccountingPlatform
	var endpoints []credential.TokenEndpoint
	var configured []accounting.Platform
	if cfg.QuickBooks.Configured() {
		qbConfig := &platform.QuickBooksConfig{
			ClientID:       cfg.QuickBooks.ClientID,
			ClientSecret:   cfg.QuickBooks.ClientSecret,
			RedirectURI:    cfg.QuickBooks.RedirectURI,
			APIBaseURL:     cfg.QuickBooks.APIBaseURL,
			TokenURL:       cfg.QuickBooks.TokenURL,
			PageSize:       cfg.QuickBooks.PageSize,
			TimeoutSeconds: timeoutSeconds,
		}
		qbAdapter, err := platform.NewQuickBooksAdapter(qbConfig)
		if err != nil {
			log.Fatal("Failed to initialize QuickBooks adapter", zap.Error(err))
		}
		qbTokens, err := platform.NewQuickBooksTokenEndpoint(qbConfig)
		if err != nil {
			log.Fatal("Failed to initialize QuickBooks token endpoint", zap.Error(err))
		}
		adapters = append(adapters, qbAdapter)
		endpoints = append(endpoints, qbTokens)
		configured = append(configured, accounting.PlatformQuickBooks)
		log.Info("QuickBooks adapter registered")
	}
	if cfg.Xero.Configured() {
		xeroConfig := &platform.XeroConfig{
			ClientID:       cfg.Xero.ClientID,
			ClientSecret:   cfg.Xero.ClientSecret,
			RedirectURI:    cfg.Xero.RedirectURI,
			APIBaseURL:     cfg.Xero.APIBaseURL,
			TokenURL:       cfg.Xero.TokenURL,
			PageSize:       cfg.Xero.PageSize,
			TimeoutSeconds: timeoutSeconds,
		}
		xeroAdapter, err := platform.NewXeroAdapter(xeroConfig)
		if err != nil {
			log.Fatal("Failed to initialize Xero adapter", zap.Error(err))
		}
		xeroTokens, err := platform.NewXeroTokenEndpoint(xeroConfig)
		if err != nil {
			log.Fatal("Failed to initialize Xero token endpoint", zap.Error(err))
		}
		adapters = append(adapters, xeroAdapter)
		endpoints = append(endpoints, xeroTokens)
		configured = append(configured, accounting.PlatformXero)
		log.Info("Xero adapter registered")
	}
	if len(adapters) == 0 {
		log.Warn("No platform configured; connect endpoints will reject all platforms")
	}

	// Application services
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	tokenService := credapp.NewTokenService(credentialRepo, endpoints, log)
	registry := platform.NewRegistry(adapters...)
	txScope := persistence.NewGormTransactionScope(db.DB)
	engine := reconcileapp.NewEngine(txScope, locker, log)
	syncService := reconcileapp.NewSyncService(tokenService, registry, engine, log)

	// Optional background reconciliation loop
	var syncScheduler *scheduler.SyncScheduler
	if cfg.Sync.Interval > 0 {
		syncScheduler = scheduler.NewSyncScheduler(syncService, configured,
			cfg.Sync.Interval, cfg.Sync.Interval, log)
		syncScheduler.Start()
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := router.New(log, router.Handlers{
		System:  handler.NewSystemHandler(db),
		Auth:    handler.NewAuthHandler(tokenService, credentialRepo),
		Sync:    handler.NewSyncHandler(syncService),
		Vendor:  handler.NewVendorHandler(engine, syncService),
		Product: handler.NewProductHandler(engine),
		Invoice: handler.NewInvoiceHandler(engine, syncService),
	})
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := ginEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	if syncScheduler != nil {
		syncScheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
