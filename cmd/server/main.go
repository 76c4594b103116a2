package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	documentapp "github.com/stitchwork/backend/internal/application/document"
	financeapp "github.com/stitchwork/backend/internal/application/finance"
	inventoryapp "github.com/stitchwork/backend/internal/application/inventory"
	"github.com/stitchwork/backend/internal/domain/document"
	"github.com/stitchwork/backend/internal/domain/reconciliation"
	"github.com/stitchwork/backend/internal/infrastructure/cache"
	"github.com/stitchwork/backend/internal/infrastructure/config"
	"github.com/stitchwork/backend/internal/infrastructure/logger"
	"github.com/stitchwork/backend/internal/infrastructure/persistence"
	"github.com/stitchwork/backend/internal/interfaces/http/handler"
	"github.com/stitchwork/backend/internal/interfaces/http/router"
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

	log.Info("Starting StitchWork Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create GORM logger backed by zap
	gormLevel := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		gormLevel = gormlogger.Info
	}
	gormLog := logger.NewGormLogger(log, gormLevel)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Balance cache: Redis when enabled, in-process fallback otherwise
	var balanceCache inventoryapp.BalanceCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisBalanceCache(
			cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.TTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		balanceCache = redisCache
		log.Info("Redis balance cache connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		memCache := cache.NewInMemoryBalanceCache(cfg.Cache.TTL)
		defer func() {
			_ = memCache.Close()
		}()
		balanceCache = memCache
		log.Info("Using in-memory balance cache")
	}

	// Workflow registry with the built-in document kinds
	registry, err := document.NewDefaultRegistry()
	if err != nil {
		log.Fatal("Failed to build workflow registry", zap.Error(err))
	}

	// Initialize repositories
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	subjectRepo := persistence.NewGormSubjectRepository(db.DB)
	ledgerTxScope := persistence.NewGormLedgerTransactionScope(db.DB)
	sessionRepo := persistence.NewGormReconciliationRepository(db.DB)

	// Initialize application services
	transitionService := documentapp.NewTransitionService(registry, documentRepo)
	ledgerService := inventoryapp.NewLedgerService(subjectRepo, ledgerTxScope, balanceCache, log)
	matcher := reconciliation.NewMatcher(reconciliation.MatcherConfig{
		DateWindowDays:  cfg.Reconciliation.DateWindowDays,
		AmountTolerance: cfg.Reconciliation.AmountTolerance,
	})
	reconciliationService := financeapp.NewReconciliationService(sessionRepo, matcher, log)

	// Build the engine with request ID, logging, and recovery middleware
	engine := router.NewEngine(log)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(db))
	r.Register(handler.NewDocumentHandler(transitionService))
	r.Register(handler.NewInventoryHandler(ledgerService))
	r.Register(handler.NewReconciliationHandler(reconciliationService))
	r.Setup()

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
