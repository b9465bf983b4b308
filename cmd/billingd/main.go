package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/leaseledger/backend/internal/application/billing"
	"github.com/leaseledger/backend/internal/infrastructure/config"
	"github.com/leaseledger/backend/internal/infrastructure/joblock"
	"github.com/leaseledger/backend/internal/infrastructure/logger"
	"github.com/leaseledger/backend/internal/infrastructure/persistence"
	"github.com/leaseledger/backend/internal/infrastructure/scheduler"
	"github.com/leaseledger/backend/internal/interfaces/http/handler"
	"github.com/leaseledger/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting LeaseLedger billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	leaseRepo := persistence.NewLeaseRepository(db.DB)
	txnRepo := persistence.NewTransactionRepository(db.DB, cfg.Billing.InsertBatch)
	totalsRepo := persistence.NewPaymentTotalsRepository(db.DB)

	// Initialize application services
	billingService := billing.NewRentBillingService(leaseRepo, txnRepo, log)
	totalsService := billing.NewPaymentTotalsService(leaseRepo, totalsRepo, log)

	// Job lock: Redis-backed when configured, otherwise a no-op lock for
	// single-instance deployments. Reruns stay harmless either way because
	// the bulk insert ignores conflicting rows.
	var lock joblock.Lock
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		lock = joblock.NewRedisLock(redisClient)
		log.Info("Redis job lock enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		lock = joblock.NewNoopLock()
		log.Warn("Redis disabled, running with no-op job lock; do not run multiple instances")
	}

	// Daily rent billing scheduler
	billingScheduler := scheduler.NewRentBillingScheduler(billingService, lock, log, scheduler.RentBillingSchedulerConfig{
		Enabled:    true,
		RunHourUTC: cfg.Billing.RunHourUTC,
		RunTimeout: cfg.Billing.RunTimeout,
		LockTTL:    cfg.Billing.LockTTL,
	})
	if err := billingScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start rent billing scheduler", zap.Error(err))
	}
	log.Info("Rent billing scheduler started",
		zap.Int("run_hour_utc", cfg.Billing.RunHourUTC),
		zap.Duration("run_timeout", cfg.Billing.RunTimeout),
	)

	// Payment totals refresh scheduler
	totalsScheduler := scheduler.NewPaymentTotalsScheduler(totalsService, log, scheduler.PaymentTotalsSchedulerConfig{
		Enabled:        true,
		Interval:       cfg.Billing.TotalsInterval,
		RefreshTimeout: cfg.Billing.TotalsTimeout,
	})
	if err := totalsScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start payment totals scheduler", zap.Error(err))
	}
	log.Info("Payment totals scheduler started",
		zap.Duration("interval", cfg.Billing.TotalsInterval),
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize HTTP handlers and router
	billingHandler := handler.NewBillingHandler(billingService, totalsRepo)
	healthHandler := handler.NewHealthHandler(db)
	engine := router.New(billingHandler, healthHandler)

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
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := billingScheduler.Stop(ctx); err != nil {
		log.Error("Error stopping rent billing scheduler", zap.Error(err))
	}
	if err := totalsScheduler.Stop(ctx); err != nil {
		log.Error("Error stopping payment totals scheduler", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
