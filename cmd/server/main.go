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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbilling "github.com/varejo/backend/internal/application/billing"
	appnotification "github.com/varejo/backend/internal/application/notification"
	"github.com/varejo/backend/internal/domain/notification"
	"github.com/varejo/backend/internal/infrastructure/cache"
	"github.com/varejo/backend/internal/infrastructure/config"
	"github.com/varejo/backend/internal/infrastructure/logger"
	"github.com/varejo/backend/internal/infrastructure/messaging"
	"github.com/varejo/backend/internal/infrastructure/persistence"
	"github.com/varejo/backend/internal/infrastructure/scheduler"
	"github.com/varejo/backend/internal/interfaces/http/handler"
	"github.com/varejo/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Varejo Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.HTTP.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	ledgerTx := persistence.NewGormLedgerTx(db.DB)

	// Messaging
	sender := messaging.NewWhatsAppClient(cfg.WhatsApp, log)
	limiter, redisClient := newSendLimiter(cfg, log)
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	// Application services
	installmentService := appbilling.NewInstallmentService(
		installmentRepo, paymentRepo, ledgerTx, customerRepo, saleRepo, log)
	dunningService := appnotification.NewDunningService(
		companyRepo, installmentRepo, customerRepo, sender, limiter, log)

	// Dunning scheduler
	var cronScheduler *scheduler.DunningCronScheduler
	if cfg.Dunning.Enabled {
		cronScheduler = scheduler.NewDunningCronScheduler(scheduler.DunningCronSchedulerConfig{
			Enabled:    true,
			Hour:       cfg.Dunning.Hour,
			Minute:     cfg.Dunning.Minute,
			RunTimeout: 30 * time.Minute,
		}, dunningService, log)
		if err := cronScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start dunning scheduler", zap.Error(err))
		}
	}

	engine := router.New(cfg, log, router.Handlers{
		System:      handler.NewSystemHandler(db),
		Installment: handler.NewInstallmentHandler(installmentService),
		Dunning:     handler.NewDunningHandler(dunningService, cronScheduler),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if cronScheduler != nil {
		if err := cronScheduler.Stop(ctx); err != nil {
			log.Error("Dunning scheduler shutdown failed", zap.Error(err))
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// newSendLimiter picks the quota backend: Redis when enabled so the quota
// holds across replicas, otherwise a per-process in-memory window.
func newSendLimiter(cfg *config.Config, log *zap.Logger) (notification.SendLimiter, *redis.Client) {
	if !cfg.Redis.Enabled {
		return cache.NewInMemorySendLimiter(cfg.Dunning.MaxMessagesPerHour), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unreachable, falling back to in-memory send limiter", zap.Error(err))
		_ = client.Close()
		return cache.NewInMemorySendLimiter(cfg.Dunning.MaxMessagesPerHour), nil
	}

	log.Info("Using Redis send limiter", zap.String("addr", cfg.Redis.Addr()))
	return cache.NewRedisSendLimiter(client, cfg.Dunning.MaxMessagesPerHour), client
}
